package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/swiftseat/coach-booking/internal/config"
	"github.com/swiftseat/coach-booking/internal/ledger"
	"github.com/swiftseat/coach-booking/internal/middleware"
	"github.com/swiftseat/coach-booking/internal/model"
	"github.com/swiftseat/coach-booking/internal/repository"
	"github.com/swiftseat/coach-booking/internal/utils"
)

var fixedNow = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

type fakeLedger struct {
	routes      []model.RouteAvailability
	bookings    []model.BookingWithRoute
	createErr   error
	created     *model.Booking
	lastInput   ledger.BookingInput
	deleteErr   error
	remaining   int
	remainErr   error
	routeErr    error
	listErr     error
	updatedWith ledger.RouteFields
}

func (f *fakeLedger) Location() *time.Location { return time.FixedZone("UTC+1", 3600) }
func (f *fakeLedger) Now() time.Time           { return fixedNow }

func (f *fakeLedger) ListAvailableRoutes(context.Context, time.Time) ([]model.RouteAvailability, error) {
	return f.routes, f.listErr
}

func (f *fakeLedger) ListRoutes(context.Context) ([]model.RouteAvailability, error) {
	return f.routes, f.listErr
}

func (f *fakeLedger) SeatsRemaining(context.Context, uint64) (int, error) {
	return f.remaining, f.remainErr
}

func (f *fakeLedger) CreateBooking(_ context.Context, in ledger.BookingInput) (*model.Booking, error) {
	f.lastInput = in
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.created, nil
}

func (f *fakeLedger) ListBookings(context.Context) ([]model.BookingWithRoute, error) {
	return f.bookings, f.listErr
}

func (f *fakeLedger) CreateRoute(_ context.Context, fields ledger.RouteFields) (*model.Route, error) {
	if f.routeErr != nil {
		return nil, f.routeErr
	}
	return &model.Route{ID: 9, Title: fields.Title, TotalSeats: fields.TotalSeats, DepartureTime: fixedNow.Add(time.Hour), Price: decimal.Zero}, nil
}

func (f *fakeLedger) UpdateRoute(_ context.Context, id uint64, fields ledger.RouteFields) (*model.Route, error) {
	f.updatedWith = fields
	if f.routeErr != nil {
		return nil, f.routeErr
	}
	return &model.Route{ID: id, Title: fields.Title, TotalSeats: fields.TotalSeats, DepartureTime: fixedNow, Price: decimal.Zero}, nil
}

func (f *fakeLedger) DeleteRoute(context.Context, uint64) error { return f.deleteErr }

type countingPurger struct{ calls int }

func (p *countingPurger) Purge(context.Context) (int, error) {
	p.calls++
	return 1, nil
}

func sampleRoutes() []model.RouteAvailability {
	return []model.RouteAvailability{
		{Route: model.Route{ID: 1, Title: "HX101", Origin: "New York", Destination: "Washington",
			DepartureTime: fixedNow.Add(6 * time.Hour), TotalSeats: 40, Price: decimal.RequireFromString("49.99")}, SeatsRemaining: 6},
		{Route: model.Route{ID: 2, Title: "HX315", Origin: "Chicago", Destination: "Detroit",
			DepartureTime: fixedNow.Add(8 * time.Hour), TotalSeats: 10, Price: decimal.Zero}, SeatsRemaining: 0},
	}
}

func do(h echo.HandlerFunc, method, target, body, contentType string, setup func(echo.Context)) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if setup != nil {
		setup(c)
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func withID(id string) func(echo.Context) {
	return func(c echo.Context) {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
}

func TestHealth(t *testing.T) {
	rec := do(Health, http.MethodGet, "/healthz", "", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRouteLabel(t *testing.T) {
	opts := routeOptions(sampleRoutes())
	require.Len(t, opts, 2)
	assert.Equal(t, "HX101 — New York ➜ Washington (6 seats left) · Ticket: 49.99", opts[0].Label)
	assert.False(t, opts[0].Disabled)
	assert.Equal(t, "HX315 — Chicago ➜ Detroit (0 seats left)", opts[1].Label)
	assert.True(t, opts[1].Disabled)
}

func TestListRoutes(t *testing.T) {
	h := NewPublicHandler(&fakeLedger{routes: sampleRoutes()}, nil, nil)

	rec := do(h.ListRoutes, http.MethodGet, "/v1/routes", "", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var view BookingFormView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Len(t, view.Routes, 2)
	assert.Empty(t, view.Errors)
	assert.Nil(t, view.Old)
	assert.Equal(t, "max-age=21600", rec.Header().Get("Cache-Control"), "cached copy expires when the first route departs")
}

func TestListRoutesEmptyHasNoCacheLimit(t *testing.T) {
	h := NewPublicHandler(&fakeLedger{}, nil, nil)

	rec := do(h.ListRoutes, http.MethodGet, "/v1/routes", "", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Cache-Control"))
}

func TestCreateBookingFormSuccess(t *testing.T) {
	fl := &fakeLedger{created: &model.Booking{ID: 5, Reference: "ref", RouteID: 1, PassengerName: "Ada", PassengerEmail: "ada@example.com", Seats: 2, CreatedAt: fixedNow}}
	p := &countingPurger{}
	h := NewPublicHandler(fl, p, nil)
	form := url.Values{"route_id": {"1"}, "passenger_name": {"Ada"}, "passenger_email": {"ada@example.com"}, "seats": {"2"}}

	rec := do(h.CreateBooking, http.MethodPost, "/v1/bookings", form.Encode(), echo.MIMEApplicationForm, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, ledger.BookingInput{RouteID: 1, PassengerName: "Ada", PassengerEmail: "ada@example.com", Seats: 2}, fl.lastInput)
	var view BookingConfirmationView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.True(t, view.Success)
	assert.Equal(t, uint64(5), view.Booking.ID)
	assert.Equal(t, 1, p.calls)
}

func TestCreateBookingValidationRendersForm(t *testing.T) {
	remaining := 6
	verr := &ledger.ValidationError{Fields: []ledger.FieldError{
		{Field: "passenger_name", Code: ledger.CodeNameRequired, Message: "name required"},
		{Field: "seats", Code: ledger.CodeInsufficientSeats, Message: "insufficient seats, 6 remain", Remaining: &remaining},
	}}
	p := &countingPurger{}
	h := NewPublicHandler(&fakeLedger{routes: sampleRoutes(), createErr: verr}, p, nil)

	rec := do(h.CreateBooking, http.MethodPost, "/v1/bookings",
		`{"route_id":1,"passenger_name":"","passenger_email":"ada@example.com","seats":7}`, echo.MIMEApplicationJSON, nil)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var view BookingFormView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Errors, 2)
	assert.Equal(t, "insufficient seats, 6 remain", view.Errors[1].Message)
	require.NotNil(t, view.Errors[1].Remaining)
	assert.Equal(t, 6, *view.Errors[1].Remaining)
	require.NotNil(t, view.Old)
	assert.Equal(t, 7, view.Old.Seats)
	assert.Equal(t, "ada@example.com", view.Old.PassengerEmail)
	assert.Len(t, view.Routes, 2)
	assert.Zero(t, p.calls)
}

func TestCreateBookingRouteZero(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery("FROM routes r").WillReturnRows(sqlmock.NewRows([]string{
		"id", "title", "origin", "destination", "departure_time", "total_seats", "price", "created_at", "booked"}))
	h := NewPublicHandler(ledger.New(db, ledger.Options{Now: func() time.Time { return fixedNow }}), nil, nil)

	rec := do(h.CreateBooking, http.MethodPost, "/v1/bookings",
		`{"route_id":0,"passenger_name":"Ada","passenger_email":"ada@example.com","seats":500}`, echo.MIMEApplicationJSON, nil)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var view BookingFormView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Errors, 1)
	assert.Equal(t, "route unavailable", view.Errors[0].Message)
	assert.NoError(t, mock.ExpectationsWereMet(), "only the form's route listing may touch the store")
}

func TestCreateBookingNonNumericFieldsKeepOtherErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	routeCols := []string{"id", "title", "origin", "destination", "departure_time", "total_seats", "price", "created_at"}
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(1).WillReturnRows(sqlmock.NewRows(routeCols).
		AddRow(1, "HX101", "New York", "Washington", fixedNow.Add(time.Hour), 10, "0", fixedNow))
	mock.ExpectQuery("SUM\\(seats\\)").WithArgs(1).WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(0))
	mock.ExpectRollback()
	mock.ExpectQuery("WHERE r.departure_time >=").WillReturnRows(sqlmock.NewRows(append(routeCols, "booked")))
	h := NewPublicHandler(ledger.New(db, ledger.Options{Now: func() time.Time { return fixedNow }}), nil, nil)
	form := url.Values{"route_id": {"1"}, "passenger_name": {""}, "passenger_email": {"bad"}, "seats": {"two"}}

	rec := do(h.CreateBooking, http.MethodPost, "/v1/bookings", form.Encode(), echo.MIMEApplicationForm, nil)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var view BookingFormView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	codes := make([]string, 0, len(view.Errors))
	for _, fe := range view.Errors {
		codes = append(codes, fe.Code)
	}
	assert.Equal(t, []string{ledger.CodeNameRequired, ledger.CodeInvalidEmail, ledger.CodeSeatsRequired}, codes)
	require.NotNil(t, view.Old)
	assert.Equal(t, 0, view.Old.Seats)
	assert.Equal(t, "bad", view.Old.PassengerEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingLooseNumbers(t *testing.T) {
	cases := []struct {
		name, body, contentType string
		want                    ledger.BookingInput
	}{
		{"form garbage route", url.Values{"route_id": {"abc"}, "seats": {"3"}}.Encode(), echo.MIMEApplicationForm,
			ledger.BookingInput{Seats: 3}},
		{"form negative route", url.Values{"route_id": {"-4"}, "seats": {" 2 "}}.Encode(), echo.MIMEApplicationForm,
			ledger.BookingInput{Seats: 2}},
		{"json strings", `{"route_id":"7","seats":"3"}`, echo.MIMEApplicationJSON,
			ledger.BookingInput{RouteID: 7, Seats: 3}},
		{"json fraction and word", `{"route_id":7,"seats":1.5,"passenger_name":"Ada"}`, echo.MIMEApplicationJSON,
			ledger.BookingInput{RouteID: 7, PassengerName: "Ada"}},
		{"json null", `{"route_id":null,"seats":true}`, echo.MIMEApplicationJSON,
			ledger.BookingInput{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verr := &ledger.ValidationError{Fields: []ledger.FieldError{{Field: "seats", Code: ledger.CodeSeatsRequired, Message: "seats required"}}}
			fl := &fakeLedger{createErr: verr}
			h := NewPublicHandler(fl, nil, nil)

			rec := do(h.CreateBooking, http.MethodPost, "/v1/bookings", tc.body, tc.contentType, nil)

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, tc.want, fl.lastInput)
		})
	}
}

func TestAdminCreateRouteNonNumericSeats(t *testing.T) {
	h := NewAdminHandler(&fakeLedger{}, nil, nil)

	rec := do(h.CreateRoute, http.MethodPost, "/v1/admin/routes",
		url.Values{"title": {"HX7"}, "total_seats": {"lots"}}.Encode(), echo.MIMEApplicationForm, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	var row AdminRouteRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &row))
	assert.Equal(t, 0, row.SeatsRemaining, "unparsable capacity reaches the ledger as 0")
}

func TestCreateBookingBadBody(t *testing.T) {
	h := NewPublicHandler(&fakeLedger{}, nil, nil)
	rec := do(h.CreateBooking, http.MethodPost, "/v1/bookings", `{"route_id":"x"`, echo.MIMEApplicationJSON, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBookingStorageFailure(t *testing.T) {
	h := NewPublicHandler(&fakeLedger{createErr: &ledger.PersistenceError{Op: "lock route", Err: errors.New("boom")}}, nil, nil)

	rec := do(h.CreateBooking, http.MethodPost, "/v1/bookings",
		`{"route_id":1,"passenger_name":"Ada","passenger_email":"ada@example.com","seats":1}`, echo.MIMEApplicationJSON, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestAdminListRoutesUsesOperatorZone(t *testing.T) {
	h := NewAdminHandler(&fakeLedger{routes: sampleRoutes()}, nil, nil)

	rec := do(h.ListRoutes, http.MethodGet, "/v1/admin/routes", "", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var view AdminRoutesView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "UTC+1", view.Timezone)
	require.Len(t, view.Routes, 2)
	assert.Equal(t, "2026-03-01T15:00", view.Routes[0].DepartureLocal)
	assert.Equal(t, "49.99", view.Routes[0].Price)
}

func TestAdminCreateRoute(t *testing.T) {
	p := &countingPurger{}
	h := NewAdminHandler(&fakeLedger{}, p, nil)

	rec := do(h.CreateRoute, http.MethodPost, "/v1/admin/routes",
		`{"title":"HX7","origin":"A","destination":"B","departure_time":"2026-03-10T09:30","total_seats":30,"price":"0"}`,
		echo.MIMEApplicationJSON, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	var row AdminRouteRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &row))
	assert.Equal(t, uint64(9), row.ID)
	assert.Equal(t, 30, row.SeatsRemaining)
	assert.Equal(t, 1, p.calls)
}

func TestAdminCreateRouteValidation(t *testing.T) {
	verr := &ledger.ValidationError{Fields: []ledger.FieldError{{Field: "title", Code: ledger.CodeTitleRequired, Message: "title required"}}}
	h := NewAdminHandler(&fakeLedger{routeErr: verr}, nil, nil)

	rec := do(h.CreateRoute, http.MethodPost, "/v1/admin/routes", `{}`, echo.MIMEApplicationJSON, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), ledger.CodeTitleRequired)
}

func TestAdminUpdateRoute(t *testing.T) {
	fl := &fakeLedger{remaining: 0}
	h := NewAdminHandler(fl, nil, nil)

	rec := do(h.UpdateRoute, http.MethodPut, "/v1/admin/routes/3",
		`{"title":"HX1","origin":"A","destination":"B","departure_time":"2026-03-10T09:30","total_seats":2}`,
		echo.MIMEApplicationJSON, withID("3"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, fl.updatedWith.TotalSeats)
	var row AdminRouteRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &row))
	assert.Equal(t, uint64(3), row.ID)
	assert.Equal(t, 0, row.SeatsRemaining)
}

func TestAdminUpdateRouteNotFound(t *testing.T) {
	h := NewAdminHandler(&fakeLedger{routeErr: ledger.ErrRouteNotFound}, nil, nil)
	rec := do(h.UpdateRoute, http.MethodPut, "/v1/admin/routes/3", `{}`, echo.MIMEApplicationJSON, withID("3"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminDeleteRoute(t *testing.T) {
	p := &countingPurger{}
	h := NewAdminHandler(&fakeLedger{}, p, nil)
	rec := do(h.DeleteRoute, http.MethodDelete, "/v1/admin/routes/4", "", "", withID("4"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, p.calls)

	h = NewAdminHandler(&fakeLedger{deleteErr: ledger.ErrRouteNotFound}, nil, nil)
	rec = do(h.DeleteRoute, http.MethodDelete, "/v1/admin/routes/4", "", "", withID("4"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h.DeleteRoute, http.MethodDelete, "/v1/admin/routes/abc", "", "", withID("abc"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminSeatsRemaining(t *testing.T) {
	h := NewAdminHandler(&fakeLedger{remaining: 6}, nil, nil)
	rec := do(h.SeatsRemaining, http.MethodGet, "/v1/admin/routes/1/seats", "", "", withID("1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"route_id":1,"seats_remaining":6}`, rec.Body.String())

	h = NewAdminHandler(&fakeLedger{remainErr: ledger.ErrRouteNotFound}, nil, nil)
	rec = do(h.SeatsRemaining, http.MethodGet, "/v1/admin/routes/1/seats", "", "", withID("1"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminListBookings(t *testing.T) {
	fl := &fakeLedger{bookings: []model.BookingWithRoute{
		{Booking: model.Booking{ID: 2, Reference: "b", RouteID: 1, PassengerName: "Bo", PassengerEmail: "bo@example.com", Seats: 1, CreatedAt: fixedNow}, RouteTitle: "HX101"},
	}}
	h := NewAdminHandler(fl, nil, nil)

	rec := do(h.ListBookings, http.MethodGet, "/v1/admin/bookings", "", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var view AdminBookingsView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Bookings, 1)
	assert.Equal(t, "HX101", view.Bookings[0].RouteTitle)
	assert.Equal(t, "2026-03-01 09:00", view.Bookings[0].CreatedLocal)
}

var operatorCols = []string{"id", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	cfg := config.Config{JWTSecret: "secret", AccessTTLMin: 15}
	return NewAuthHandler(cfg, repository.NewOperatorRepo(db), nil), mock
}

func TestLogin(t *testing.T) {
	hash, err := utils.HashPassword("pw", bcrypt.MinCost)
	require.NoError(t, err)

	cases := []struct {
		name   string
		body   string
		rows   *sqlmock.Rows
		status int
	}{
		{"ok", `{"email":" Admin@Example.com ","password":"pw"}`,
			sqlmock.NewRows(operatorCols).AddRow(1, "admin@example.com", hash, model.RoleAdmin, true, fixedNow, fixedNow), http.StatusOK},
		{"wrong password", `{"email":"admin@example.com","password":"nope"}`,
			sqlmock.NewRows(operatorCols).AddRow(1, "admin@example.com", hash, model.RoleAdmin, true, fixedNow, fixedNow), http.StatusUnauthorized},
		{"inactive", `{"email":"admin@example.com","password":"pw"}`,
			sqlmock.NewRows(operatorCols).AddRow(1, "admin@example.com", hash, model.RoleAdmin, false, fixedNow, fixedNow), http.StatusUnauthorized},
		{"unknown", `{"email":"admin@example.com","password":"pw"}`, sqlmock.NewRows(operatorCols), http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, mock := newAuthHandler(t)
			mock.ExpectQuery("FROM operators WHERE email=").WithArgs("admin@example.com").WillReturnRows(tc.rows)

			rec := do(h.Login, http.MethodPost, "/v1/auth/login", tc.body, echo.MIMEApplicationJSON, nil)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				var resp loginResp
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				claims, err := utils.ParseAccessToken("secret", resp.Access.Token)
				require.NoError(t, err)
				assert.Equal(t, model.RoleAdmin, claims.Role)
			}
		})
	}
}

func TestLoginMissingFields(t *testing.T) {
	h, mock := newAuthHandler(t)
	rec := do(h.Login, http.MethodPost, "/v1/auth/login", `{"email":""}`, echo.MIMEApplicationJSON, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMe(t *testing.T) {
	h, mock := newAuthHandler(t)
	mock.ExpectQuery("FROM operators WHERE id=").WithArgs(1).
		WillReturnRows(sqlmock.NewRows(operatorCols).AddRow(1, "admin@example.com", "x", model.RoleAdmin, true, fixedNow, fixedNow))

	rec := do(h.Me, http.MethodGet, "/v1/me", "", "", func(c echo.Context) {
		c.Set(middleware.CtxOperatorID, uint64(1))
		c.Set(middleware.CtxRole, model.RoleAdmin)
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":1,"email":"admin@example.com","role":"ADMIN"}`, rec.Body.String())
}
