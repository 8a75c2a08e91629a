package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/swiftseat/coach-booking/internal/model"
)

type sampleRoute struct {
	title, origin, destination string
	after                      time.Duration
	seats                      int
	price                      string
}

var sampleRoutes = []sampleRoute{
	{"HX101", "New York", "Washington", 6 * time.Hour, 40, "49.99"},
	{"HX205", "San Francisco", "Los Angeles", 10 * time.Hour, 48, "79.99"},
	{"HX315", "Chicago", "Detroit", 4 * time.Hour, 36, "39.99"},
}

// SeedSampleRoutes inserts a few demo departures relative to the current
// hour.  It does nothing when any route exists and returns how many routes
// it created.
func (l *Ledger) SeedSampleRoutes(ctx context.Context) (int, error) {
	n, err := l.routes.Count(ctx)
	if err != nil {
		return 0, persistence("count routes", err)
	}
	if n > 0 {
		return 0, nil
	}
	now := l.Now().Truncate(time.Second)
	base := now.Truncate(time.Hour)
	for i, s := range sampleRoutes {
		rt := model.Route{
			Title:         s.title,
			Origin:        s.origin,
			Destination:   s.destination,
			DepartureTime: base.Add(s.after),
			TotalSeats:    s.seats,
			Price:         decimal.RequireFromString(s.price),
			CreatedAt:     now,
		}
		if err := l.routes.Create(ctx, &rt); err != nil {
			return i, persistence("seed route", err)
		}
	}
	l.log.Info("sample routes seeded", "count", len(sampleRoutes))
	return len(sampleRoutes), nil
}
