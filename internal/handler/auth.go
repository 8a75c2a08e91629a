package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/swiftseat/coach-booking/internal/config"
	"github.com/swiftseat/coach-booking/internal/logger"
	"github.com/swiftseat/coach-booking/internal/middleware"
	"github.com/swiftseat/coach-booking/internal/repository"
	"github.com/swiftseat/coach-booking/internal/utils"
)

// AuthHandler bundles dependencies for operator login.
type AuthHandler struct {
	Cfg       config.Config
	Operators *repository.OperatorRepo
	Log       logger.Logger
}

func NewAuthHandler(cfg config.Config, ops *repository.OperatorRepo, log logger.Logger) *AuthHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &AuthHandler{Cfg: cfg, Operators: ops, Log: log}
}

type loginReq struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type operatorPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type loginResp struct {
	Operator operatorPart      `json:"operator"`
	Access   utils.AccessToken `json:"access"`
}

// Login handles POST /v1/auth/login.  Unknown emails, wrong passwords and
// disabled accounts all get the same 401.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	op, err := h.Operators.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrOperatorNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		h.Log.Error("operator lookup failed", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !op.IsActive || !utils.VerifyPassword(op.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, op.ID, op.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		h.Log.Error("issue access token failed", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	h.Log.Info("operator logged in", "operator_id", op.ID)
	return c.JSON(http.StatusOK, loginResp{
		Operator: operatorPart{ID: op.ID, Email: op.Email, Role: op.Role},
		Access:   access,
	})
}

// Me handles GET /v1/me.
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	op, err := h.Operators.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrOperatorNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": id,
		"email":   op.Email,
		"role":    c.Get(middleware.CtxRole),
	})
}
