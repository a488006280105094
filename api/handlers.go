package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"boardify-api/domain"
)

const userContextKey = "boardify.user"

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, svc Services, logger *log.Logger) {
	e.JSONSerializer = JSONSerializer{}

	obs := observe(logger)
	authed := []echo.MiddlewareFunc{obs, requireUser(svc.Auth)}

	e.GET("/healthz", healthz(svc.Health))

	e.POST("/users/register", register(svc.Users), obs)
	e.POST("/users/login", login(svc.Users, svc.Auth), obs)
	e.GET("/users/me", me(), authed...)

	e.GET("/boards", listBoards(svc.Boards), authed...)
	e.GET("/boards/:id", getBoard(svc.Boards), authed...)
	e.POST("/boards", createBoard(svc.Boards, svc.Deduper), authed...)
	e.PATCH("/boards/:id", updateBoard(svc.Boards), authed...)
	e.DELETE("/boards/:id", deleteBoard(svc.Boards), authed...)

	e.POST("/tickets", createTicket(svc.Tickets, svc.Deduper), authed...)
	e.PATCH("/tickets/:id", updateTicket(svc.Tickets), authed...)
	e.DELETE("/tickets/:id", deleteTicket(svc.Tickets), authed...)
}

func healthz(p Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if p != nil {
			if err := p.Ping(c.Request().Context()); err != nil {
				log.WithError(err).Warn("health check failed")
				return c.JSON(http.StatusServiceUnavailable, errorResponse{Detail: "store unavailable"})
			}
		}
		return c.NoContent(http.StatusOK)
	}
}

// requireUser resolves the bearer token to a user or answers 401.
func requireUser(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			user, err := auth.UserFromAuthHeader(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization))
			if m := metricsFrom(c); m != nil {
				m.ObserveAuth(time.Since(start))
			}
			if err != nil {
				return writeError(c, "auth", err)
			}
			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

func currentUser(c echo.Context) domain.User {
	u, _ := c.Get(userContextKey).(domain.User)
	return u
}

func pathID(c echo.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	return id, err == nil
}

// respond encodes v and records encode timing.
func respond(c echo.Context, status int, v any) error {
	start := time.Now()
	err := c.JSON(status, v)
	if m := metricsFrom(c); m != nil {
		m.ObserveEncode(time.Since(start))
		if err != nil {
			m.SetErrorStage("encode_response")
		}
	}
	return err
}

// timed runs a service call and records its duration.
func timed(c echo.Context, fn func() error) error {
	start := time.Now()
	err := fn()
	if m := metricsFrom(c); m != nil {
		m.ObserveService(time.Since(start))
	}
	return err
}

func me() echo.HandlerFunc {
	return func(c echo.Context) error {
		return respond(c, http.StatusOK, currentUser(c))
	}
}
