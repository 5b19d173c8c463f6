package http_server

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/danthegoodman1/dfgrid/gologger"
	"github.com/danthegoodman1/dfgrid/session"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type CustomContext struct {
	echo.Context
	RequestID string
	// Session is set for routes under /sessions/:sid
	Session *session.Session
}

type errorBody struct {
	Error string `json:"error"`
}

func CreateReqContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := uuid.NewString()
		ctx := context.WithValue(c.Request().Context(), gologger.ReqIDKey, reqID)
		ctx = logger.WithContext(ctx)
		c.SetRequest(c.Request().WithContext(ctx))
		logger := zerolog.Ctx(ctx)
		logger.UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("reqID", reqID)
		})
		cc := &CustomContext{
			Context:   c,
			RequestID: reqID,
		}
		return next(cc)
	}
}

// Casts to custom context for the handler, so this doesn't have to be done per handler
func ccHandler(h func(*CustomContext) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		return h(c.(*CustomContext))
	}
}

// sessionHandler resolves :sid before calling h, answering 404 for unknown sessions.
func sessionHandler(s *HTTPServer, h func(*CustomContext) error) echo.HandlerFunc {
	return ccHandler(func(c *CustomContext) error {
		sid := c.Param("sid")
		sess, ok := s.Sessions.Get(sid)
		if !ok {
			return c.JSON(http.StatusNotFound, errorBody{Error: "Session not found: " + sid})
		}
		c.Session = sess

		ctx := context.WithValue(c.Request().Context(), gologger.SessionIDKey, sid)
		c.SetRequest(c.Request().WithContext(ctx))
		zerolog.Ctx(ctx).UpdateContext(func(zc zerolog.Context) zerolog.Context {
			return zc.Str("sessionID", sid)
		})
		return h(c)
	})
}

// PathParam returns an unescaped path parameter.
func (c *CustomContext) PathParam(name string) string {
	raw := c.Param(name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func (c *CustomContext) BadRequest(msg string) error {
	return c.JSON(http.StatusBadRequest, errorBody{Error: msg})
}

func (c *CustomContext) internalErrorMessage() string {
	return "internal error, request id: " + c.RequestID
}

func (c *CustomContext) InternalError(err error, msg string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		zerolog.Ctx(c.Request().Context()).Warn().CallerSkipFrame(1).Msg(err.Error())
	} else {
		zerolog.Ctx(c.Request().Context()).Error().CallerSkipFrame(1).Err(err).Msg(msg)
	}
	return c.String(http.StatusInternalServerError, c.internalErrorMessage())
}
