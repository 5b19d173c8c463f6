package http_server

import (
	"net/http"
	"time"

	"github.com/danthegoodman1/dfgrid/utils"
)

type (
	CreateSessionRes struct {
		SessionID string `json:"sessionId"`
	}

	CleanupReq struct {
		// MaxAgeMinutes absent clears every entry of the session
		MaxAgeMinutes *float64 `json:"maxAgeMinutes" validate:"omitempty,gte=0"`
	}
)

func (s *HTTPServer) CreateSession(c *CustomContext) error {
	sess := s.Sessions.Create()
	return c.JSON(http.StatusCreated, CreateSessionRes{SessionID: sess.ID})
}

func (s *HTTPServer) DeleteSession(c *CustomContext) error {
	sid := c.Param("sid")
	if !s.Sessions.Delete(sid) {
		return c.JSON(http.StatusNotFound, errorBody{Error: "Session not found: " + sid})
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) Cleanup(c *CustomContext) error {
	var reqBody CleanupReq
	if err := ValidateRequest(c, &reqBody); err != nil {
		return err
	}
	maxAge := time.Duration(utils.Deref(reqBody.MaxAgeMinutes, 0) * float64(time.Minute))
	return c.JSON(http.StatusOK, c.Session.Editor.Cleanup(maxAge))
}
