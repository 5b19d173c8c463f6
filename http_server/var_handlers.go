package http_server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/danthegoodman1/dfgrid/dtype"
	"github.com/danthegoodman1/dfgrid/session"
	"github.com/danthegoodman1/dfgrid/sqlsource"
	"github.com/danthegoodman1/dfgrid/table"
	"github.com/jackc/pgconn"
	"github.com/labstack/echo/v4"
)

type (
	LoadVarReq struct {
		Rows   []json.RawMessage `json:"rows" validate:"required_without=NDJSON"`
		NDJSON *string           `json:"ndjson" validate:"required_without=Rows"`
	}

	LoadSQLReq struct {
		SQL  string `json:"sql" validate:"required"`
		Args []any  `json:"args"`
	}

	pageQuery struct {
		page     int
		pageSize int
	}
)

// bindPageQuery reads ?page and ?pageSize. Page sizes above the configured maximum
// are clamped, unset or non-positive sizes use the default.
func (s *HTTPServer) bindPageQuery(c *CustomContext) (pageQuery, error) {
	q := pageQuery{}
	err := echo.QueryParamsBinder(c).
		Int("page", &q.page).
		Int("pageSize", &q.pageSize).
		BindError()
	if err != nil {
		return q, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if q.pageSize <= 0 {
		q.pageSize = s.cfg.Pager.DefaultPageSize
	}
	if limit := s.cfg.Pager.MaxPageSize; limit > 0 && q.pageSize > limit {
		q.pageSize = limit
	}
	return q, nil
}

func (s *HTTPServer) LoadVar(c *CustomContext) error {
	var reqBody LoadVarReq
	if err := ValidateRequest(c, &reqBody); err != nil {
		return err
	}
	q, err := s.bindPageQuery(c)
	if err != nil {
		return err
	}

	var records []table.Row
	if reqBody.NDJSON != nil {
		records, err = table.ReadNDJSON(strings.NewReader(*reqBody.NDJSON))
	} else {
		records, err = table.ParseRecords(reqBody.Rows)
	}
	if err != nil {
		return c.BadRequest(err.Error())
	}
	t, err := table.FromRecords(records)
	if err != nil {
		return c.BadRequest(err.Error())
	}

	return c.JSON(http.StatusOK, c.Session.Load(c.PathParam("name"), t, q.page, q.pageSize))
}

func (s *HTTPServer) LoadVarFromSQL(c *CustomContext) error {
	if s.pool == nil {
		return c.JSON(http.StatusServiceUnavailable, errorBody{Error: "no database configured"})
	}
	var reqBody LoadSQLReq
	if err := ValidateRequest(c, &reqBody); err != nil {
		return err
	}
	q, err := s.bindPageQuery(c)
	if err != nil {
		return err
	}

	args := make([]any, len(reqBody.Args))
	for i, arg := range reqBody.Args {
		args[i] = dtype.Normalize(arg)
	}
	t, err := sqlsource.Query(c.Request().Context(), s.pool, s.cfg.SQL.QueryTimeout, reqBody.SQL, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return c.BadRequest(pgErr.Message)
		}
		return c.InternalError(err, "error in sqlsource.Query")
	}

	return c.JSON(http.StatusOK, c.Session.Load(c.PathParam("name"), t, q.page, q.pageSize))
}

func (s *HTTPServer) ListVars(c *CustomContext) error {
	return c.JSON(http.StatusOK, c.Session.Vars())
}

func (s *HTTPServer) DisplayVar(c *CustomContext) error {
	q, err := s.bindPageQuery(c)
	if err != nil {
		return err
	}
	name := c.PathParam("name")
	display, err := c.Session.Display(name, q.page, q.pageSize)
	if errors.Is(err, session.ErrVariableNotFound) {
		return c.JSON(http.StatusNotFound, errorBody{Error: "Variable not found: " + name})
	}
	if err != nil {
		return c.InternalError(err, "error in Session.Display")
	}
	return c.JSON(http.StatusOK, display)
}
