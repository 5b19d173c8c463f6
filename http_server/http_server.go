package http_server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/danthegoodman1/dfgrid/config"
	"github.com/danthegoodman1/dfgrid/datastore"
	"github.com/danthegoodman1/dfgrid/gologger"
	"github.com/danthegoodman1/dfgrid/metastore"
	"github.com/danthegoodman1/dfgrid/session"
	"github.com/danthegoodman1/dfgrid/utils"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

var logger = gologger.NewLogger()

type HTTPServer struct {
	Echo     *echo.Echo
	Sessions *session.Manager

	cfg *config.Config
	// pool is nil when no database is configured
	pool *pgxpool.Pool
	// store is nil when exports are disabled
	store datastore.DataStore
	meta  metastore.MetaStore
}

type Deps struct {
	Config   *config.Config
	Sessions *session.Manager
	Pool     *pgxpool.Pool
	Store    datastore.DataStore
	// Meta defaults to an in-memory catalog
	Meta metastore.MetaStore
}

type CustomValidator struct {
	validator *validator.Validate
}

// NewHTTPServer builds the router without listening.
func NewHTTPServer(deps Deps) *HTTPServer {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	sessions := deps.Sessions
	if sessions == nil {
		sessions = session.NewManager(session.WithDefaultPageSize(cfg.Pager.DefaultPageSize))
	}

	meta := deps.Meta
	if meta == nil {
		meta = metastore.NewMemoryMetaStore()
	}

	s := &HTTPServer{
		Echo:     echo.New(),
		Sessions: sessions,
		cfg:      cfg,
		pool:     deps.Pool,
		store:    deps.Store,
		meta:     meta,
	}
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.JSONSerializer = &utils.NoEscapeJSONSerializer{}

	s.Echo.Use(CreateReqContext)
	s.Echo.Use(LoggerMiddleware)
	s.Echo.Use(middleware.CORS())
	s.Echo.Validator = &CustomValidator{validator: validator.New()}

	// technical - no auth
	s.Echo.GET("/hc", s.HealthCheck)

	s.Echo.POST("/sessions", ccHandler(s.CreateSession))
	sessionGroup := s.Echo.Group("/sessions/:sid")
	sessionGroup.DELETE("", ccHandler(s.DeleteSession))
	sessionGroup.POST("/cleanup", sessionHandler(s, s.Cleanup))

	varGroup := sessionGroup.Group("/vars")
	varGroup.GET("", sessionHandler(s, s.ListVars))
	varGroup.POST("/:name", sessionHandler(s, s.LoadVar))
	varGroup.POST("/:name/sql", sessionHandler(s, s.LoadVarFromSQL))
	varGroup.GET("/:name/display", sessionHandler(s, s.DisplayVar))

	frameGroup := sessionGroup.Group("/frames/:id")
	frameGroup.GET("/page", sessionHandler(s, s.GetPage))
	frameGroup.PUT("/cells", sessionHandler(s, s.EditCell))
	frameGroup.POST("/rows", sessionHandler(s, s.AddRow))
	frameGroup.DELETE("/rows/:row", sessionHandler(s, s.DeleteRow))
	frameGroup.POST("/columns", sessionHandler(s, s.AddColumn))
	frameGroup.DELETE("/columns/:column", sessionHandler(s, s.DeleteColumn))
	frameGroup.PATCH("/columns/:column", sessionHandler(s, s.RenameColumn))
	frameGroup.PUT("/columns/:column/type", sessionHandler(s, s.ChangeColumnType))
	frameGroup.POST("/export", sessionHandler(s, s.Export))
	frameGroup.GET("/exports", sessionHandler(s, s.ListExports))

	return s
}

// StartHTTPServer listens on the configured port and serves h2c in the background.
func StartHTTPServer(deps Deps) (*HTTPServer, error) {
	s := NewHTTPServer(deps)
	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", s.cfg.HTTP.Port))
	if err != nil {
		return nil, fmt.Errorf("error creating tcp listener: %w", err)
	}

	s.Echo.Listener = listener
	go func() {
		logger.Info().Msg("starting h2c server on " + listener.Addr().String())
		err := s.Echo.StartH2CServer("", &http2.Server{})
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start h2c server, exiting")
		}
	}()

	return s, nil
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func ValidateRequest(c echo.Context, s interface{}) error {
	if err := c.Bind(s); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(s); err != nil {
		return err
	}
	return nil
}

func (*HTTPServer) HealthCheck(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	err := s.Echo.Shutdown(ctx)
	return err
}

func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		if err := next(c); err != nil {
			// default handler
			c.Error(err)
		}
		stop := time.Since(start)
		// Log otherwise
		logger := zerolog.Ctx(c.Request().Context())
		req := c.Request()
		res := c.Response()

		p := req.URL.Path
		if p == "" {
			p = "/"
		}

		cl := req.Header.Get(echo.HeaderContentLength)
		if cl == "" {
			cl = "0"
		}
		logger.Debug().Str("method", req.Method).Str("remote_ip", c.RealIP()).Str("req_uri", req.RequestURI).Str("handler_path", c.Path()).Str("path", p).Int("status", res.Status).Int64("latency_ns", int64(stop)).Str("protocol", req.Proto).Str("bytes_in", cl).Int64("bytes_out", res.Size).Msg("req received")
		return nil
	}
}
