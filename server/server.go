// Package server is a development server implementing the time-tracking
// REST contract the client consumes, so the grid can be exercised without
// the production backend. Postgres via DATABASE_URL, local SQLite otherwise.
package server

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/existflow/timegrid/internal/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Server hosts the stub REST API.
type Server struct {
	db        *sql.DB
	driver    string // "postgres" or "sqlite"
	echo      *echo.Echo
	jwtSecret []byte
}

// New creates a server. dbURL is either a postgres URL or a SQLite file
// path. jwtSecret signs the issued token pairs.
func New(dbURL string, jwtSecret []byte) (*Server, error) {
	driver := "sqlite"
	if strings.HasPrefix(dbURL, "postgres://") || strings.HasPrefix(dbURL, "postgresql://") {
		driver = "postgres"
	}

	db, err := sql.Open(driver, dbURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &Server{
		db:        db,
		driver:    driver,
		jwtSecret: jwtSecret,
	}

	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	if err := s.seedAdmin(); err != nil {
		return nil, fmt.Errorf("seeding admin: %w", err)
	}

	s.setupEcho()
	return s, nil
}

// bind rewrites ? placeholders to $N for postgres. SQLite takes ? as is.
func (s *Server) bind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			req := c.Request()
			logger.Info("http",
				logger.F("method", req.Method),
				logger.F("uri", req.RequestURI),
				logger.F("status", c.Response().Status),
				logger.F("duration", time.Since(start).String()))
			return err
		}
	})
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")
	api.POST("/auth/login/", s.handleLogin)
	api.POST("/auth/refresh/", s.handleRefresh)

	protected := api.Group("")
	protected.Use(s.authMiddleware)
	protected.GET("/users/", s.handleListUsers)
	protected.GET("/users/me/", s.handleMe)
	protected.GET("/projets/", s.handleListProjects)
	protected.POST("/projets/", s.handleCreateProject)
	protected.POST("/saisie-temps/", s.handleCreateEntry)
	protected.PATCH("/saisie-temps/:id/", s.handleUpdateEntry)
	protected.DELETE("/saisie-temps/:id/", s.handleDeleteEntry)
	protected.GET("/saisie-temps/:userID/monthly/:month/", s.handleMonthlyEntries)

	s.echo = e
}

// Start serves HTTP on addr until the listener fails.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Handler exposes the HTTP handler for tests.
func (s *Server) Handler() *echo.Echo { return s.echo }

// Close closes the database connection.
func (s *Server) Close() error {
	return s.db.Close()
}
