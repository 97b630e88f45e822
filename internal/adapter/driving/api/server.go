package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lhtools/tb-pivot-export-go/internal/application/usecase"
	"github.com/lhtools/tb-pivot-export-go/internal/shared/types"
	"github.com/rs/cors"
)

// Server exposes the export pipeline over HTTP so a dashboard widget can post
// its payload directly instead of going through a file.
type Server struct {
	engine  *gin.Engine
	console types.ConsoleInterface
}

// NewServer builds the HTTP server and its routes.
func NewServer(uc *usecase.ExportUseCase, console types.ConsoleInterface) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	handler := NewReportHandler(uc, console)

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.POST("/api/v1/reports", handler.CreateReport)

	return &Server{engine: engine, console: console}
}

// Handler returns the full HTTP handler, CORS included, for use in tests.
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(s.engine)
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	return http.ListenAndServe(addr, s.Handler())
}
