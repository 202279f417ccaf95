package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"weld-inspector/config"
	"weld-inspector/internal/container"
)

type Server struct {
	httpServer *http.Server
	cfg        config.HTTPConfig
	log        *zap.Logger
}

// NewRouter собирает маршруты REST API
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", h.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/sessions", h.CreateSession)
		api.GET("/sessions/:id", h.GetSession)
		api.DELETE("/sessions/:id", h.ResetSession)
		api.POST("/sessions/:id/image", h.UploadImage)
		api.POST("/sessions/:id/analyze", h.Analyze)
		api.GET("/sessions/:id/overlay", h.Overlay)
		api.GET("/sessions/:id/edges", h.EdgeMap)
		api.POST("/sessions/:id/feedback", h.Feedback)
		api.GET("/labels", h.ListLabels)
	}

	return router
}

func New(cfg config.HTTPConfig, c *container.Container, maxUpload int64, log *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	h := NewHandler(c, maxUpload, log)

	server := &Server{
		httpServer: &http.Server{
			Addr:              cfg.Host + ":" + cfg.Port,
			Handler:           NewRouter(h),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      2 * time.Minute, // первый анализ загружает модель
			MaxHeaderBytes:    1 << 20,         // 1 MB
		},
		cfg: cfg,
		log: log,
	}

	log.Info("Server created successfully",
		zap.String("host", cfg.Host),
		zap.String("port", cfg.Port))

	return server
}

func (s *Server) Run() error {
	s.log.Info("Server is running", zap.String("address", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server")
	return s.httpServer.Shutdown(ctx)
}
