package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"forward_bot/internal/logger"

	"github.com/gin-gonic/gin"
)

// Server 健康检查 HTTP 服务
// 部署平台（Render 等）通过 GET / 和 GET /health 探活
type Server struct {
	srv *http.Server
}

// New 创建健康检查服务
func New(port int) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start 启动服务（非阻塞）
func (s *Server) Start() {
	go func() {
		logger.L().Infof("Health server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.L().Errorf("Health server stopped: %v", err)
		}
	}()
}

// Shutdown 优雅停止服务
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
