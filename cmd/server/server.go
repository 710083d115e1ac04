package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/3Eeeecho/go-modelhub/internal/config"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-modelhub/internal/router"
	"github.com/3Eeeecho/go-modelhub/internal/setup"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	db          *gorm.DB
	redisClient *redis.Client
}

// NewServer 负责构建所有依赖
func NewServer(cfg *config.Config) (*Server, error) {
	// 初始化数据库连接
	db, err := setup.InitMySQL(&cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MySQL: %w", err)
	}

	// 初始化 Redis 连接（可选）
	redisClient, err := setup.InitRedis(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	// 初始化 Elasticsearch（可选）
	esClient, err := setup.InitElasticsearch(&cfg.Elasticsearch)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Elasticsearch: %w", err)
	}

	// 初始化模型文件存储
	storageService, err := setup.InitStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// 初始化 Gin 引擎和注册路由
	routerCfg := router.NewRouterConfig(db, redisClient, esClient, storageService, cfg)
	engine := router.InitRouter(routerCfg)

	addr := ":" + cfg.Server.Port
	logger.Info(fmt.Sprintf("Server is running on %s", addr))
	httpServer := &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	return &Server{
		router:      engine,
		httpServer:  httpServer,
		db:          db,
		redisClient: redisClient,
	}, nil
}

// Run 启动服务器并处理优雅关机
func (s *Server) Run(ctx context.Context, stopChan chan os.Signal) {
	defer setup.CloseMySQLDB(s.db)
	defer setup.CloseRedis(s.redisClient)

	// 启动 HTTP 服务器
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// 等待停止信号
	<-stopChan
	logger.Info("Shutting down server...")

	// 优雅关机
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited gracefully")
}
