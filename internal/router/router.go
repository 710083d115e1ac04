package router

import (
	"net/http"

	_ "github.com/3Eeeecho/go-modelhub/docs"
	"github.com/3Eeeecho/go-modelhub/internal/config"
	"github.com/3Eeeecho/go-modelhub/internal/handlers"
	"github.com/3Eeeecho/go-modelhub/internal/middlewares"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/cache"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/storage"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-modelhub/internal/repositories"
	"github.com/3Eeeecho/go-modelhub/internal/services/admin"
	"github.com/3Eeeecho/go-modelhub/internal/services/catalog"
	"github.com/3Eeeecho/go-modelhub/internal/services/share"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// RouterConfig 包含初始化路由所需的所有依赖
type RouterConfig struct {
	db             *gorm.DB
	redisClient    *redis.Client
	esClient       *elasticsearch.Client
	storageService storage.StorageService
	cfg            *config.Config
}

func NewRouterConfig(db *gorm.DB, redisClient *redis.Client, esClient *elasticsearch.Client, storageService storage.StorageService, cfg *config.Config) *RouterConfig {
	return &RouterConfig{
		db:             db,
		redisClient:    redisClient,
		esClient:       esClient,
		storageService: storageService,
		cfg:            cfg,
	}
}

func InitRouter(routerCfg *RouterConfig) *gin.Engine {
	router := gin.Default() // 使用默认的 Gin 引擎，包含 Logger 和 Recovery 中间件

	// 组装各层依赖
	userRepo := repositories.NewUserRepository(routerCfg.db)
	categoryRepo := repositories.NewCategoryRepository(routerCfg.db)
	tagRepo := repositories.NewTagRepository(routerCfg.db)
	shareRepo := repositories.NewShareLinkRepository(routerCfg.db)

	var modelRepo repositories.ModelRepository = repositories.NewModelRepository(routerCfg.db)
	if routerCfg.redisClient != nil {
		cacheService := cache.NewRedisCache(routerCfg.redisClient)
		modelRepo = repositories.NewCachedModelRepository(modelRepo, cacheService)
	}

	var indexer catalog.ModelIndexer
	if routerCfg.esClient != nil {
		indexer = catalog.NewESModelIndexer(routerCfg.esClient, routerCfg.cfg.Elasticsearch.ModelIndexName())
	} else {
		indexer = catalog.NewNoopModelIndexer()
	}

	authService := admin.NewAuthService(userRepo, routerCfg.cfg)
	modelService := catalog.NewModelService(modelRepo, tagRepo, categoryRepo, routerCfg.storageService, indexer, routerCfg.cfg)
	categoryService := catalog.NewCategoryService(categoryRepo)
	tagService := catalog.NewTagService(tagRepo)
	shareService := share.NewShareService(shareRepo, modelRepo, routerCfg.cfg)

	authHandler := handlers.NewAuthHandler(authService)
	modelHandler := handlers.NewModelHandler(modelService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	tagHandler := handlers.NewTagHandler(tagService)
	shareHandler := handlers.NewShareHandler(shareService)
	viewerHandler := handlers.NewViewerHandler(shareService)

	// Health Check 路由
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/status", func(c *gin.Context) {
		xerr.Success(c, http.StatusOK, "服务运行正常", gin.H{"service": "go-modelhub"})
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		// 认证相关路由 (无需认证)
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/profile", middlewares.AuthMiddleware(routerCfg.cfg), authHandler.Profile)
		}

		// 目录读取无需认证
		v1.GET("/models", modelHandler.List)
		v1.GET("/models/search", modelHandler.Search)
		v1.GET("/models/:id", modelHandler.Get)
		v1.GET("/categories", categoryHandler.List)
		v1.GET("/categories/:id", categoryHandler.Get)
		v1.GET("/tags", tagHandler.List)
		v1.GET("/tags/:id", tagHandler.Get)

		// 需要认证的写操作
		authenticated := v1.Group("/")
		authenticated.Use(middlewares.AuthMiddleware(routerCfg.cfg))
		{
			authenticated.POST("/models", modelHandler.Upload)
			authenticated.PUT("/models/:id", modelHandler.Update)
			authenticated.DELETE("/models/:id", modelHandler.Delete)

			authenticated.POST("/categories", categoryHandler.Create)
			authenticated.PUT("/categories/:id", categoryHandler.Update)
			authenticated.DELETE("/categories/:id", categoryHandler.Delete)

			authenticated.POST("/tags", tagHandler.Create)
			authenticated.PUT("/tags/:id", tagHandler.Update)
			authenticated.DELETE("/tags/:id", tagHandler.Delete)
		}
	}

	// 分享生命周期路由
	shared := router.Group("/api/shared")
	{
		// 公开的查看器页面
		shared.GET("/view/:authKey", viewerHandler.View)

		withAuth := shared.Group("/")
		withAuth.Use(middlewares.AuthMiddleware(routerCfg.cfg))
		{
			withAuth.POST("/generate/:modelId", shareHandler.Generate)
			withAuth.POST("/disable/:modelId", shareHandler.Disable)
			withAuth.GET("/status/:modelId", shareHandler.Status)
			withAuth.GET("/my-shares", shareHandler.MyShares)
		}
	}

	// 查看器数据路由，用分享密钥而不是 Bearer 认证
	view := router.Group("/api/view")
	view.Use(middlewares.ShareKeyMiddleware(shareService))
	{
		view.GET("/:id/model", modelHandler.Content)
		view.GET("/:id/info", modelHandler.Info)
	}

	router.NoRoute(func(c *gin.Context) {
		xerr.Error(c, http.StatusNotFound, http.StatusNotFound, "Route not found")
	})

	return router
}
