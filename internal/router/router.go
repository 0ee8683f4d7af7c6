package router

import (
	"net/http"

	"github.com/blues/fundmagic/internal/auth"
	"github.com/blues/fundmagic/internal/cache"
	"github.com/blues/fundmagic/internal/config"
	"github.com/blues/fundmagic/internal/handler"
	"github.com/blues/fundmagic/internal/logic"
	"github.com/blues/fundmagic/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Setup 注册所有路由，rdb 为 nil 时不启用分类缓存
func Setup(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RequestLogger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(cfg.Server.CORSOrigins))

	var counts logic.CountCache
	if rdb != nil {
		counts = cache.NewCategoryCache(rdb, cfg.Redis.CategoryCacheTTL())
	}

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL())
	userLogic := logic.NewUserLogic(db, tokens)
	projectLogic := logic.NewProjectLogic(db, counts)
	backingLogic := logic.NewBackingLogic(db)
	categoryLogic := logic.NewCategoryLogic(db, counts)

	authHandler := handler.NewAuthHandler(userLogic)
	projectHandler := handler.NewProjectHandler(projectLogic)
	backingHandler := handler.NewBackingHandler(backingLogic)
	userHandler := handler.NewUserHandler(userLogic, projectLogic, backingLogic)
	categoryHandler := handler.NewCategoryHandler(categoryLogic, projectHandler)

	requireAuth := middleware.RequireAuth(userLogic)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		// 健康检查
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"service": "fundmagic",
			})
		})

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authHandler.Logout)
		}

		projects := api.Group("/projects")
		{
			projects.GET("/", projectHandler.GetProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.POST("/", requireAuth, projectHandler.CreateProject)
			projects.PUT("/:id", requireAuth, projectHandler.UpdateProject)
			projects.DELETE("/:id", requireAuth, projectHandler.DeleteProject)
			projects.POST("/:id/publish", requireAuth, projectHandler.PublishProject)
			projects.PATCH("/:id/story", requireAuth, projectHandler.UpdateStory)
			projects.POST("/:id/updates", requireAuth, projectHandler.AddUpdate)
			projects.POST("/:id/comments", requireAuth, projectHandler.AddComment)
		}

		backing := api.Group("/backing", requireAuth)
		{
			backing.POST("/", backingHandler.CreateBacking)
			backing.GET("/project/:id", backingHandler.GetProjectBackings)
		}

		users := api.Group("/users")
		{
			users.GET("/profile", requireAuth, userHandler.GetProfile)
			users.PUT("/profile", requireAuth, userHandler.UpdateProfile)
			users.GET("/created", requireAuth, userHandler.GetCreatedProjects)
			users.GET("/backed", requireAuth, userHandler.GetBackedProjects)
			users.GET("/:id", userHandler.GetUser)
		}

		categories := api.Group("/categories")
		{
			categories.GET("/", categoryHandler.GetCategories)
			categories.GET("/:id/projects", categoryHandler.GetCategoryProjects)
		}
	}

	return r
}

// corsMiddleware 跨域配置，未配置来源时允许所有来源
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"},
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
