package app

import (
	"net/http"
	"time"

	"base42/internal/cache"
	"base42/internal/config"
	"base42/internal/handlers"
	"base42/internal/middleware"
	"base42/internal/repo"
	"base42/internal/service"

	_ "base42/docs"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

// Setup registers all routes on the given engine. rdb may be nil.
func Setup(r *gin.Engine, cfg config.Config, log *logrus.Entry, todoRepo repo.TodoRepo, rdb *redis.Client) {
	r.GET("/", rootHandler(cfg))
	r.GET("/health", healthHandler())
	r.GET("/version", versionHandler(cfg))
	r.GET("/metrics", middleware.MetricsHandler())
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(http.StatusFound, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
	))

	api := r.Group("/api")

	var todoCache *cache.TodoCache
	if rdb != nil {
		todoCache = cache.NewTodoCache(rdb, cfg.Redis.DefaultTTL.Duration())
	}
	todoSvc := service.NewTodoService(todoRepo, todoCache)
	todoHandler := handlers.NewTodoHandler(todoSvc, log)
	registerTodoRoutes(api, todoHandler)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "Base42 Todo API",
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"store":   cfg.Store.Driver,
			"docs":    "/swagger/index.html",
			"openapi": "/swagger-doc.json",
			"health":  "/health",
			"api":     "/api/todos",
		})
	}
}

func healthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339Nano)})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
	}
}

func registerTodoRoutes(api *gin.RouterGroup, h *handlers.TodoHandler) {
	api.GET("/todos", h.List)
	api.POST("/todos", h.Create)
	api.GET("/todos/:id", h.GetByID)
	api.PUT("/todos/:id", h.Update)
	api.DELETE("/todos/:id", h.Delete)
	api.POST("/todos/:id/toggle", h.Toggle)
}
