package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/univ-archive/internal/middleware"
	"github.com/noah-isme/univ-archive/internal/service"
	"github.com/noah-isme/univ-archive/pkg/logger"
	corsmiddleware "github.com/noah-isme/univ-archive/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/univ-archive/pkg/middleware/requestid"
)

// RouterConfig controls route mounting.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
}

// Handlers groups every HTTP handler mounted by NewRouter.
type Handlers struct {
	Catalog *CatalogHandler
	Files   *FileHandler
	Admin   *AdminHandler
	Metrics *MetricsHandler
	Auth    middleware.TokenValidator
}

// NewRouter builds the gin engine with the archive routes.
func NewRouter(cfg RouterConfig, logr *zap.Logger, metrics *service.MetricsService, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/metrics"))

	r.GET("/metrics", h.Metrics.Prometheus)
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := "/" + strings.Trim(cfg.APIPrefix, "/")
	if prefix == "/" {
		prefix = "/api"
	}
	api := r.Group(prefix)
	api.GET("/health", h.Metrics.Health)

	catalog := api.Group("/")
	catalog.Use(middleware.CatalogListing())
	catalog.GET("/semesters", h.Catalog.ListSemesters)
	catalog.GET("/semesters/:semesterId/types", h.Catalog.ListTypes)
	catalog.GET("/semesters/:semesterId/types/:typeId/subjects", h.Catalog.ListSubjects)
	catalog.GET("/semesters/:semesterId/types/:typeId/subjects/:subjectId/years", h.Catalog.ListYears)

	api.GET("/years/:yearId/files", h.Files.ListByYear)
	api.GET("/files/:id/view", h.Files.View)
	api.GET("/files/:id/download", h.Files.Download)
	api.GET("/files/:id/share", h.Files.Share)
	api.GET("/shared/:token", h.Files.Shared)

	api.POST("/admin/login", h.Admin.Login)

	admin := api.Group("/")
	admin.Use(middleware.AdminJWT(h.Auth))
	admin.POST("/upload", h.Files.Upload)
	admin.PUT("/files/:id", h.Files.Update)
	admin.DELETE("/files/:id", h.Files.Delete)
	admin.GET("/admin/files", h.Files.ListAdmin)
	admin.GET("/admin/stats", h.Admin.Stats)
	admin.GET("/admin/stats/export", h.Admin.ExportStats)

	return r
}
