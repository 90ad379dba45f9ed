package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/timmy/memeverse/internal/api/handler"
	"github.com/timmy/memeverse/internal/api/middleware"
	"github.com/timmy/memeverse/internal/config"
	"github.com/timmy/memeverse/internal/logger"
	"github.com/timmy/memeverse/internal/repository"
	"github.com/timmy/memeverse/internal/service"
	"github.com/timmy/memeverse/internal/source"
	"github.com/timmy/memeverse/internal/storage"
	"gorm.io/gorm"
)

// Dependencies bundles what the HTTP layer needs from the rest of the server.
type Dependencies struct {
	DB       *gorm.DB
	Catalog  *service.CatalogService
	Uploads  *service.UploadService
	Captions *service.CaptionService
	Ingest   *service.IngestService
	Jobs     *repository.JobRepository
	Store    storage.ImageStore
	Sources  map[string]source.Source
	Logger   *logger.Logger
}

// SetupRouter configures the Gin router with all routes.
// Parameters:
//   - deps: services and stores backing the handlers.
//   - cfg: full application configuration.
//
// Returns:
//   - *gin.Engine: configured router.
func SetupRouter(deps *Dependencies, cfg *config.Config) *gin.Engine {
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.Server.CORS))

	healthHandler := handler.NewHealthHandler(deps.DB)
	memeHandler := handler.NewMemeHandler(deps.Catalog)
	statsHandler := handler.NewStatsHandler(deps.Catalog)
	uploadHandler := handler.NewUploadHandler(deps.Uploads)
	captionHandler := handler.NewCaptionHandler(deps.Captions)
	fileHandler := handler.NewFileHandler(deps.Store)

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/files/*key", fileHandler.Get)

	v1 := r.Group("/api/v1")
	{
		// Feeds and search
		v1.GET("/memes", memeHandler.ListMemes)
		v1.GET("/memes/trending", memeHandler.Trending)
		v1.GET("/memes/search", memeHandler.SearchMemes)
		v1.GET("/memes/:id", memeHandler.GetMeme)

		// Engagement
		v1.POST("/memes/:id/like", memeHandler.LikeMeme)
		v1.POST("/memes/:id/comments", memeHandler.AddComment)

		// Metadata
		v1.GET("/categories", statsHandler.Categories)
		v1.GET("/stats", statsHandler.Stats)

		// Creation
		v1.POST("/upload", middleware.APIKey(cfg.Upload.APIKey, handler.RejectUnauthorized), uploadHandler.Upload)
		v1.POST("/captions", captionHandler.Generate)

		if deps.Ingest != nil {
			adminHandler := handler.NewAdminHandler(deps.Ingest, deps.Jobs, deps.Sources)
			admin := v1.Group("/admin", middleware.APIKey(cfg.Server.AdminKey, nil))
			admin.POST("/ingest", adminHandler.TriggerIngest)
			admin.GET("/ingest/status", adminHandler.GetIngestStatus)
			admin.GET("/jobs", adminHandler.ListJobs)
		}
	}

	return r
}
