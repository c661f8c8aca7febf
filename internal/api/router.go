package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/photoshare/internal/api/handlers"
	"github.com/your-org/photoshare/internal/auth"
	"github.com/your-org/photoshare/internal/pipeline"
	"github.com/your-org/photoshare/internal/queue"
	"github.com/your-org/photoshare/internal/recognition"
	"github.com/your-org/photoshare/internal/storage"
)

type RouterConfig struct {
	APIKey      string
	DB          *storage.PostgresStore
	MinIO       *storage.MinIOStore
	Producer    *queue.Producer
	Recognition *recognition.Client
	Ingestor    *pipeline.Ingestor
	Sharer      *pipeline.Sharer
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.DB, cfg.MinIO, cfg.Producer, cfg.Recognition)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(auth.APIKeyMiddleware(cfg.APIKey))

	// Users
	userH := handlers.NewUserHandler(cfg.DB, cfg.Recognition)
	v1.POST("/users", userH.Register)
	v1.GET("/users", userH.List)
	v1.GET("/users/:id", userH.Get)

	// Groups & batch uploads
	groupH := handlers.NewGroupHandler(cfg.DB, cfg.Ingestor)
	authed := v1.Group("")
	authed.Use(auth.RequireUser())
	authed.POST("/groups", groupH.UploadBatch)
	authed.GET("/groups", groupH.List)
	authed.GET("/groups/:id", groupH.Get)
	authed.POST("/groups/:id/members", groupH.AddMembers)
	authed.GET("/groups/:id/photos", groupH.ListPhotos)

	// Photo serving
	photoH := handlers.NewPhotoHandler(cfg.DB, cfg.MinIO)
	authed.GET("/photos/:id/image", photoH.Image)

	// Instant shares
	shareH := handlers.NewShareHandler(cfg.DB, cfg.MinIO, cfg.Sharer)
	authed.POST("/shares", shareH.Create)
	authed.GET("/shares/received", shareH.ListReceived)
	authed.GET("/shares/sent", shareH.ListSent)
	authed.GET("/shares/:id/image", shareH.Image)
	authed.POST("/shares/:id/viewed", shareH.MarkViewed)

	return r
}
