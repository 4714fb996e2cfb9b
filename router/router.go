package router

import (
	"Next_Express/internal/handler"
	"Next_Express/internal/metrics"
	"Next_Express/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Backend is one record store's pair of handlers.
type Backend struct {
	Users *handler.UserHandler
	Files *handler.FileHandler
}

// Options carries everything the route table needs.
type Options struct {
	Relational   Backend
	KeyValue     Backend
	Blobs        *handler.BlobHandler
	Health       *handler.HealthHandler
	Metrics      *metrics.Registry
	Logger       *zap.Logger
	AuthRequired bool
	CORSOrigins  []string
}

// InitRouter builds API routes.
func InitRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(utils.RequestLogger(opts.Logger))
	r.Use(opts.Metrics.Middleware())
	r.Use(utils.CORSMiddleware(opts.CORSOrigins))

	r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	r.GET("/healthz", opts.Health.Health)
	r.GET("/blobs", opts.Blobs.Signed)
	r.GET("/public/*key", opts.Blobs.Public)

	auth := utils.AuthMiddleware(opts.AuthRequired)
	for _, base := range []*gin.RouterGroup{r.Group(""), r.Group("/api")} {
		mountUsers(base.Group("/users"), opts.Relational.Users, auth)
		mountUsers(base.Group("/dynamo-users"), opts.KeyValue.Users, auth)
		mountFiles(base.Group("/files"), opts.Relational.Files, auth)
		mountFiles(base.Group("/dynamo-files"), opts.KeyValue.Files, auth)
	}
	return r
}

func mountUsers(g *gin.RouterGroup, h *handler.UserHandler, auth gin.HandlerFunc) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", auth, h.Create)
	g.PUT("/:id", auth, h.Update)
	g.DELETE("/:id", auth, h.Delete)
}

func mountFiles(g *gin.RouterGroup, h *handler.FileHandler, auth gin.HandlerFunc) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", auth, h.Upload)
	g.DELETE("/:id", auth, h.Delete)
}
