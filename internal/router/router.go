// Package router assembles the HTTP surface of the marketplace API.
package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/findmyteacher-api/internal/handler"
	"github.com/noah-isme/findmyteacher-api/internal/middleware"
	"github.com/noah-isme/findmyteacher-api/internal/models"
	"github.com/noah-isme/findmyteacher-api/internal/service"
	"github.com/noah-isme/findmyteacher-api/pkg/config"
	appErrors "github.com/noah-isme/findmyteacher-api/pkg/errors"
	"github.com/noah-isme/findmyteacher-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/findmyteacher-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/findmyteacher-api/pkg/middleware/requestid"
	"github.com/noah-isme/findmyteacher-api/pkg/response"
)

type sessionResolver interface {
	Resolve(token string) (*models.Session, error)
}

// Dependencies carries everything the routes need.
type Dependencies struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *service.MetricsService
	Sessions sessionResolver

	Listings     *handler.ListingHandler
	SessionsHTTP *handler.SessionHandler
	Chats        *handler.ChatHandler
	Ops          *handler.MetricsHandler
}

// New builds the gin engine with the shared middleware chain and every route.
func New(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", deps.Ops.Health)
	r.GET("/ready", deps.Ops.Ready)
	r.GET("/metrics", deps.Ops.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	teachers := api.Group("/teachers")
	teachers.GET("", deps.Listings.List)
	teachers.GET("/facets", deps.Listings.Facets)
	teachers.GET("/export", deps.Listings.Export)
	teachers.GET("/:id", deps.Listings.Get)

	api.POST("/sessions", deps.SessionsHTTP.Start)

	authed := api.Group("")
	authed.Use(middleware.Session(deps.Sessions))
	authed.GET("/sessions/current", deps.SessionsHTTP.Current)
	authed.DELETE("/sessions/current", deps.SessionsHTTP.End)

	chats := authed.Group("/chats")
	chats.GET("", deps.Chats.Sidebar)
	chats.GET("/active", deps.Chats.Active)
	chats.PUT("/active", deps.Chats.Select)
	chats.GET("/:id", deps.Chats.Get)
	chats.POST("/:id/messages", deps.Chats.Send)

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	})

	return r
}
