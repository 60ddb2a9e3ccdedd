package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"conduit/internal/logger"
	"conduit/internal/models"
	"conduit/internal/service"
)

// Authenticator resolves the Authorization header into the calling user.
// With required=false an absent header yields (nil, nil).
type Authenticator interface {
	Resolve(ctx context.Context, header string, required bool) (*models.LoggedInUser, error)
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	identity Authenticator
	log      *logger.Logger

	healthCheck  func(ctx context.Context) error
	feedInterval time.Duration
	feedPageSize int
}

// Option configures optional Handler dependencies.
type Option func(*Handler)

// WithHealthCheck sets the probe /health runs, usually a DB ping.
func WithHealthCheck(check func(ctx context.Context) error) Option {
	return func(h *Handler) { h.healthCheck = check }
}

// WithFeedStream sets the default push interval and page size of /api/feed/ws.
func WithFeedStream(interval time.Duration, pageSize int) Option {
	return func(h *Handler) {
		if interval > 0 {
			h.feedInterval = interval
		}
		if pageSize > 0 {
			h.feedPageSize = pageSize
		}
	}
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, identity Authenticator, log *logger.Logger, opts ...Option) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	h := &Handler{
		services:     services,
		identity:     identity,
		log:          log,
		feedInterval: defaultInterval,
		feedPageSize: service.DefaultPageLimit,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestMetrics)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health endpoint
	router.GET("/health", h.health)

	api := router.Group("/api")
	{
		h.registerUserRoutes(api)
		h.registerProfileRoutes(api)
		h.registerArticleRoutes(api)
		api.GET("/tags", h.listTags)
		// Live feed over WebSocket (HTTP upgrade) on the same port
		api.GET("/feed/ws", h.requireUser, h.feedStream)
	}

	return router
}

func (h *Handler) registerUserRoutes(api *gin.RouterGroup) {
	api.POST("/users", h.register)
	api.POST("/users/login", h.login)

	user := api.Group("/user", h.requireUser)
	{
		user.GET("", h.getCurrentUser)
		user.PUT("", h.updateCurrentUser)
	}
}

func (h *Handler) registerProfileRoutes(api *gin.RouterGroup) {
	profiles := api.Group("/profiles/:username")
	{
		profiles.GET("", h.optionalUser, h.getProfile)
		profiles.POST("/follow", h.requireUser, h.followUser)
		profiles.DELETE("/follow", h.requireUser, h.unfollowUser)
	}
}

func (h *Handler) registerArticleRoutes(api *gin.RouterGroup) {
	articles := api.Group("/articles")
	{
		articles.GET("", h.optionalUser, h.listArticles)
		articles.GET("/feed", h.requireUser, h.feedArticles)
		articles.POST("", h.requireUser, h.createArticle)
		articles.GET("/:slug", h.optionalUser, h.getArticle)
		articles.PUT("/:slug", h.requireUser, h.updateArticle)
		articles.DELETE("/:slug", h.requireUser, h.deleteArticle)

		articles.POST("/:slug/favorite", h.requireUser, h.favoriteArticle)
		articles.DELETE("/:slug/favorite", h.requireUser, h.unfavoriteArticle)

		articles.GET("/:slug/comments", h.optionalUser, h.listComments)
		articles.POST("/:slug/comments", h.requireUser, h.addComment)
		articles.DELETE("/:slug/comments/:id", h.requireUser, h.deleteComment)
	}
}
