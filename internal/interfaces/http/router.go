// Package http exposes the helpdesk over a JSON API.
package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/helpdesk/internal/application/session"
	ticketApp "github.com/orris-inc/helpdesk/internal/application/ticket"
	"github.com/orris-inc/helpdesk/internal/domain/profile"
	domainTicket "github.com/orris-inc/helpdesk/internal/domain/ticket"
	"github.com/orris-inc/helpdesk/internal/infrastructure/auth"
	"github.com/orris-inc/helpdesk/internal/infrastructure/config"
	"github.com/orris-inc/helpdesk/internal/infrastructure/permission"
	"github.com/orris-inc/helpdesk/internal/infrastructure/ratelimit"
	"github.com/orris-inc/helpdesk/internal/interfaces/http/handlers"
	ticketHandlers "github.com/orris-inc/helpdesk/internal/interfaces/http/handlers/ticket"
	"github.com/orris-inc/helpdesk/internal/interfaces/http/middleware"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
	"github.com/orris-inc/helpdesk/internal/shared/utils"
)

// MessageReader looks up a single message for attachment ownership checks.
type MessageReader interface {
	GetByID(ctx context.Context, id string) (*domainTicket.Message, error)
}

// Deps are the application services the router serves. RateLimiter is nil
// when Redis is disabled.
type Deps struct {
	Auth        *auth.Service
	Profiles    profile.Repository
	Resolver    *session.ProfileResolver
	Aggregator  *ticketApp.Aggregator
	Tickets     domainTicket.TicketRepository
	Messages    MessageReader
	Enforcer    middleware.PolicyEnforcer
	RateLimiter ratelimit.RateLimiter
	Renderer    ticketHandlers.ContentRenderer
}

// Router represents the HTTP router configuration
type Router struct {
	engine *gin.Engine
	logger logger.Interface

	authHandler       *handlers.AuthHandler
	profileHandler    *handlers.ProfileHandler
	navigationHandler *handlers.NavigationHandler
	ticketHandler     *ticketHandlers.TicketHandler
	attachmentHandler *ticketHandlers.AttachmentHandler

	authMiddleware       *middleware.AuthMiddleware
	profileMiddleware    *middleware.ProfileMiddleware
	permissionMiddleware *middleware.PermissionMiddleware
	rateLimiter          *middleware.RateLimiter
}

func NewRouter(deps Deps, cfg *config.Config, log logger.Interface) *Router {
	log = log.Named("http")
	maxUpload := int64(cfg.Server.MaxUploadMB) << 20

	engine := gin.New()
	if maxUpload > 0 {
		engine.MaxMultipartMemory = maxUpload
	}

	r := &Router{
		engine: engine,
		logger: log,

		authHandler:       handlers.NewAuthHandler(deps.Auth, deps.Resolver, log),
		profileHandler:    handlers.NewProfileHandler(deps.Profiles, log),
		navigationHandler: handlers.NewNavigationHandler(),
		ticketHandler:     ticketHandlers.NewTicketHandler(deps.Aggregator.Executors(), deps.Enforcer, deps.Renderer, maxUpload, log),
		attachmentHandler: ticketHandlers.NewAttachmentHandler(deps.Messages, deps.Tickets, deps.Aggregator.Executors().UploadAttachment, maxUpload, log),

		authMiddleware:       middleware.NewAuthMiddleware(deps.Auth, log),
		profileMiddleware:    middleware.NewProfileMiddleware(deps.Profiles, deps.Resolver, log),
		permissionMiddleware: middleware.NewPermissionMiddleware(deps.Enforcer, log),
	}

	if deps.RateLimiter != nil {
		r.rateLimiter = middleware.NewRateLimiter(deps.RateLimiter, ratelimit.Config{
			RequestsPerMinute: cfg.Auth.RateLimit.PerMinute,
			RequestsPerHour:   cfg.Auth.RateLimit.PerHour,
		}, log)
	}

	return r
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes(cfg *config.Config) {
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.CustomLogger(r.logger))
	r.engine.Use(middleware.Recovery(r.logger))
	r.engine.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.engine.Use(middleware.SecurityHeaders())

	r.engine.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, http.StatusOK, "", gin.H{"status": "ok"})
	})

	api := r.engine.Group("/api")
	r.setupAuthRoutes(api)
	r.setupNavigationRoutes(api)
	r.setupProfileRoutes(api)
	r.setupTicketRoutes(api)
}

func (r *Router) setupAuthRoutes(api *gin.RouterGroup) {
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", r.rateLimiter.Limit("auth:signup"), r.authHandler.SignUp)
		authGroup.POST("/signin", r.rateLimiter.Limit("auth:signin"), r.authHandler.SignIn)
		authGroup.POST("/refresh", r.authHandler.Refresh)
		authGroup.POST("/password-reset", r.rateLimiter.Limit("auth:password-reset"), r.authHandler.RequestPasswordReset)
		authGroup.POST("/password-reset/confirm", r.rateLimiter.Limit("auth:password-reset"), r.authHandler.ConfirmPasswordReset)
		authGroup.POST("/signout", r.authMiddleware.RequireAuth(), r.authHandler.SignOut)
	}
}

func (r *Router) setupNavigationRoutes(api *gin.RouterGroup) {
	api.GET("/navigation",
		r.authMiddleware.OptionalAuth(),
		r.profileMiddleware.OptionalProfile(),
		r.navigationHandler.Decide,
	)
}

func (r *Router) setupProfileRoutes(api *gin.RouterGroup) {
	profileGroup := api.Group("/profile")
	profileGroup.Use(r.authMiddleware.RequireAuth(), r.profileMiddleware.RequireProfile())
	{
		profileGroup.GET("", r.permissionMiddleware.RequirePermission(permission.ResourceProfile, permission.ActionRead), r.profileHandler.GetProfile)
		profileGroup.PATCH("", r.permissionMiddleware.RequirePermission(permission.ResourceProfile, permission.ActionUpdate), r.profileHandler.UpdateProfile)
	}
}

func (r *Router) setupTicketRoutes(api *gin.RouterGroup) {
	protected := api.Group("")
	protected.Use(r.authMiddleware.RequireAuth(), r.profileMiddleware.RequireProfile())

	tickets := protected.Group("/tickets")
	{
		tickets.GET("", r.permissionMiddleware.RequirePermission(permission.ResourceTicket, permission.ActionRead), r.ticketHandler.ListTickets)
		tickets.POST("", r.permissionMiddleware.RequirePermission(permission.ResourceTicket, permission.ActionCreate), r.ticketHandler.CreateTicket)
		tickets.GET("/:id", r.permissionMiddleware.RequirePermission(permission.ResourceTicket, permission.ActionRead), r.ticketHandler.GetTicket)
		tickets.PATCH("/:id", r.permissionMiddleware.RequirePermission(permission.ResourceTicket, permission.ActionUpdate), r.ticketHandler.UpdateTicket)
		tickets.POST("/:id/messages", r.permissionMiddleware.RequirePermission(permission.ResourceMessage, permission.ActionCreate), r.ticketHandler.Reply)
	}

	protected.POST("/messages/:id/attachments",
		r.permissionMiddleware.RequirePermission(permission.ResourceAttachment, permission.ActionCreate),
		r.attachmentHandler.Upload,
	)
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
