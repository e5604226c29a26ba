package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"github.com/lingora/lingora-backend/internal/config"
	"github.com/lingora/lingora-backend/internal/http/handlers"
	"github.com/lingora/lingora-backend/internal/http/middleware"
	"github.com/lingora/lingora-backend/internal/models"
	"github.com/lingora/lingora-backend/internal/service"
)

// Группы кэша ответов
const (
	cacheGroupProviders = "providers"
	cacheGroupSearch    = "search"
	cacheGroupCatalog   = "catalog"
)

// Handlers собирает все HTTP хэндлеры приложения.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Providers     *handlers.ProviderHandler
	Offerings     *handlers.OfferingHandler
	Staff         *handlers.StaffHandler
	Search        *handlers.SearchHandler
	Catalog       *handlers.CatalogHandler
	Contact       *handlers.ContactHandler
	Support       *handlers.SupportHandler
	Notes         *handlers.NoteHandler
	Notifications *handlers.NotificationHandler
	Health        *handlers.HealthHandler
	WS            *handlers.WSHandler
}

// Infra общие зависимости middleware.
type Infra struct {
	Tokens       middleware.AccessTokenParser
	Cache        service.ResponseCache
	LimiterStore limiter.Store
}

func SetupRouter(cfg *config.Config, h Handlers, infra Infra) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))

	auth := middleware.AuthMiddleware(infra.Tokens)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	providerOnly := middleware.RequireRole(models.RoleProvider)

	cacheOpts := middleware.CacheOptions{
		Prefix:       cfg.Cache.Prefix,
		TTL:          cfg.Cache.TTL,
		MaxBodyBytes: cfg.Cache.MaxBodyBytes,
	}
	cached := func(group string) gin.HandlerFunc {
		if !cfg.Cache.Enabled || infra.Cache == nil {
			return passThrough
		}
		return middleware.ResponseCache(infra.Cache, cacheOpts, group)
	}
	invalidate := passThrough
	if cfg.Cache.Enabled && infra.Cache != nil {
		invalidate = middleware.InvalidateCache(infra.Cache, cfg.Cache.Prefix, cacheGroupProviders, cacheGroupSearch)
	}
	limit := func(name string, n int64) gin.HandlerFunc {
		if n <= 0 || infra.LimiterStore == nil {
			return passThrough
		}
		return middleware.RateLimitMiddleware(infra.LimiterStore, name, n, cfg.RateLimitPeriod)
	}

	api := r.Group("/api")
	api.GET("/ws", h.WS.Handle)

	authGroup := api.Group("/auth")
	{
		public := authGroup.Group("/", limit("auth", cfg.RateLimitAuth))
		public.POST("/register", h.Auth.Register)
		public.POST("/login", h.Auth.Login)
		public.POST("/refresh", h.Auth.Refresh)
		public.POST("/logout", h.Auth.Logout)
		public.POST("/verify-email", h.Auth.VerifyEmail)
		public.POST("/forgot-password", h.Auth.ForgotPassword)
		public.POST("/reset-password", h.Auth.ResetPassword)

		protected := authGroup.Group("/", auth)
		protected.GET("/me", h.Auth.Me)
		protected.PUT("/change-password", h.Auth.ChangePassword)
		protected.GET("/sessions", h.Auth.ListSessions)
		protected.DELETE("/sessions/:id", middleware.UUIDValidator("id"), h.Auth.DeleteSession)
	}

	providers := api.Group("/providers")
	{
		providers.GET("", cached(cacheGroupProviders), h.Providers.ListPublic)
		providers.GET("/admin-data", auth, adminOnly, h.Providers.ListAdmin)
		providers.GET("/my", auth, providerOnly, h.Providers.GetMy)
		providers.GET("/:slug", cached(cacheGroupProviders), h.Providers.GetPublic)

		owner := providers.Group("/", auth, providerOnly, invalidate)
		owner.PUT("/my", h.Providers.UpdateMy)
		owner.PUT("/languages", h.Providers.ReplaceLanguages)
		owner.POST("/submit-for-approval", h.Providers.SubmitForApproval)
		owner.POST("/upload", h.Providers.Upload)
		owner.DELETE("/gallery/:imageId", middleware.UUIDValidator("imageId"), h.Providers.DeleteGalleryImage)

		admin := providers.Group("/", auth, adminOnly, invalidate)
		admin.PUT("/status/:id", middleware.UUIDValidator("id"), h.Providers.UpdateStatus)
		admin.PUT("/subscription/:id", middleware.UUIDValidator("id"), h.Providers.UpdateSubscription)
	}

	offerings := api.Group("/services", auth, providerOnly, invalidate)
	{
		offerings.GET("", h.Offerings.List)
		offerings.POST("", h.Offerings.Create)
		offerings.GET("/:id", middleware.UUIDValidator("id"), h.Offerings.Get)
		offerings.PUT("/:id", middleware.UUIDValidator("id"), h.Offerings.Update)
		offerings.DELETE("/:id", middleware.UUIDValidator("id"), h.Offerings.Delete)
	}

	staff := api.Group("/staff")
	{
		staff.GET("/contactable/:providerId", middleware.UUIDValidator("providerId"), h.Staff.ListContactable)

		owner := staff.Group("/", auth, providerOnly, invalidate)
		owner.GET("/my", h.Staff.ListMy)
		owner.POST("", h.Staff.Create)
		owner.GET("/:id", middleware.UUIDValidator("id"), h.Staff.Get)
		owner.PUT("/:id", middleware.UUIDValidator("id"), h.Staff.Update)
		owner.PUT("/contact-config/:id", middleware.UUIDValidator("id"), h.Staff.UpdateContactConfig)
		owner.DELETE("/:id", middleware.UUIDValidator("id"), h.Staff.Delete)
	}

	search := api.Group("/search", limit("search", cfg.RateLimitSearch), cached(cacheGroupSearch))
	{
		search.GET("", h.Search.Search)
		search.GET("/suggestions", h.Search.Suggestions)
	}

	api.GET("/categories", cached(cacheGroupCatalog), h.Catalog.ListCategories)
	api.GET("/categories/:slug", cached(cacheGroupCatalog), h.Catalog.GetCategory)
	api.GET("/languages", cached(cacheGroupCatalog), h.Catalog.ListLanguages)
	api.GET("/cities", h.Catalog.ListCities)

	api.POST("/contact", limit("contact", cfg.RateLimitContact), h.Contact.Send)

	support := api.Group("/support", auth)
	{
		support.GET("/categories", h.Support.Categories)
		support.GET("/list", h.Support.List)
		support.GET("/dashboard", h.Support.Dashboard)
		support.GET("/statistics", adminOnly, h.Support.Statistics)
		support.POST("", h.Support.Create)
		support.POST("/bulk", adminOnly, h.Support.Bulk)
		support.GET("/attachments/:id", middleware.UUIDValidator("id"), h.Support.DownloadAttachment)
		support.GET("/:id", middleware.UUIDValidator("id"), h.Support.Get)
		support.POST("/:id/respond", middleware.UUIDValidator("id"), h.Support.Respond)
		support.PUT("/:id/status", middleware.UUIDValidator("id"), h.Support.UpdateStatus)
		support.PUT("/:id/assign", middleware.UUIDValidator("id"), adminOnly, h.Support.Assign)
		support.POST("/:id/attachments", middleware.UUIDValidator("id"), h.Support.UploadAttachment)
	}

	notes := api.Group("/admin/notes", auth, adminOnly)
	{
		notes.GET("/:contextType/:contextId", middleware.UUIDValidator("contextId"), h.Notes.List)
		notes.POST("/:contextType/:contextId", middleware.UUIDValidator("contextId"), h.Notes.Create)
	}

	notifications := api.Group("/notifications", auth)
	{
		notifications.GET("", h.Notifications.ListNotifications)
		notifications.GET("/unread/count", h.Notifications.CountUnread)
		notifications.PUT("/read-all", h.Notifications.MarkAllAsRead)
		notifications.PUT("/:id/read", middleware.UUIDValidator("id"), h.Notifications.MarkAsRead)
	}

	return r
}

func passThrough(c *gin.Context) {
	c.Next()
}
