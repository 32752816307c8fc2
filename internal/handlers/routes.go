package handlers

import (
	"github.com/doroshenkokb/mini-social-network/internal/cache"
	"github.com/doroshenkokb/mini-social-network/internal/middleware"
	"github.com/doroshenkokb/mini-social-network/internal/services"
	"github.com/doroshenkokb/mini-social-network/internal/storage"
	"github.com/doroshenkokb/mini-social-network/internal/views"
	"github.com/doroshenkokb/mini-social-network/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

const (
	// CSRFCookie carries the double-submit token; forms echo it in CSRFField.
	CSRFCookie     = "csrftoken"
	CSRFField      = "csrfmiddlewaretoken"
	csrfContextKey = "csrf"
)

// Deps is everything the web app needs from the outside.
type Deps struct {
	DB            *gorm.DB
	Images        storage.ImageStore
	Cache         *cache.PageCache
	SecureCookie  bool
	PerPage       int
	MaxImageBytes int64
	BodyLimitMB   int
}

// NewApp builds the fiber app with every page and admin route mounted.
func NewApp(deps Deps) *fiber.App {
	if deps.Cache == nil {
		deps.Cache = cache.NewMemory(cache.DefaultTTL)
	}
	bodyLimit := deps.BodyLimitMB
	if bodyLimit < 1 {
		bodyLimit = 10
	}

	app := fiber.New(fiber.Config{
		BodyLimit:             bodyLimit * 1024 * 1024,
		Views:                 views.New(),
		ViewsLayout:           views.DefaultLayout,
		UnescapePath:          true,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	Mount(app, deps)
	return app
}

func Mount(app fiber.Router, deps Deps) {
	postService := services.NewPostService(deps.DB, deps.Images, deps.PerPage)
	if deps.MaxImageBytes > 0 {
		postService.MaxImageBytes = deps.MaxImageBytes
	}
	groupService := services.NewGroupService(deps.DB)
	userService := services.NewUserService(deps.DB, deps.Images)
	followService := services.NewFollowService(deps.DB)
	accessService := services.NewAccessService()

	authMiddleware := middleware.NewAuthMiddleware(deps.DB, deps.SecureCookie)

	postsHandler := NewPostsHandler(postService, groupService, accessService)
	profileHandler := NewProfileHandler(postService, userService, followService)
	authHandler := NewAuthHandler(userService, authMiddleware)
	adminHandler := NewAdminHandler(groupService, userService, deps.Cache)
	mediaHandler := NewMediaHandler(deps.Images)
	healthHandler := &HealthHandler{DB: deps.DB, Cache: deps.Cache}

	app.Get("/health", healthHandler.Check)

	app.Use(authMiddleware.Authenticate)
	csrfCheck := csrfProtection(deps.SecureCookie)

	// The admin API answers 401/403 before the form token is looked at.
	adminRoutes := app.Group("/admin", middleware.AdminOnly(accessService), csrfCheck)
	adminRoutes.Post("/cache/clear", adminHandler.ClearCache)
	adminRoutes.Get("/groups", adminHandler.ListGroups)
	adminRoutes.Post("/groups", adminHandler.CreateGroup)
	adminRoutes.Delete("/groups/:slug", adminHandler.DeleteGroup)
	adminRoutes.Delete("/users/:username", adminHandler.DeleteUser)

	app.Use(csrfCheck)

	app.Get("/", deps.Cache.Middleware(), postsHandler.Index)
	app.Get("/group/:slug/", postsHandler.GroupPosts)
	app.Get("/posts/:id/", postsHandler.Detail)
	app.Get("/media/*", mediaHandler.Serve)

	app.Get("/profile/:username/", profileHandler.Profile)
	app.Get("/profile/:username/follow/", middleware.LoginRequired, profileHandler.ConfirmFollow)
	app.Post("/profile/:username/follow/", middleware.LoginRequired, profileHandler.Follow)
	app.Get("/profile/:username/unfollow/", middleware.LoginRequired, profileHandler.ConfirmFollow)
	app.Post("/profile/:username/unfollow/", middleware.LoginRequired, profileHandler.Unfollow)
	app.Get("/follow/", middleware.LoginRequired, profileHandler.FollowIndex)

	app.Get("/create/", middleware.LoginRequired, postsHandler.CreateForm)
	app.Post("/create/", middleware.LoginRequired, postsHandler.Create)
	app.Get("/posts/:id/edit/", middleware.LoginRequired, postsHandler.EditForm)
	app.Post("/posts/:id/edit/", middleware.LoginRequired, postsHandler.Edit)
	app.Post("/posts/:id/comment/", middleware.LoginRequired, postsHandler.AddComment)

	authRoutes := app.Group("/auth")
	authRoutes.Get("/login/", authHandler.LoginForm)
	authRoutes.Post("/login/", authHandler.Login)
	authRoutes.Get("/signup/", authHandler.SignupForm)
	authRoutes.Post("/signup/", authHandler.Signup)
	authRoutes.Get("/logout/", authHandler.Logout)
	authRoutes.Post("/logout/", authHandler.Logout)

}

// csrfProtection checks the form token on every unsafe request made with the
// session cookie. Bearer-authenticated API calls carry no ambient credentials
// and skip it.
func csrfProtection(secure bool) fiber.Handler {
	return csrf.New(csrf.Config{
		KeyLookup:      "form:" + CSRFField,
		CookieName:     CSRFCookie,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		CookieHTTPOnly: true,
		CookieSecure:   secure,
		ContextKey:     csrfContextKey,
		Next: func(c *fiber.Ctx) bool {
			return middleware.HasBearerToken(c)
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			logger.Warn("csrf_rejected", map[string]interface{}{
				"path":   c.Path(),
				"method": c.Method(),
				"reason": err.Error(),
			})
			return fiber.ErrForbidden
		},
	})
}
