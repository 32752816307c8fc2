package middleware

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/doroshenkokb/mini-social-network/internal/models"
	"github.com/doroshenkokb/mini-social-network/pkg/logger"
	"github.com/doroshenkokb/mini-social-network/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	currentUserKey = "currentUser"
	userIDKey      = logger.UserIDKey

	// SessionCookie holds the signed session token issued at login.
	SessionCookie = "session"

	// LoginPath is where anonymous visitors of protected pages are sent.
	LoginPath = "/auth/login/"
)

type AuthMiddleware struct {
	DB           *gorm.DB
	SecureCookie bool
}

func NewAuthMiddleware(db *gorm.DB, secureCookie bool) *AuthMiddleware {
	return &AuthMiddleware{DB: db, SecureCookie: secureCookie}
}

// Authenticate resolves the viewer from the session cookie or a bearer
// token. It never rejects a request: anonymous visitors pass through
// without a current user.
func (a *AuthMiddleware) Authenticate(c *fiber.Ctx) error {
	tokenString := sessionToken(c)
	if tokenString == "" {
		return c.Next()
	}

	claims, err := utils.ValidateToken(tokenString)
	if err != nil {
		logger.Warn("session_validation_failed", map[string]interface{}{
			"ip":    c.IP(),
			"path":  c.Path(),
			"error": err.Error(),
		})
		a.ClearSession(c)
		return c.Next()
	}

	var user models.User
	if err := a.DB.WithContext(c.UserContext()).First(&user, "id = ?", claims.UserID).Error; err != nil {
		logger.Warn("session_user_not_found", map[string]interface{}{
			"ip":      c.IP(),
			"path":    c.Path(),
			"user_id": claims.UserID,
		})
		a.ClearSession(c)
		return c.Next()
	}

	c.Locals(currentUserKey, &user)
	c.Locals(userIDKey, strconv.FormatUint(uint64(user.ID), 10))
	return c.Next()
}

func sessionToken(c *fiber.Ctx) string {
	if token := bearerToken(c); token != "" {
		return token
	}
	return c.Cookies(SessionCookie)
}

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
	if tokenString == authHeader {
		return ""
	}
	return tokenString
}

// HasBearerToken reports whether the request authenticates through the
// Authorization header instead of the session cookie.
func HasBearerToken(c *fiber.Ctx) bool {
	return bearerToken(c) != ""
}

// LoginRequired sends anonymous visitors to the login page with the
// requested path in ?next=.
func LoginRequired(c *fiber.Ctx) error {
	if GetCurrentUser(c) != nil {
		return c.Next()
	}
	return c.Redirect(LoginURL(c.OriginalURL()), fiber.StatusFound)
}

// LoginURL builds /auth/login/?next=<target> keeping slashes readable.
func LoginURL(target string) string {
	next := strings.ReplaceAll(url.QueryEscape(target), "%2F", "/")
	return LoginPath + "?next=" + next
}

// SiteManagers decides who may use the admin endpoints.
type SiteManagers interface {
	CanManageSite(user *models.User) bool
}

func AdminOnly(access SiteManagers) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetCurrentUser(c)
		if user == nil {
			return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
		}
		if !access.CanManageSite(user) {
			return utils.Error(c, fiber.StatusForbidden, "admin access required")
		}
		return c.Next()
	}
}

func GetCurrentUser(c *fiber.Ctx) *models.User {
	value := c.Locals(currentUserKey)
	if value == nil {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// StartSession issues a session token for user and stores it in the cookie.
func (a *AuthMiddleware) StartSession(c *fiber.Ctx, user *models.User) error {
	token, err := utils.GenerateToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(utils.TokenLifetime()),
		HTTPOnly: true,
		Secure:   a.SecureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

func (a *AuthMiddleware) ClearSession(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   a.SecureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// SafeNext accepts only local absolute paths as a post-login destination.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return ""
	}
	return next
}
