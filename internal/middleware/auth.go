package middleware

import (
	"net/url"
	"strings"

	"myblog/internal/auth"
	"myblog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Authenticate resolves the caller from an "Authorization: Bearer" header or
// the session cookie and stores "userID" and "claims" in locals. Requests
// without a valid token continue anonymously.
func Authenticate(tokens *auth.TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			tokenString = c.Cookies(auth.CookieName)
		}
		if tokenString == "" {
			return c.Next()
		}

		claims, err := tokens.Parse(c.UserContext(), tokenString)
		if err != nil {
			return c.Next()
		}
		userID, err := claims.UserID()
		if err != nil {
			return c.Next()
		}

		c.Locals("userID", userID)
		c.Locals("claims", claims)
		c.SetUserContext(WithUserID(c.UserContext(), userID))
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	parts := strings.Split(c.Get(fiber.HeaderAuthorization), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// CurrentUserID returns the authenticated user, if any.
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	uid, ok := c.Locals("userID").(uint)
	return uid, ok
}

// CurrentClaims returns the parsed token of the authenticated user.
func CurrentClaims(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals("claims").(*auth.Claims)
	return claims
}

// APIAuthRequired rejects anonymous API calls with 401.
func APIAuthRequired(c *fiber.Ctx) error {
	if _, ok := CurrentUserID(c); !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authentication credentials were not provided"))
	}
	return c.Next()
}

// LoginRequired redirects anonymous browser requests to the login page,
// remembering where they were going.
func LoginRequired(c *fiber.Ctx) error {
	if _, ok := CurrentUserID(c); !ok {
		return c.Redirect("/login?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
	}
	return c.Next()
}
