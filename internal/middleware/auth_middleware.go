package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/autoparc/autoparc-api/internal/httpx"
	"github.com/autoparc/autoparc-api/internal/models"
	"github.com/autoparc/autoparc-api/internal/services"
)

const userKey = "user"

// Auth validates the bearer token, loads the account and stores it in the
// request locals. Disabled accounts are rejected even with a valid token.
func Auth(users services.UserStore, jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return httpx.NewAuthenticationError("Token d'authentification requis")
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			return httpx.NewAuthenticationError("Token invalide ou expiré")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return httpx.NewAuthenticationError("Token invalide ou expiré")
		}
		userIDHex, _ := claims["user_id"].(string)
		userID, err := primitive.ObjectIDFromHex(userIDHex)
		if err != nil {
			return httpx.NewAuthenticationError("Token invalide ou expiré")
		}

		user, err := users.FindByID(c.Context(), userID)
		if err != nil {
			return httpx.NewStorageError("Erreur de base de données")
		}
		if user == nil || !user.IsActive {
			return httpx.NewAuthenticationError("Compte introuvable ou désactivé")
		}

		c.Locals(userKey, user)
		return c.Next()
	}
}

// RequireRole lets the request through when the authenticated user holds at
// least the given role. Must run after Auth.
func RequireRole(minimum string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return httpx.NewAuthenticationError("Token d'authentification requis")
		}
		if !models.RoleAtLeast(user.Role, minimum) {
			return httpx.NewAuthorizationError("Accès refusé")
		}
		return c.Next()
	}
}

// CurrentUser returns the authenticated user set by Auth, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userKey).(*models.User)
	return user
}
