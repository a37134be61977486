package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/agrosync/agrosync-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const callerKey = "caller"

// Claims represents the JWT claims structure
type Claims struct {
	UserID         string   `json:"user_id"`
	OrganizationID string   `json:"organization_id"`
	Role           string   `json:"role"`
	Permissions    []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Caller converts verified claims into the identity handlers pass to services
func (c *Claims) Caller() models.Caller {
	return models.Caller{
		UserID:         c.UserID,
		OrganizationID: c.OrganizationID,
		Role:           c.Role,
		Permissions:    c.Permissions,
	}
}

func abort(c *gin.Context, status int, title, detail string) {
	c.AbortWithStatusJSON(status, models.NewErrorResponse(status, title, detail))
}

// Auth returns a middleware that validates JWT tokens
func Auth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString := ""

		if authHeader == "" {
			// download links may carry the token as a query parameter
			tokenString = c.Query("token")
			if tokenString == "" {
				abort(c, http.StatusUnauthorized, "Unauthorized", "Authorization header is required")
				return
			}
		} else {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				abort(c, http.StatusUnauthorized, "Unauthorized", "Invalid authorization header format")
				return
			}
			tokenString = parts[1]
		}

		claims, err := validateToken(tokenString, jwtSecret)
		if err != nil {
			abort(c, http.StatusUnauthorized, "Unauthorized", err.Error())
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("organizationID", claims.OrganizationID)
		c.Set(callerKey, claims.Caller())

		c.Next()
	}
}

func validateToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("token has expired")
		}
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.UserID == "" || claims.OrganizationID == "" {
		return nil, errors.New("token is missing user or organization")
	}

	return claims, nil
}

// GetCaller extracts the authenticated caller from the Gin context
func GetCaller(c *gin.Context) (models.Caller, bool) {
	v, exists := c.Get(callerKey)
	if !exists {
		return models.Caller{}, false
	}
	caller, ok := v.(models.Caller)
	return caller, ok
}

// SetCaller stores a caller on the context. Used by Auth and by tests.
func SetCaller(c *gin.Context, caller models.Caller) {
	c.Set("userID", caller.UserID)
	c.Set("organizationID", caller.OrganizationID)
	c.Set(callerKey, caller)
}

// RequirePermission rejects callers lacking permission. Admins pass every check.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := GetCaller(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Unauthorized", "Authentication required")
			return
		}
		if !caller.Can(permission) {
			abort(c, http.StatusForbidden, "Forbidden", "Missing permission "+permission)
			return
		}
		c.Next()
	}
}

// RequireRole returns a middleware that requires specific roles
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, _ := GetCaller(c)
		for _, role := range allowedRoles {
			if caller.Role == role {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "Forbidden", "You do not have access to this resource")
	}
}

// RequireAdmin returns a middleware that requires admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}
