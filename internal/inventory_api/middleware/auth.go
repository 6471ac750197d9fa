package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	OrganizationKey = "organization"
	ActorKey        = "actor"
)

// OrganizationClaims identify the organization a token acts for. Subject is
// the organization id; Role is normalized with inventory.NormalizeRole.
type OrganizationClaims struct {
	Role string `json:"role"`
	User string `json:"user,omitempty"`
	jwt.RegisteredClaims
}

// Auth validates HS256 bearer tokens and scopes the request to the token's
// organization
func Auth(logger *slog.Logger, jwtSecret, issuer string) gin.HandlerFunc {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortAuth(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization header must be Bearer {token}")
			return
		}

		claims := &OrganizationClaims{}
		_, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(jwtSecret), nil
		})
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Token has expired"
			}
			logger.Warn("Rejected token", "error", err, "correlation_id", GetCorrelationID(c))
			abortAuth(c, http.StatusUnauthorized, "UNAUTHORIZED", msg)
			return
		}

		orgID, err := uuid.Parse(claims.Subject)
		if err != nil {
			abortAuth(c, http.StatusUnauthorized, "UNAUTHORIZED", "Token subject is not an organization id")
			return
		}
		role, err := inventory.NormalizeRole(claims.Role)
		if err != nil {
			abortAuth(c, http.StatusForbidden, "FORBIDDEN", "Token role has no access to inventory")
			return
		}

		actor := claims.User
		if actor == "" {
			actor = claims.Subject
		}
		c.Set(OrganizationKey, inventory.Organization{ID: orgID, Role: role})
		c.Set(ActorKey, actor)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func abortAuth(c *gin.Context, status int, code, message string) {
	response := gin.H{"error": gin.H{"code": code, "message": message}}
	if correlationID := GetCorrelationID(c); correlationID != "" {
		response["correlation_id"] = correlationID
	}
	c.AbortWithStatusJSON(status, response)
}

// GetOrganization returns the organization set by Auth
func GetOrganization(c *gin.Context) (inventory.Organization, bool) {
	v, exists := c.Get(OrganizationKey)
	if !exists {
		return inventory.Organization{}, false
	}
	org, ok := v.(inventory.Organization)
	return org, ok
}

// GetActor returns the user or organization the request acts as
func GetActor(c *gin.Context) string {
	return c.GetString(ActorKey)
}
