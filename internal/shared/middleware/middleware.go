package middleware

import (
	"net/http"
	"strings"
	"time"

	"ticketing/internal/shared/config"
	"ticketing/internal/shared/utils/response"
	"ticketing/internal/users"
	"ticketing/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	actorKey     = "actor"
	requestIDKey = "request_id"

	RequestIDHeader = "X-Request-ID"
)

// parseAccessToken returns the actor carried by a valid access token
func parseAccessToken(cfg *config.Config, header string) (users.Actor, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return users.Actor{}, false
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(cfg.JWT.Secret), nil
	})
	if err != nil || !token.Valid {
		return users.Actor{}, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return users.Actor{}, false
	}
	if tokenType, _ := claims["type"].(string); tokenType != "access" {
		return users.Actor{}, false
	}

	rawID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return users.Actor{}, false
	}
	role, _ := claims["role"].(string)

	actor := users.Actor{UserID: userID, Role: users.Role(role)}
	if rawStructure, _ := claims["structure_id"].(string); rawStructure != "" {
		if structureID, err := uuid.Parse(rawStructure); err == nil {
			actor.StructureID = &structureID
		}
	}
	return actor, true
}

func setActor(c *gin.Context, actor users.Actor) {
	c.Set(actorKey, actor)
	c.Set("user_id", actor.UserID.String())
	c.Set("user_role", string(actor.Role))
}

// JWTAuthWithConfig creates a JWT authentication middleware with config
func JWTAuthWithConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "Authorization header is required", nil, nil)
			c.Abort()
			return
		}

		actor, ok := parseAccessToken(cfg, authHeader)
		if !ok {
			logger.GetDefault().LogAuthFailure(c.Request.Context(), "invalid_token", c.ClientIP())
			response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid or expired token", nil, nil)
			c.Abort()
			return
		}

		setActor(c, actor)
		c.Next()
	}
}

// OptionalAuthWithConfig validates a JWT token if present but doesn't require it
func OptionalAuthWithConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			if actor, ok := parseAccessToken(cfg, authHeader); ok {
				setActor(c, actor)
			}
		}
		c.Next()
	}
}

// RequireRoles middleware checks if user has any of the required roles
func RequireRoles(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "user role not found in context", nil, nil)
			c.Abort()
			return
		}

		for _, role := range requiredRoles {
			if string(actor.Role) == role {
				c.Next()
				return
			}
		}

		response.RespondJSON(c, "error", http.StatusForbidden, "Insufficient permissions", nil, nil)
		c.Abort()
	}
}

// GetActor returns the authenticated caller, if any
func GetActor(c *gin.Context) (users.Actor, bool) {
	v, exists := c.Get(actorKey)
	if !exists {
		return users.Actor{}, false
	}
	actor, ok := v.(users.Actor)
	return actor, ok
}

// RequestLogger tags each request with an id and logs it once handled
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		start := time.Now()
		c.Next()
		log.WithRequestID(requestID).LogHTTPRequest(c, time.Since(start))
	}
}
