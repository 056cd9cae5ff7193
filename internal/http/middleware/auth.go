package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/octal-backend/internal/http/response"
	"github.com/yungbote/octal-backend/internal/platform/ctxutil"
	"github.com/yungbote/octal-backend/internal/platform/logger"
)

// TokenParser resolves a bearer token to the caller's id and lazy flag.
type TokenParser interface {
	ParseToken(tokenString string) (uuid.UUID, bool, error)
}

type AuthMiddleware struct {
	log    *logger.Logger
	parser TokenParser
}

func NewAuthMiddleware(log *logger.Logger, parser TokenParser) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), parser: parser}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractTokenFromAll(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorEnvelope{
				Error: response.APIError{Message: "missing or invalid token", Code: "unauthorized"},
			})
			return
		}
		if err := am.attach(c, tokenString); err != nil {
			am.log.Debug("token rejected", "error", err)
			response.RespondAPIError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and lets
// anonymous requests through untouched.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := extractTokenFromAll(c); tokenString != "" {
			if err := am.attach(c, tokenString); err != nil {
				am.log.Debug("ignoring invalid optional token", "error", err)
			}
		}
		c.Next()
	}
}

func (am *AuthMiddleware) attach(c *gin.Context, tokenString string) error {
	userID, lazy, err := am.parser.ParseToken(tokenString)
	if err != nil {
		return err
	}
	ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Lazy:        lazy,
	})
	c.Request = c.Request.WithContext(ctx)
	return nil
}

// extractTokenFromAll accepts ?token= for EventSource clients, which cannot
// set headers.
func extractTokenFromAll(c *gin.Context) string {
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
