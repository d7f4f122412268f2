package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/auth"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

const (
	GinContextKeySubjectID = "subjectID"
	GinContextKeyRole      = "role"
)

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return "", false
	}
	return tokenString, true
}

func AuthMiddleware(jwtSvc *auth.JWTService, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		tokenString, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			return
		}

		claims, err := jwtSvc.ValidateToken(tokenString)
		if err != nil {
			log.Warn("Rejected token", zap.String("path", c.FullPath()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(GinContextKeySubjectID, claims.SubjectID)
		c.Set(GinContextKeyRole, claims.Role)
		c.Next()
	}
}

// OptionalAuthMiddleware sets the subject when a valid token is present and
// lets anonymous requests through otherwise.
func OptionalAuthMiddleware(jwtSvc *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			if claims, err := jwtSvc.ValidateToken(tokenString); err == nil {
				c.Set(GinContextKeySubjectID, claims.SubjectID)
				c.Set(GinContextKeyRole, claims.Role)
			}
		}
		c.Next()
	}
}

func RequireRole(role auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		got, _ := c.Get(GinContextKeyRole)
		if r, ok := got.(auth.Role); !ok || r != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "role " + string(role) + " is required"})
			return
		}
		c.Next()
	}
}

// ErrorMiddleware renders the last error attached with c.Error.
func ErrorMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status := apperror.ToHTTPStatus(err)

		if status >= http.StatusInternalServerError {
			log.Error("Request failed", err, zap.String("path", c.FullPath()), zap.String("method", c.Request.Method))
		} else {
			log.Warn("Request rejected", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
		}

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if status >= http.StatusInternalServerError {
				c.JSON(status, gin.H{"error": appErr.BaseError.Error(), "message": "An internal server error occurred"})
				return
			}
			c.JSON(status, appErr.ToJSON())
			return
		}
		c.JSON(status, gin.H{"error": http.StatusText(status)})
	}
}

func GetSubjectIDFromGinContext(c *gin.Context) (uuid.UUID, bool) {
	subjectID, ok := c.Get(GinContextKeySubjectID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := subjectID.(uuid.UUID)
	if !ok {
		return uuid.Nil, false
	}
	return id, true
}

func mustSubject(c *gin.Context) (uuid.UUID, bool) {
	id, ok := GetSubjectIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("subject not found in context"))
	}
	return id, ok
}
