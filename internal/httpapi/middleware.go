package httpapi

import (
	"net/http"
	"time"

	"grocery-planner/internal/apperr"
	"grocery-planner/internal/session"
	"grocery-planner/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const userKey = "user"

func requestLogger(logger *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request")
	}
}

// requireAuthenticated rejects requests without a live session and puts
// the signed-in user on the context.
func (s *server) requireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, _ := c.Cookie(session.CookieName)
		u, _, err := s.Auth.Authenticate(c.Request.Context(), cookie)
		if err != nil {
			if apperr.Is(err, apperr.KindUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
				return
			}
			s.fail(c, err)
			return
		}
		c.Set(userKey, u)
		c.Next()
	}
}

func currentUser(c *gin.Context) *user.User {
	return c.MustGet(userKey).(*user.User)
}

func userID(c *gin.Context) string {
	return currentUser(c).ID
}

// fail renders err as {"message": ...} with the status its kind maps to.
// Server-side failures are logged with their cause.
func (s *server) fail(c *gin.Context, err error) {
	status := apperr.StatusCode(err)
	if status >= http.StatusInternalServerError {
		s.Logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("request error")
	}
	c.AbortWithStatusJSON(status, gin.H{"message": apperr.PublicMessage(err)})
}

// bind decodes the JSON body into v, reporting bad input as a 400.
func (s *server) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		s.fail(c, apperr.BadRequest("Invalid request body: "+err.Error()))
		return false
	}
	return true
}
