package httpapi

import (
	"net/http"

	"grocery-planner/internal/session"

	"github.com/gin-gonic/gin"
)

func (s *server) login(c *gin.Context) {
	url, err := s.Auth.LoginURL(c.Query("returnTo"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

func (s *server) callback(c *gin.Context) {
	if reason := c.Query("error"); reason != "" {
		s.Logger.WithField("reason", reason).Info("google sign-in declined")
		c.Redirect(http.StatusFound, "/login")
		return
	}

	res, err := s.Auth.Complete(c.Request.Context(), c.Query("state"), c.Query("code"))
	if err != nil {
		s.Logger.WithError(err).Warn("google sign-in failed")
		c.Redirect(http.StatusFound, "/login")
		return
	}

	s.setSessionCookie(c, res.Cookie, int(session.CookieMaxAge.Seconds()))
	c.Redirect(http.StatusFound, res.ReturnTo)
}

// logout ends the session in the store before clearing the cookie; a
// failure in the first step leaves the cookie in place.
func (s *server) logout(c *gin.Context) {
	cookie, _ := c.Cookie(session.CookieName)
	if err := s.Auth.Logout(c.Request.Context(), cookie); err != nil {
		s.fail(c, err)
		return
	}
	s.setSessionCookie(c, "", -1)
	c.Redirect(http.StatusFound, "/")
}

func (s *server) profile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": currentUser(c)})
}

func (s *server) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, value, maxAge, "/", "", s.SecureCookies, true)
}
