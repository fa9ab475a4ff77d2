package httpapi

import (
	"net/http"
	"time"

	"grocery-planner/internal/metrics"

	"github.com/gin-gonic/gin"
)

func (s *server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
		"system": metrics.GetSysHealth(s.DataDir),
	})
}

func (s *server) usage(c *gin.Context) {
	days, err := queryInt(c, "days", 7)
	if err != nil {
		s.fail(c, err)
		return
	}
	usage, err := s.Metrics.GetDailyUsage(c.Request.Context(), days)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "usage": usage})
}
