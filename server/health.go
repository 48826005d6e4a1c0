package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

func (s *Server) healthDetailed(c *gin.Context) {
	status := "healthy"
	components := gin.H{
		"agents": gin.H{"status": "healthy", "count": 4},
	}

	if s.deps.ERP != nil {
		if _, err := s.deps.ERP.Authenticate(c.Request.Context()); err != nil {
			status = "degraded"
			components["odoo"] = gin.H{"status": "unhealthy", "error": err.Error()}
		} else {
			components["odoo"] = gin.H{"status": "healthy"}
		}
	} else {
		components["odoo"] = gin.H{"status": "unconfigured"}
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":     status,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"version":    Version,
		"components": components,
	})
}
