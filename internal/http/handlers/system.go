package handlers

import (
	"net/http"

	intconfig "directionmap/internal/config"

	"github.com/gin-gonic/gin"
)

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "direction map backend running"})
}

func DBCheck(c *gin.Context) {
	if err := intconfig.EnsureDB(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database not reachable"})
		return
	}
	var count int
	err := intconfig.DB.QueryRow("SELECT COUNT(*) FROM routes").Scan(&count)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "database connection OK", "routes_in_db": count})
}
