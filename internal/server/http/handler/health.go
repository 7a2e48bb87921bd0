package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health handles GET /.
func Health(c *gin.Context) {
	c.String(http.StatusOK, "API Gateway is running.")
}
