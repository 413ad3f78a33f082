package public

import (
	"github.com/kinoshop-next/internal/cache"
	"github.com/kinoshop-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	redisStatus := "disabled"
	if cache.Enabled() {
		redisStatus = "ok"
		if err := cache.Ping(requestContext(c)); err != nil {
			redisStatus = "error"
		}
	}
	response.Success(c, gin.H{
		"status":  "ok",
		"storage": h.Config.Storage.Driver,
		"redis":   redisStatus,
	})
}
