package public

import (
	"context"

	"github.com/gin-gonic/gin"
)

func requestContext(c *gin.Context) context.Context {
	if c == nil || c.Request == nil {
		return context.Background()
	}
	return c.Request.Context()
}
