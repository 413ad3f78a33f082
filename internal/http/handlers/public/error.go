package public

import (
	handlershared "github.com/kinoshop-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, key string, err error, args ...interface{}) {
	handlershared.RespondError(c, code, key, err, args...)
}

func respondErrorWithData(c *gin.Context, code int, key string, data interface{}, err error) {
	handlershared.RespondErrorWithData(c, code, key, data, err)
}
