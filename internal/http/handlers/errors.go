package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillbridge-backend/internal/extraction"
	"github.com/yungbote/skillbridge-backend/internal/http/response"
)

func respondErr(c *gin.Context, err error, fallbackCode string) {
	if raw := extraction.RawOutput(err); raw != "" {
		response.ErrorWithRaw(c, err, fallbackCode, raw)
		return
	}
	response.Error(c, err, fallbackCode)
}
