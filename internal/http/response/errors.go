package response

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillbridge-backend/internal/platform/apierr"
)

// Error maps err through apierr; anything untyped becomes a 500 with fallbackCode.
func Error(c *gin.Context, err error, fallbackCode string) {
	ae := apierr.As(err, fallbackCode)
	c.JSON(ae.Status, ErrorEnvelope{Error: APIError{Message: message(err), Code: ae.Code}})
}

// ErrorWithRaw is Error plus the raw model output, when there is any.
func ErrorWithRaw(c *gin.Context, err error, fallbackCode, raw string) {
	ae := apierr.As(err, fallbackCode)
	c.JSON(ae.Status, ErrorEnvelope{Error: APIError{Message: message(err), Code: ae.Code, Raw: raw}})
}
