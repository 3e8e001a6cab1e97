package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	// Raw carries unparseable model output back to the caller for inspection.
	Raw string `json:"raw,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: message(err), Code: code}})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func message(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
