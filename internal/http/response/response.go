package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/octal-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
	// Redirect tells the client where to go to resolve the error.
	Redirect string `json:"redirect,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError writes any service error using its resolved status, code
// and field. Internal errors are not echoed to the client.
func RespondAPIError(c *gin.Context, err error) {
	RespondAPIErrorWithRedirect(c, err, "")
}

func RespondAPIErrorWithRedirect(c *gin.Context, err error, redirect string) {
	ae := apierr.Resolve(err)
	if ae == nil {
		ae = apierr.New(http.StatusInternalServerError, "internal_error", nil)
	}
	msg := ae.Error()
	if ae.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
		msg = http.StatusText(ae.Status)
	}
	c.JSON(ae.Status, ErrorEnvelope{
		Error: APIError{
			Message:  msg,
			Code:     ae.Code,
			Field:    ae.Field,
			Redirect: redirect,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
