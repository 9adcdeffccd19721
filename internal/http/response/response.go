package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Stable machine-readable codes for the conversation API. Clients branch on
// these, never on message text.
const (
	CodeInvalidRequest        = "invalid_request"
	CodeInvalidConversationID = "invalid_conversation_id"
	CodeInvalidAnswer         = "invalid_answer"
	CodeNotFound              = "not_found"
	CodeConflict              = "conflict"
	CodeCooldownActive        = "cooldown_active"
	CodeNotVerified           = "not_verified"
	CodeInternal              = "internal_error"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
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

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
