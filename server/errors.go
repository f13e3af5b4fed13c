package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tailored-agentic-units/coach/coach"
	"github.com/tailored-agentic-units/coach/knowledge"
	"github.com/tailored-agentic-units/coach/library"
	"github.com/tailored-agentic-units/coach/llm"
	"github.com/tailored-agentic-units/coach/prompt"
	"github.com/tailored-agentic-units/coach/session"
	"github.com/tailored-agentic-units/coach/store"
)

// ErrBadRequest marks a request body or parameter that could not be parsed.
var ErrBadRequest = errors.New("bad request")

var statusRules = []struct {
	status int
	errs   []error
}{
	{http.StatusBadRequest, []error{
		ErrBadRequest,
		coach.ErrEmptyMessage,
		coach.ErrEmptyContent,
		coach.ErrInvalidKind,
		coach.ErrInvalidScope,
		prompt.ErrEmptyMessage,
		llm.ErrUnknownProvider,
		session.ErrInvalidName,
		store.ErrInvalidKey,
		library.ErrInvalidType,
		library.ErrInvalidTemplate,
		knowledge.ErrEmptyQuery,
	}},
	{http.StatusNotFound, []error{
		session.ErrSessionNotFound,
		library.ErrTemplateNotFound,
		prompt.ErrPromptNotFound,
	}},
	{http.StatusGatewayTimeout, []error{
		llm.ErrProviderTimeout,
	}},
	{http.StatusBadGateway, []error{
		llm.ErrProviderUnavailable,
		llm.ErrEmptyResponse,
	}},
	{http.StatusServiceUnavailable, []error{
		library.ErrDisabled,
		coach.ErrRetrievalDisabled,
		llm.ErrMissingAPIKey,
	}},
}

// Status maps an error to its HTTP status code. Unrecognized errors are
// 500.
func Status(err error) int {
	for _, rule := range statusRules {
		for _, target := range rule.errs {
			if errors.Is(err, target) {
				return rule.status
			}
		}
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	c.JSON(Status(err), gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}
