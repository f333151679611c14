package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/pipeline-board/internal/directory"
	"github.com/jonathan/pipeline-board/internal/drag"
	"github.com/jonathan/pipeline-board/internal/selection"
	"github.com/jonathan/pipeline-board/internal/transition"
	"github.com/jonathan/pipeline-board/internal/workflow"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotConfigured indicates an optional feature the server was started without
type ErrNotConfigured struct {
	Feature string
}

func (e *ErrNotConfigured) Error() string {
	return fmt.Sprintf("%s is not configured", e.Feature)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		reqErr    *ErrValidation
		notConf   *ErrNotConfigured
		invalid   *transition.ValidationError
		rejected  *transition.RejectedError
		network   *transition.NetworkError
		sourceErr *workflow.SourceError
		loadErr   *directory.LoadError
		bulkErr   *selection.BulkError
		selectErr *selection.Error
	)

	switch {
	case errors.As(err, &reqErr), errors.As(err, &selectErr), errors.Is(err, drag.ErrInvalidTarget):
		return http.StatusBadRequest
	case errors.Is(err, drag.ErrUnknownCandidate), errors.Is(err, workflow.ErrPhaseNotFound):
		return http.StatusNotFound
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, drag.ErrDragInProgress), errors.Is(err, drag.ErrNotDragging),
		errors.As(err, &rejected), errors.As(err, &bulkErr):
		return http.StatusConflict
	case errors.As(err, &notConf):
		return http.StatusNotImplemented
	case errors.As(err, &network):
		if network.TimedOut {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.As(err, &sourceErr), errors.As(err, &loadErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		// includes *workflow.ConfigurationError: the phase cannot be rendered
		return http.StatusInternalServerError
	}
}
