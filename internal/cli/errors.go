package cli

import (
	"errors"
	"net/http"

	"kanbanflow/internal/board"
	"kanbanflow/internal/client"
)

// cliError carries the HTTP-like status a failed command reports.
type cliError struct {
	status  int
	message string
}

func (e *cliError) Error() string {
	return e.message
}

func asCLIError(err error, target **cliError) bool {
	return errors.As(err, target)
}

func badRequest(err error) error {
	return &cliError{status: http.StatusBadRequest, message: err.Error()}
}

// wrapError maps backend and protocol failures onto a cliError.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	var cErr *cliError
	if errors.As(err, &cErr) {
		return err
	}

	var apiErr *client.APIError
	var syncErr *board.SyncError
	switch {
	case errors.As(err, &syncErr):
		return &cliError{status: http.StatusBadGateway, message: err.Error()}
	case errors.As(err, &apiErr):
		return &cliError{status: apiErr.StatusCode, message: err.Error()}
	case board.IsRejection(err):
		return &cliError{status: http.StatusUnprocessableEntity, message: "rejected: " + err.Error()}
	}
	return &cliError{status: http.StatusInternalServerError, message: err.Error()}
}
