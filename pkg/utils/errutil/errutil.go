package errutil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/utils/logging"
	"github.com/secmon-lab/bastion/pkg/utils/safe"
)

// Handle logs the error with a message and reports it to Sentry when a client
// has been initialized. The error is returned as-is.
func Handle(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}

	logError(ctx, slog.LevelError, msg, err)
	report(err, msg)
	return err
}

// HTTPError is the JSON body written for failed API requests
type HTTPError struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// HandleHTTP logs the error and writes it as a JSON error body. Client errors
// are logged at warn level and carry the error message. Server errors are
// reported to Sentry and their message is hidden from the client.
func HandleHTTP(ctx context.Context, w http.ResponseWriter, err error, statusCode int) {
	if err == nil {
		return
	}

	body := HTTPError{Error: err.Error(), Status: statusCode}
	if statusCode >= http.StatusInternalServerError {
		logError(ctx, slog.LevelError, "Request failed", err, "status", statusCode)
		report(err, "request failed")
		body.Error = http.StatusText(statusCode)
	} else {
		logError(ctx, slog.LevelWarn, "Request rejected", err, "status", statusCode)
	}

	data, mErr := json.Marshal(body)
	if mErr != nil {
		http.Error(w, http.StatusText(statusCode), statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	safe.Write(ctx, w, data)
}

func logError(ctx context.Context, level slog.Level, msg string, err error, args ...any) {
	args = append(args, "error", err.Error())

	var ge *goerr.Error
	if errors.As(err, &ge) {
		args = append(args, "values", ge.Values())
		if level >= slog.LevelError {
			args = append(args, "stack", ge.Stacks())
		}
	}

	logging.From(ctx).Log(ctx, level, msg, args...)
}

func report(err error, msg string) {
	hub := sentry.CurrentHub()
	if hub == nil || hub.Client() == nil {
		return
	}

	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("message", msg)
		var ge *goerr.Error
		if errors.As(err, &ge) {
			scope.SetContext("goerr", sentry.Context(ge.Values()))
		}
		hub.CaptureException(err)
	})
}
