package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/Dosada05/mergington-activities/services"
	"github.com/go-chi/chi/v5"
)

// Client-facing error details. They match the messages existing frontends check for.
const (
	detailActivityNotFound = "Activity not found"
	detailAlreadySignedUp  = "Student is already signed up for this activity"
	detailEmailRequired    = "email query parameter is required"
	detailInternal         = "Internal server error"
	detailNotFound         = "Not Found"
)

type jsonResponse map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// errorResponse writes the {"detail": ...} envelope.
func errorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, detail interface{}) {
	if err := writeJSON(w, status, jsonResponse{"detail": detail}, nil); err != nil {
		logger.ErrorContext(r.Context(), "failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	logger.ErrorContext(r.Context(), "internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
	errorResponse(w, r, logger, http.StatusInternalServerError, detailInternal)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, detail string) {
	errorResponse(w, r, logger, http.StatusBadRequest, detail)
}

func notFoundResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, detail string) {
	errorResponse(w, r, logger, http.StatusNotFound, detail)
}

func unprocessableResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, detail string) {
	errorResponse(w, r, logger, http.StatusUnprocessableEntity, detail)
}

// NotFound builds the router fallback.
func NotFound(logger *slog.Logger) http.HandlerFunc {
	logger = loggerOrDefault(logger)
	return func(w http.ResponseWriter, r *http.Request) {
		notFoundResponse(w, r, logger, detailNotFound)
	}
}

// mapServiceErrorToHTTP turns service errors into HTTP responses. Anything
// unrecognised, storage failures included, is a 500.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrActivityNotFound):
		notFoundResponse(w, r, logger, detailActivityNotFound)
	case errors.Is(err, services.ErrAlreadySignedUp):
		badRequestResponse(w, r, logger, detailAlreadySignedUp)
	default:
		serverErrorResponse(w, r, logger, err)
	}
}

// activityNameFromURL returns the decoded {activityName} path segment.
// chi hands back the escaped segment when the request path carried escapes
// the default encoding would not produce (such as %2F).
func activityNameFromURL(r *http.Request) string {
	name := chi.URLParam(r, "activityName")
	if r.URL.RawPath == "" {
		return name
	}
	decoded, err := url.PathUnescape(name)
	if err != nil {
		return name
	}
	return decoded
}
