package web

// errors.go turns handler errors into responses.
//
// The technical error is logged with the request ID; the client gets the
// core.MapError message and code, as an HTML fragment for HTMX requests
// and JSON otherwise.

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/logbook/internal/core"
	"github.com/JonMunkholm/logbook/internal/logging"
	"github.com/JonMunkholm/logbook/internal/web/templates"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Action  string            `json:"action,omitempty"`
	Code    string            `json:"code"`
	Missing []core.Field      `json:"missingFields,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	var (
		formatErr  *core.FormatError
		missingErr *core.MissingFieldsError
		reqErr     *requestError
	)
	switch {
	case errors.As(err, &reqErr):
		return reqErr.status
	case errors.As(err, &formatErr), errors.Is(err, core.ErrNothingToImport):
		return http.StatusUnprocessableEntity
	case errors.As(err, &missingErr), errors.Is(err, core.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, core.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrEmptyFile):
		return http.StatusBadRequest
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{"column not found", "unknown field", "cannot be mapped", "invalid csv", "invalid spreadsheet", "unknown template kind"} {
		if strings.Contains(msg, p) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// requestError is a malformed request detected by the web layer itself.
type requestError struct {
	status int
	msg    string
	fields map[string]string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error {
	return &requestError{status: http.StatusBadRequest, msg: msg}
}

// respondError logs err and writes the user-facing response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	var reqErr *requestError
	if errors.As(err, &reqErr) {
		userMsg = core.UserMessage{Message: reqErr.msg, Action: "Check the request and try again", Code: "REQ001"}
	}

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "30")
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := templates.ErrorAlert(userMsg.Message, userMsg.Action, userMsg.Code).Render(r.Context(), w); err != nil {
			logger.Error("render error alert", "error", err)
		}
		return
	}

	body := ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	}
	var missingErr *core.MissingFieldsError
	if errors.As(err, &missingErr) {
		body.Missing = missingErr.Fields
	}
	if reqErr != nil {
		body.Fields = reqErr.fields
	}
	writeJSONStatus(w, r, status, body)
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
