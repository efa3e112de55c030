package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/isbjornDAO/tundra-sub002/internal/apperr"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Code     apperr.Code       `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

// ReadJSON decodes a single JSON value from the request body into dst.
func ReadJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxError *json.SyntaxError
		var typeError *json.UnmarshalTypeError
		var tooLarge *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &typeError):
			if typeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", typeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", typeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			return fmt.Errorf("body contains unknown key %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
		case errors.As(err, &tooLarge):
			return fmt.Errorf("body must not be larger than %d bytes", maxBodyBytes)
		default:
			return err
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

// Error renders an engine error with the status of its kind. Anything that is not an
// *apperr.Error is logged and hidden behind a 500.
func Error(w http.ResponseWriter, msg string, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind() == apperr.KindInternal {
		InternalServerError(w, msg, err)
		return
	}

	status := appErr.Kind().HTTPStatus()
	slog.Warn(msg, "code", appErr.Code, "status", status, "error", err)
	WriteJSON(w, status, errorEnvelope{Error: errorBody{
		Code:     appErr.Code,
		Message:  appErr.Error(),
		Metadata: appErr.Metadata,
	}})
}

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	WriteJSON(w, http.StatusInternalServerError, errorEnvelope{Error: errorBody{
		Code:    apperr.CodeUnknown,
		Message: "Internal Server Error",
	}})
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
		msg = fmt.Sprintf("%s: %v", msg, err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	WriteJSON(w, http.StatusBadRequest, errorEnvelope{Error: errorBody{
		Code:    apperr.CodeInvalidInput,
		Message: msg,
	}})
}

func Unauthenticated(w http.ResponseWriter, msg string) {
	slog.Warn("unauthenticated", "message", msg)
	WriteJSON(w, http.StatusUnauthorized, errorEnvelope{Error: errorBody{
		Code:    apperr.CodeUnauthorized,
		Message: msg,
	}})
}
