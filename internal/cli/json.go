package cli

import (
	stderrors "errors"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/nexus-erp/nexusctl/internal/api"
	"github.com/nexus-erp/nexusctl/internal/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Machine mode flag - when true, outputs JSON and suppresses human-friendly decorations
var machineMode bool

// MachineMode returns true if machine-readable output is enabled
func MachineMode() bool {
	return machineMode
}

// JSONEnvelope wraps command output in a consistent structure for machine parsing.
// All --json output should use this envelope.
type JSONEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *JSONError  `json:"error,omitempty"`
}

// JSONError provides structured error information for machine parsing.
type JSONError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
	Details    interface{} `json:"details,omitempty"`
}

// Error codes for machine-readable output.
const (
	ErrCodeConfigNotFound = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "CONFIG_INVALID"
	ErrCodeNotSignedIn    = "NOT_SIGNED_IN"
	ErrCodeLoginRejected  = "LOGIN_REJECTED"
	ErrCodeRouteMissing   = "ROUTE_MISSING"
	ErrCodeServerError    = "SERVER_ERROR"
	ErrCodeBadResponse    = "BAD_RESPONSE"
	ErrCodeNetwork        = "NETWORK_ERROR"
	ErrCodeChannel        = "CHANNEL_ERROR"
	ErrCodeUnknown        = "UNKNOWN"
)

// WriteJSONSuccess writes a successful response with data to the writer.
func WriteJSONSuccess(w io.Writer, data interface{}) error {
	return writeJSONEnvelope(w, JSONEnvelope{
		Success: true,
		Data:    data,
	})
}

// WriteJSONError writes an error response to the writer.
func WriteJSONError(w io.Writer, code, message, suggestion string, details interface{}) error {
	return writeJSONEnvelope(w, JSONEnvelope{
		Success: false,
		Error: &JSONError{
			Code:       code,
			Message:    message,
			Suggestion: suggestion,
			Details:    details,
		},
	})
}

// WriteJSONFromError converts a Go error to a JSON error response.
func WriteJSONFromError(w io.Writer, err error) error {
	return writeJSONEnvelope(w, JSONEnvelope{
		Success: false,
		Error:   ErrorToJSON(err),
	})
}

func writeJSONEnvelope(w io.Writer, env JSONEnvelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// ErrorToJSON converts a Go error to a JSONError with appropriate code mapping.
// HTTP status errors from the backend are reported under details.
func ErrorToJSON(err error) *JSONError {
	if err == nil {
		return nil
	}

	var nxErr *errors.Error
	if !stderrors.As(err, &nxErr) {
		return &JSONError{
			Code:    ErrCodeUnknown,
			Message: err.Error(),
		}
	}

	out := &JSONError{
		Code:       mapErrorCode(nxErr.Code, nxErr.Message),
		Message:    nxErr.Summary(),
		Suggestion: nxErr.Suggestion,
	}
	var statusErr *api.StatusError
	if stderrors.As(err, &statusErr) {
		out.Details = map[string]interface{}{
			"status": statusErr.Status,
			"detail": statusErr.Detail,
		}
	}
	return out
}

// mapErrorCode maps internal error codes to machine-readable codes.
func mapErrorCode(internalCode, message string) string {
	switch internalCode {
	case errors.ErrConfig:
		if isNotFoundMessage(message) {
			return ErrCodeConfigNotFound
		}
		return ErrCodeConfigInvalid
	case errors.ErrUnauthorized:
		return ErrCodeNotSignedIn
	case errors.ErrAuth:
		return ErrCodeLoginRejected
	case errors.ErrRouteMissing:
		return ErrCodeRouteMissing
	case errors.ErrServer:
		return ErrCodeServerError
	case errors.ErrMalformed:
		return ErrCodeBadResponse
	case errors.ErrNetwork:
		return ErrCodeNetwork
	case errors.ErrChannel:
		return ErrCodeChannel
	}
	return ErrCodeUnknown
}

func isNotFoundMessage(message string) bool {
	msgLower := strings.ToLower(message)
	return strings.Contains(msgLower, "not found") || strings.Contains(msgLower, "couldn't find")
}
