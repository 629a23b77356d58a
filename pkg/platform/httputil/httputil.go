// Package httputil writes the JSON envelope every endpoint answers with.
//
// Every response carries "success". Business failures (validation, not found,
// conflict) are reported with HTTP 200 and success=false so browser clients can
// treat the body as the source of truth. Transport-level failures (bad
// signature, missing credentials) and unexpected errors use real status codes.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "confreg/pkg/domain-errors"
)

const genericErrorMessage = "Something went wrong. Please try again later."

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a success envelope merged with fields.
func WriteSuccess(w http.ResponseWriter, fields map[string]any) {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true
	WriteJSON(w, http.StatusOK, body)
}

// WriteError translates a domain error into the failure envelope.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.GetCode(err)
	status := StatusFor(code)
	msg := dErrors.Message(err)
	if status == http.StatusInternalServerError || msg == "" {
		msg = genericErrorMessage
	}
	WriteJSON(w, status, map[string]any{
		"success": false,
		"error":   msg,
		"code":    string(code),
	})
}

// StatusFor maps error codes to HTTP statuses.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeNotFound, dErrors.CodeConflict:
		return http.StatusOK
	case dErrors.CodeBadRequest, dErrors.CodeSignatureInvalid:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
