package api

import (
	"encoding/json"
	"io"
	"net/http"

	"growth-forecast/internal/common/errors"
)

const maxBodyBytes = 16 << 20

type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
	Status  int    `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Status: status})
}

// writeStandardError maps err to a status via its error code.
func writeStandardError(w http.ResponseWriter, err error) {
	std := errors.AsStandard(err)
	status := errors.HTTPStatus(std.Code)
	body := errorBody{Error: std.Message, Code: string(std.Code), Status: status}
	if status < http.StatusInternalServerError {
		body.Details = std.Details
	}
	writeJSON(w, status, body)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.NewInvalidRequestError("request body could not be read: " + err.Error())
	}
	return raw, nil
}
