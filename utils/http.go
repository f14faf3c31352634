package utils

import (
	"encoding/json"
	"net/http"
)

// ServerErrorBody is the only body clients see for unexpected failures
const ServerErrorBody = "Server Error"

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteOK writes a 200 OK JSON response
func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteText writes a plain text response
func WriteText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// WriteStatus writes the standard status name as a plain text body, e.g. "Not Found"
func WriteStatus(w http.ResponseWriter, status int) {
	WriteText(w, status, http.StatusText(status))
}

// WriteServerError writes a 500 with the generic server error body
func WriteServerError(w http.ResponseWriter) {
	WriteText(w, http.StatusInternalServerError, ServerErrorBody)
}
