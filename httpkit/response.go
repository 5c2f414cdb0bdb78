// Package httpkit writes the JSON envelopes shared by handlers and
// middleware.
package httpkit

import (
	"encoding/json"
	"net/http"

	"github.com/prashant564/Courses24-API/apperr"
	"github.com/prashant564/Courses24-API/logging"
)

const serverErrorMessage = "Server Error"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func JSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Logger.Errorf("Event ID: RESPONSE_ENCODE_FAILED, Description: Encoding response failed: %v", err)
	}
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Success: false, Error: message})
}

// HandleError writes err as an error envelope. Domain errors keep their
// status and message; anything else is logged and answered with a generic
// 500.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if appErr, ok := apperr.As(err); ok {
		status := appErr.HTTPStatus()
		if status >= http.StatusInternalServerError {
			logging.WithRequest(RequestID(r)).Errorf("Event ID: REQUEST_FAILED, Description: %s %s failed: %v", r.Method, r.URL.Path, err)
		}
		Error(w, status, appErr.Message)
		return
	}

	logging.WithRequest(RequestID(r)).Errorf("Event ID: UNHANDLED_ERROR, Description: %s %s failed: %v", r.Method, r.URL.Path, err)
	Error(w, http.StatusInternalServerError, serverErrorMessage)
}
