package respond

import (
	"encoding/json"
	"log"
	"net/http"
)

const (
	CODE_INTERNAL_ERROR        = 1
	CODE_INVALID_JSON          = 2
	CODE_VALIDATION_FAILED     = 3
	CODE_INVALID_CREDENTIALS   = 4
	CODE_SESSION_EXPIRED       = 5
	CODE_FORBIDDEN             = 6
	CODE_NOT_FOUND             = 7
	CODE_CONFIRMATION_REQUIRED = 8
	CODE_BACKEND_UNAVAILABLE   = 9
	CODE_SESSION_LOADING       = 10
)

type Error struct {
	Code     int    `json:"code"`
	Text     string `json:"text,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func ErrorWithCode(w http.ResponseWriter, httpCode, appCode int) {
	writeJSON(w, httpCode, Error{Code: appCode})
}

func ErrorWithText(w http.ResponseWriter, httpCode, appCode int, errText string) {
	writeJSON(w, httpCode, Error{Code: appCode, Text: errText})
}

// ErrorWithRedirect tells the caller where to navigate, used when a
// session is missing or not privileged enough.
func ErrorWithRedirect(w http.ResponseWriter, httpCode, appCode int, redirect string) {
	writeJSON(w, httpCode, Error{Code: appCode, Redirect: redirect})
}

func JSON(w http.ResponseWriter, v interface{}) {
	writeJSON(w, http.StatusOK, v)
}

func writeJSON(w http.ResponseWriter, httpCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
