package api

import (
	"encoding/json"
	"net/http"
)

// response is the envelope the web client expects on every endpoint.
type response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, response{Success: true, Data: data})
}

func respondList(w http.ResponseWriter, status int, count int, data interface{}) {
	respondJSON(w, status, response{Success: true, Count: &count, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, response{Success: false, Message: message})
}
