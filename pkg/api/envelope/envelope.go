// Package envelope implements the uniform response shape every API
// handler writes: {success: bool, data?, error?}.
package envelope

import (
	"encoding/json"
	"errors"
	"net/http"

	"pmo_suite/pkg/core/rowstore"
)

type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CORS writes the standard preflight headers. Returns true when the
// request was an OPTIONS preflight and has been fully handled.
func CORS(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return true
	}
	return false
}

// OK writes a 200 success envelope.
func OK(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusOK, response{Success: true, Data: data})
}

// Created writes a 201 success envelope.
func Created(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusCreated, response{Success: true, Data: data})
}

// BadRequest writes a 400 for input-shape validation failures.
func BadRequest(w http.ResponseWriter, msg string) {
	write(w, http.StatusBadRequest, response{Success: false, Error: msg})
}

// Fail maps an error to the envelope: 404 for missing rows, 500 for
// everything else.
func Fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, rowstore.ErrNotFound) {
		status = http.StatusNotFound
	}
	write(w, status, response{Success: false, Error: err.Error()})
}

func write(w http.ResponseWriter, status int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
