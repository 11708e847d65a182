package httpapi

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Msg   string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{OK: false, Error: code, Msg: msg})
}
