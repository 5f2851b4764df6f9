package utils

import (
	"encoding/json"
	"net/http"

	"github.com/EcoTrackTeam/EcoTrack-backend/internal/logger"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// Success renvoie une réponse 200 avec les données
func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

// Error renvoie une erreur au client et log la cause interne (jamais exposée)
func Error(w http.ResponseWriter, status int, msg string, err error) {
	if err != nil {
		logger.Error("[%d] %s: %v", status, msg, err)
	} else {
		logger.Error("[%d] %s", status, msg)
	}
	JSON(w, status, APIResponse{Success: false, Error: msg})
}

// ErrorSimple renvoie une erreur sans cause interne à logger
func ErrorSimple(w http.ResponseWriter, status int, msg string) {
	logger.Warning("[%d] %s", status, msg)
	JSON(w, status, APIResponse{Success: false, Error: msg})
}

func Message(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusOK, APIResponse{Success: true, Message: msg})
}
