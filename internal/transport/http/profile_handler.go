package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"trivia-session-service/internal/domain"
	"trivia-session-service/internal/profile"
)

// ProfileHandler exposes the local login over plain HTTP.
type ProfileHandler struct {
	manager *profile.Manager
}

func NewProfileHandler(manager *profile.Manager) *ProfileHandler {
	return &ProfileHandler{manager: manager}
}

// Register mounts the profile routes on mux.
func (h *ProfileHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/login", h.handleLogin)
	mux.HandleFunc("/logout", h.handleLogout)
	mux.HandleFunc("/profile", h.handleProfile)
}

func (h *ProfileHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	prof, err := h.manager.Login(r.Context(), body.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUsernameRequired) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, prof)
}

func (h *ProfileHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.manager.Logout(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProfileHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	prof, ok := h.manager.Current(r.Context())
	if !ok {
		http.Error(w, "no active profile", http.StatusNotFound)
		return
	}
	h.manager.Touch(r.Context())
	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
