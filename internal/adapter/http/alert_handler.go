package http

import (
	"net/http"

	"github.com/YelzhanWeb/atelier/internal/adapter/logger"
	"github.com/YelzhanWeb/atelier/internal/app/audio"
	"github.com/YelzhanWeb/atelier/internal/domain"
)

type AlertBoard interface {
	Current() (domain.Alert, bool)
	Dismiss()
}

type SoundSwitch interface {
	Enabled() bool
	Enable(g audio.Gesture) error
	Disable()
}

// AlertHandler serves the operator banner and the sound toggle.
type AlertHandler struct {
	alerts AlertBoard
	sound  SoundSwitch
	logger logger.Logger
}

func NewAlertHandler(alerts AlertBoard, sound SoundSwitch, logger logger.Logger) *AlertHandler {
	return &AlertHandler{
		alerts: alerts,
		sound:  sound,
		logger: logger,
	}
}

type AlertResponse struct {
	Alert *domain.Alert `json:"alert"`
}

type SoundResponse struct {
	Enabled bool `json:"enabled"`
}

func (h *AlertHandler) Current(w http.ResponseWriter, r *http.Request) {
	var resp AlertResponse
	if a, ok := h.alerts.Current(); ok {
		resp.Alert = &a
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *AlertHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.alerts.Dismiss()
	w.WriteHeader(http.StatusNoContent)
}

func (h *AlertHandler) SoundState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, SoundResponse{Enabled: h.sound.Enabled()})
}

// EnableSound counts as a user gesture: the operator pressed the button.
func (h *AlertHandler) EnableSound(w http.ResponseWriter, r *http.Request) {
	if err := h.sound.Enable(audio.NewGesture("http:" + RequestID(r.Context()))); err != nil {
		h.logger.Warn("audio_enable_failed", "Failed to enable sound", RequestID(r.Context()), nil, err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, SoundResponse{Enabled: true})
}

func (h *AlertHandler) DisableSound(w http.ResponseWriter, r *http.Request) {
	h.sound.Disable()
	respondJSON(w, http.StatusOK, SoundResponse{Enabled: false})
}
