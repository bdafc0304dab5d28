// Package audio plays the dashboard's audible cues. Creating or resuming the audio
// context is only possible from a user gesture; cues triggered by data changes try a
// best-effort resume and stay silent when it is refused.
package audio

import (
	"errors"
	"sync"
	"time"

	"github.com/YelzhanWeb/atelier/internal/adapter/logger"
	"github.com/YelzhanWeb/atelier/internal/domain"
	"github.com/YelzhanWeb/atelier/internal/interfaces"
	"github.com/YelzhanWeb/atelier/internal/metrics"
)

const (
	PreferenceKey  = "audio.enabled"
	EnabledMessage = "Sound enabled!"
)

var ErrNoGesture = errors.New("sound can only be enabled by a user action")

// Gesture marks a call made in direct response to a user action. Transport handlers
// create one per operator request.
type Gesture struct {
	source string
}

func NewGesture(source string) Gesture {
	return Gesture{source: source}
}

func (g Gesture) valid() bool { return g.source != "" }

// Confirmer shows a short notice to the operator.
type Confirmer interface {
	Confirm(message string, d time.Duration)
}

type Signal struct {
	factory        Factory
	prefs          interfaces.Preferences
	scheduler      interfaces.Scheduler
	confirmer      Confirmer
	confirmDisplay time.Duration
	metrics        *metrics.Registry
	logger         logger.Logger

	mu      sync.Mutex
	ctx     Context
	enabled bool
}

// NewSignal restores the persisted flag. Sound is on unless it was explicitly disabled.
func NewSignal(
	factory Factory,
	prefs interfaces.Preferences,
	scheduler interfaces.Scheduler,
	confirmer Confirmer,
	confirmDisplay time.Duration,
	metrics *metrics.Registry,
	logger logger.Logger,
) *Signal {
	s := &Signal{
		factory:        factory,
		prefs:          prefs,
		scheduler:      scheduler,
		confirmer:      confirmer,
		confirmDisplay: confirmDisplay,
		metrics:        metrics,
		logger:         logger,
		enabled:        true,
	}

	enabled, found, err := prefs.GetBool(PreferenceKey)
	if err != nil {
		logger.Warn("preference_read_failed", "Failed to read sound preference", "", nil, err)
	} else if found {
		s.enabled = enabled
	}
	return s
}

func (s *Signal) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Enable unlocks the context, plays the order chime as a test and persists the flag.
func (s *Signal) Enable(g Gesture) error {
	if !g.valid() {
		return ErrNoGesture
	}

	s.mu.Lock()
	ctx, err := s.context()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if ctx.State() != StateRunning {
		if err := ctx.Resume(true); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.enabled = true
	s.persist(true)
	s.mu.Unlock()

	s.play(ctx, domain.CueOrder)
	if s.confirmer != nil {
		s.confirmer.Confirm(EnabledMessage, s.confirmDisplay)
	}
	s.logger.Info("audio_enabled", "Sound enabled", g.source, nil)
	return nil
}

// Disable silences future cues. The context is kept for a later Enable.
func (s *Signal) Disable() {
	s.mu.Lock()
	s.enabled = false
	s.persist(false)
	s.mu.Unlock()

	s.logger.Info("audio_disabled", "Sound disabled", "", nil)
}

// Trigger schedules the cue for kind. Failures are logged and swallowed.
func (s *Signal) Trigger(kind domain.CueKind) {
	s.mu.Lock()
	if !s.enabled {
		s.mu.Unlock()
		return
	}
	ctx, err := s.context()
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("audio_unavailable", "Failed to create audio context", "", nil, err)
		return
	}
	if ctx.State() == StateSuspended {
		if err := ctx.Resume(false); err != nil {
			s.logger.Debug("audio_resume_refused", err.Error(), "", nil)
		}
	}
	s.mu.Unlock()

	s.play(ctx, kind)
}

// context expects s.mu to be held. The context is created once and never replaced.
func (s *Signal) context() (Context, error) {
	if s.ctx != nil {
		return s.ctx, nil
	}
	ctx, err := s.factory()
	if err != nil {
		return nil, err
	}
	s.ctx = ctx
	return ctx, nil
}

func (s *Signal) play(ctx Context, kind domain.CueKind) {
	now := ctx.CurrentTime()
	s.metrics.AudioCues.WithLabelValues(string(kind)).Inc()

	switch kind {
	case domain.CueStock:
		s.emit(ctx, alarm(now))
	default:
		s.emit(ctx, chimeFirst(now))
		s.scheduler.AfterFunc(secondToneDelay, func() {
			s.emit(ctx, chimeSecond(now))
		})
	}
}

func (s *Signal) emit(ctx Context, tone domain.Tone) {
	if err := ctx.Play(tone); err != nil {
		s.logger.Debug("audio_play_failed", err.Error(), "", map[string]interface{}{"cue": string(tone.Cue)})
	}
}

// persist expects s.mu to be held so stored and in-memory flags change in the same order.
func (s *Signal) persist(enabled bool) {
	if err := s.prefs.SetBool(PreferenceKey, enabled); err != nil {
		s.logger.Warn("preference_write_failed", "Failed to persist sound preference", "", nil, err)
	}
}
