package audio

import (
	"errors"
	"sync"
	"time"

	"github.com/YelzhanWeb/atelier/internal/domain"
	"github.com/YelzhanWeb/atelier/internal/interfaces"
)

type ContextState string

const (
	StateSuspended ContextState = "suspended"
	StateRunning   ContextState = "running"
	StateClosed    ContextState = "closed"
)

var (
	ErrResumeNotAllowed = errors.New("audio context may only be resumed from a user gesture")
	ErrContextSuspended = errors.New("audio context is suspended")
	ErrContextClosed    = errors.New("audio context is closed")
)

// Context is a sound-producing context with its own clock. Resume without a user
// gesture may be refused.
type Context interface {
	State() ContextState
	Resume(gesture bool) error
	// CurrentTime is the context clock in seconds.
	CurrentTime() float64
	Play(tone domain.Tone) error
}

// Factory creates the context; a Signal calls it at most once.
type Factory func() (Context, error)

// ClockContext is a software context: its clock is monotonic time since creation and
// scheduled tones are forwarded to a sink that renders them.
type ClockContext struct {
	sink  interfaces.ToneSink
	start time.Time
	now   func() time.Time

	mu    sync.Mutex
	state ContextState
}

// NewClockContext starts suspended, like a browser context created outside a gesture.
func NewClockContext(sink interfaces.ToneSink) *ClockContext {
	return &ClockContext{
		sink:  sink,
		start: time.Now(),
		now:   time.Now,
		state: StateSuspended,
	}
}

func (c *ClockContext) State() ContextState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *ClockContext) Resume(gesture bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.state == StateClosed:
		return ErrContextClosed
	case c.state == StateRunning:
		return nil
	case !gesture:
		return ErrResumeNotAllowed
	}
	c.state = StateRunning
	return nil
}

func (c *ClockContext) CurrentTime() float64 {
	return c.now().Sub(c.start).Seconds()
}

func (c *ClockContext) Play(tone domain.Tone) error {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()

	switch state {
	case StateClosed:
		return ErrContextClosed
	case StateSuspended:
		return ErrContextSuspended
	}
	c.sink.PlayTone(tone)
	return nil
}

func (c *ClockContext) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateClosed
}
