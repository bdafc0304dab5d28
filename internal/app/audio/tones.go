package audio

import (
	"time"

	"github.com/YelzhanWeb/atelier/internal/domain"
)

// secondToneDelay is when the second chime tone gets scheduled, after the first tone's ring-out.
const secondToneDelay = 600 * time.Millisecond

// chimeFirst is the high "ding": 659.25 Hz rising to 0.5 in 50 ms, ringing out to 0.1 by +0.6 s.
func chimeFirst(now float64) domain.Tone {
	return domain.Tone{
		Cue:       domain.CueOrder,
		Waveform:  domain.WaveSine,
		Frequency: []domain.Point{{Value: 659.25, At: now, Ramp: domain.RampSet}},
		Gain: []domain.Point{
			{Value: 0, At: now, Ramp: domain.RampSet},
			{Value: 0.5, At: now + 0.05, Ramp: domain.RampLinear},
			{Value: 0.1, At: now + 0.6, Ramp: domain.RampExponential},
		},
		Start: now,
		Stop:  now + 0.8,
	}
}

// chimeSecond is the low "dong". now is the context time captured when the chime was
// triggered, so the tone lands at +0.8 s however late the deferred callback runs.
func chimeSecond(now float64) domain.Tone {
	return domain.Tone{
		Cue:       domain.CueOrder,
		Waveform:  domain.WaveSine,
		Frequency: []domain.Point{{Value: 523.25, At: now + 0.8, Ramp: domain.RampSet}},
		Gain: []domain.Point{
			{Value: 0, At: now + 0.8, Ramp: domain.RampSet},
			{Value: 0.5, At: now + 0.85, Ramp: domain.RampLinear},
			{Value: 0.01, At: now + 2.5, Ramp: domain.RampExponential},
		},
		Start: now + 0.8,
		Stop:  now + 3.0,
	}
}

// alarm warbles 800/600 Hz every 100 ms and fades out over half a second.
func alarm(now float64) domain.Tone {
	return domain.Tone{
		Cue:      domain.CueStock,
		Waveform: domain.WaveSawtooth,
		Frequency: []domain.Point{
			{Value: 800, At: now, Ramp: domain.RampSet},
			{Value: 600, At: now + 0.1, Ramp: domain.RampLinear},
			{Value: 800, At: now + 0.2, Ramp: domain.RampLinear},
			{Value: 600, At: now + 0.3, Ramp: domain.RampLinear},
		},
		Gain: []domain.Point{
			{Value: 0.2, At: now, Ramp: domain.RampSet},
			{Value: 0.01, At: now + 0.5, Ramp: domain.RampExponential},
		},
		Start: now,
		Stop:  now + 0.5,
	}
}
