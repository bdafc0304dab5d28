package domain

// Waveform of an oscillator.
type Waveform string

const (
	WaveSine     Waveform = "sine"
	WaveSawtooth Waveform = "sawtooth"
)

// CueKind selects the sound played for an alert.
type CueKind string

const (
	CueOrder CueKind = "order"
	CueStock CueKind = "stock"
)

// Ramp is how a parameter reaches a Point's value.
type Ramp string

const (
	RampSet         Ramp = "set"
	RampLinear      Ramp = "linear"
	RampExponential Ramp = "exponential"
)

// Point is a parameter value reached at a context-clock time in seconds.
type Point struct {
	Value float64 `json:"value"`
	At    float64 `json:"at"`
	Ramp  Ramp    `json:"ramp"`
}

// Tone is one oscillator scheduled on an audio context clock.
type Tone struct {
	Cue       CueKind  `json:"cue"`
	Waveform  Waveform `json:"waveform"`
	Frequency []Point  `json:"frequency"`
	Gain      []Point  `json:"gain"`
	Start     float64  `json:"start"`
	Stop      float64  `json:"stop"`
}
