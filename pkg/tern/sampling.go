// sampling.go implements the capture-time sampling gate.

package tern

import (
	"math"

	"go.uber.org/zap"
)

// SamplingContext carries request metadata to a Sampler.
type SamplingContext struct {
	Request *Request
}

// Sampler decides whether an event is reported. The returned value may be a
// bool, or an int or float64 probability in [0,1]; anything else disables
// reporting for that event.
type Sampler func(ctx SamplingContext) any

// sampleRateFrom validates a configured rate or a sampler result. Booleans
// cast to 1 and 0; numbers must lie in [0,1] and not be NaN.
func sampleRateFrom(rate any) (float64, bool) {
	var value float64
	switch v := rate.(type) {
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case float64:
		value = v
	case int:
		value = float64(v)
	default:
		return 0, false
	}

	if math.IsNaN(value) || value < 0 || value > 1 {
		return 0, false
	}
	return value, true
}

// sample evaluates the sampling configuration with one random draw per event.
//
// The two rate options deliberately diverge on invalid input: the legacy
// SampleRate option fails open (sample everything) while TracesSampleRate and
// sampler results fail closed (sample nothing). Both behaviors are preserved
// by name rather than unified.
func (c *Client) sample() bool {
	o := &c.options

	switch {
	case o.TracesSampler != nil:
		c.mu.Lock()
		request := c.request.clone()
		c.mu.Unlock()
		result := o.TracesSampler(SamplingContext{Request: request})
		rate, ok := sampleRateFrom(result)
		if !ok {
			c.log.Warn("sampler returned an invalid rate, skipping event", zap.Any("result", result))
			return false
		}
		return c.randFloat() < rate

	case o.TracesSampleRate != nil:
		rate, ok := sampleRateFrom(o.TracesSampleRate)
		if !ok {
			c.log.Warn("TracesSampleRate is invalid, skipping event", zap.Any("rate", o.TracesSampleRate))
			return false
		}
		return c.randFloat() < rate

	case o.SampleRate != nil:
		rate, ok := sampleRateFrom(o.SampleRate)
		if !ok {
			c.log.Warn("SampleRate is invalid, sampling everything", zap.Any("rate", o.SampleRate))
			return true
		}
		return c.randFloat() < rate

	default:
		return true
	}
}
