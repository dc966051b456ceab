package synth

import "math"

// limiter is a brickwall-ish output stage: an envelope follower with a fast
// attack pulls the gain down whenever the signal exceeds the threshold.
type limiter struct {
	threshold float64
	attack    float64 // coefficient
	release   float64 // coefficient
	envL      float64
	envR      float64
}

func newLimiter(sampleRate int, thresholdDb float64) *limiter {
	sr := float64(sampleRate)
	return &limiter{
		threshold: math.Pow(10, thresholdDb/20),
		attack:    1.0 - math.Exp(-1.0/(1.0*sr/1000.0)),
		release:   1.0 - math.Exp(-1.0/(80.0*sr/1000.0)),
	}
}

func (lm *limiter) process(l, r float64) (float64, float64) {
	absL := math.Abs(l)
	absR := math.Abs(r)
	if absL > lm.envL {
		lm.envL += lm.attack * (absL - lm.envL)
	} else {
		lm.envL += lm.release * (absL - lm.envL)
	}
	if absR > lm.envR {
		lm.envR += lm.attack * (absR - lm.envR)
	} else {
		lm.envR += lm.release * (absR - lm.envR)
	}
	return l * lm.gainFor(lm.envL), r * lm.gainFor(lm.envR)
}

func (lm *limiter) gainFor(env float64) float64 {
	if env <= lm.threshold || lm.threshold <= 0 {
		return 1.0
	}
	return lm.threshold / env
}
