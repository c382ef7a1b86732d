package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrDegenerateRange marks an options tuple no sample can satisfy: a zero
// bound for the log-uniform distribution, or a (min, max) interval the
// rejection samplers cannot land strictly inside of.
var ErrDegenerateRange = errors.New("degenerate sampling range")

// maxResampleDraws bounds the inner rejection loops of the normal and
// triangular samplers so a min==max configuration cannot livelock a
// generation request.
const maxResampleDraws = 10000

// Sampler draws values for every candidate distribution from one shared
// random source. Not safe for concurrent use; generation runs are
// request-scoped and sequential.
type Sampler struct {
	rnd *rand.Rand
}

// NewSampler returns a Sampler seeded for reproducible draws.
func NewSampler(seed int64) *Sampler {
	return &Sampler{rnd: rand.New(rand.NewSource(seed))}
}

// Sample draws one value under the given distribution kind. The options
// kind is ignored here: selection tries every kind against the same
// min/max/decimals tuple.
func (s *Sampler) Sample(kind DistributionKind, opts Options) (float64, error) {
	switch kind {
	case Uniform:
		return s.uniform(opts), nil
	case LogUniform:
		return s.logUniform(opts)
	case Normal:
		return s.normal(opts)
	case Triangular:
		return s.triangular(opts)
	}
	return 0, fmt.Errorf("unknown distribution kind %d", kind)
}

func (s *Sampler) uniform(o Options) float64 {
	return roundTo(o.Min+(o.Max-o.Min)*s.rnd.Float64(), o.Decimals)
}

func (s *Sampler) logUniform(o Options) (float64, error) {
	if o.Min == 0 || o.Max == 0 {
		return 0, fmt.Errorf("log-uniform bound is zero: %w", ErrDegenerateRange)
	}
	log0 := math.Log(math.Abs(o.Min))
	v := math.Exp(log0 + (math.Log(math.Abs(o.Max))-log0)*s.rnd.Float64())
	return roundTo(v, o.Decimals), nil
}

// normal draws by Box-Muller around the midpoint of (min, max) with a fixed
// standard deviation of 1, resampling until the rounded value falls
// strictly inside the interval.
func (s *Sampler) normal(o Options) (float64, error) {
	mean := (o.Max + o.Min) / 2
	return s.boundedResample(o, func() float64 {
		u1 := s.rnd.Float64()
		u2 := s.rnd.Float64()
		g := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
		return roundTo(g+mean, o.Decimals)
	})
}

// triangular draws with the mode pinned to the midpoint of (min, max),
// using the legacy engine's piecewise construction, resampling until the
// rounded value falls strictly inside the interval.
func (s *Sampler) triangular(o Options) (float64, error) {
	trend := (o.Max + o.Min) / 2
	span := o.Max - o.Min
	return s.boundedResample(o, func() float64 {
		x := o.Max * s.rnd.Float64()
		var v float64
		switch {
		case o.Min <= x && x < trend:
			v = o.Min + span*(2*(x-o.Min))/(span*(trend-o.Min))
		case x == trend:
			v = o.Min + span*(2/span)
		case trend < x && x <= o.Max:
			v = o.Min + span*(2*(o.Max-x))/(span*(o.Max-trend))
		}
		return roundTo(v, o.Decimals)
	})
}

// boundedResample draws until a value lands strictly inside (min, max),
// giving up after maxResampleDraws instead of looping forever.
func (s *Sampler) boundedResample(o Options, draw func() float64) (float64, error) {
	for i := 0; i < maxResampleDraws; i++ {
		v := draw()
		if v > o.Min && v < o.Max {
			return v, nil
		}
	}
	return 0, fmt.Errorf("no sample inside (%g, %g) after %d draws: %w",
		o.Min, o.Max, maxResampleDraws, ErrDegenerateRange)
}

// roundTo rounds half away from zero at the given number of decimals.
func roundTo(v float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(v*shift) / shift
}
