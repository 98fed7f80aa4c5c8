package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// ratio is a sampling rate packed as numerator<<32 | denominator.
// A zero denominator lets everything through.
type ratioSampler struct {
	rate atomic.Uint64
	seen atomic.Uint64
}

func newRatioSampler(numerator, denominator int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(numerator, denominator)
	return s
}

// Set replaces the rate and restarts the cycle. Non-positive values disable sampling.
func (s *ratioSampler) Set(numerator, denominator int) {
	var packed uint64
	if numerator > 0 && denominator > 0 {
		packed = uint64(uint32(min(numerator, denominator)))<<32 | uint64(uint32(denominator))
	}
	s.rate.Store(packed)
	s.seen.Store(0)
}

// Allow passes the first numerator events of every denominator-long cycle.
func (s *ratioSampler) Allow() bool {
	packed := s.rate.Load()
	den := packed & 0xffffffff
	if den == 0 {
		return true
	}
	num := packed >> 32
	pos := (s.seen.Add(1) - 1) % den
	return pos < num
}

// parseRatioSpec accepts "n/d" or a bare "d" meaning 1/d. Anything else yields 0/0.
func parseRatioSpec(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	num, den, hasSlash := strings.Cut(spec, "/")
	if !hasSlash {
		num, den = "1", spec
	}
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil {
		return 0, 0
	}
	d, err := strconv.Atoi(strings.TrimSpace(den))
	if err != nil || d <= 0 {
		return 0, 0
	}
	return n, d
}
