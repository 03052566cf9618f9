// Package dsputil provides the stateless spectral, temporal and harmonic
// building blocks shared by the batch and streaming analyzers.
package dsputil

import (
	"errors"
	"math"
	"sync"
)

// WindowType enumerates supported analysis windows.
type WindowType string

const (
	WindowHann     WindowType = "hann"
	WindowHamming  WindowType = "hamming"
	WindowBlackman WindowType = "blackman"
)

var ErrUnknownWindow = errors.New("unknown window type (valid: hann, hamming, blackman)")

// ParseWindowType validates a window name. Empty means hann.
func ParseWindowType(s string) (WindowType, error) {
	switch s {
	case "hann", "":
		return WindowHann, nil
	case "hamming":
		return WindowHamming, nil
	case "blackman":
		return WindowBlackman, nil
	default:
		return "", ErrUnknownWindow
	}
}

type windowKey struct {
	typ  WindowType
	size int
}

// Process-global window cache. Inserts are the only shared mutation in the
// module; the getter is double-checked so concurrent first requests for the
// same size never observe a partially built slice.
var (
	windowMu    sync.RWMutex
	windowCache = map[windowKey][]float64{}
)

// GetWindow returns the cached window of the given type and size, computing
// and caching it on first use. The returned slice is shared: callers must
// not mutate it.
func GetWindow(typ WindowType, size int) []float64 {
	key := windowKey{typ, size}

	windowMu.RLock()
	w, ok := windowCache[key]
	windowMu.RUnlock()

	if ok {
		return w
	}

	windowMu.Lock()
	defer windowMu.Unlock()

	// Recheck under the write lock: another goroutine may have inserted
	// between the read unlock and here.
	if w, ok := windowCache[key]; ok {
		return w
	}

	w = makeWindow(typ, size)
	windowCache[key] = w

	return w
}

// HannWindow is the module default, equivalent to GetWindow(WindowHann, size).
func HannWindow(size int) []float64 {
	return GetWindow(WindowHann, size)
}

func makeWindow(typ WindowType, size int) []float64 {
	w := make([]float64, size)
	if size == 1 {
		w[0] = 1

		return w
	}

	n := float64(size - 1)

	for i := range w {
		x := 2 * math.Pi * float64(i) / n

		switch typ {
		case WindowHamming:
			w[i] = 0.54 - 0.46*math.Cos(x)
		case WindowBlackman:
			w[i] = 0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x)
		default: // hann
			w[i] = 0.5 * (1 - math.Cos(x))
		}
	}

	return w
}
