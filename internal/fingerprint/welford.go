package fingerprint

import "math"

// RunningStats is Welford's numerically stable online mean/variance.
// Every update is O(1).
type RunningStats struct {
	Count int
	mean  float64
	m2    float64
}

// Update incorporates one value.
func (r *RunningStats) Update(value float64) {
	r.Count++
	delta := value - r.mean
	r.mean += delta / float64(r.Count)
	r.m2 += delta * (value - r.mean)
}

// Mean returns the running mean, 0 before any update.
func (r *RunningStats) Mean() float64 {
	if r.Count == 0 {
		return 0
	}

	return r.mean
}

// Variance returns the population variance.
func (r *RunningStats) Variance() float64 {
	if r.Count < 1 {
		return 0
	}

	return r.m2 / float64(r.Count)
}

// Std returns the population standard deviation.
func (r *RunningStats) Std() float64 {
	return math.Sqrt(r.Variance())
}

// Reset restores the zero state.
func (r *RunningStats) Reset() {
	*r = RunningStats{}
}

// SlidingWindow is a fixed-capacity ring of recent values.
type SlidingWindow struct {
	values []float64
	head   int
	size   int
}

// NewSlidingWindow allocates a window holding at most capacity values.
func NewSlidingWindow(capacity int) *SlidingWindow {
	if capacity < 1 {
		capacity = 1
	}

	return &SlidingWindow{values: make([]float64, capacity)}
}

// Append adds a value, evicting the oldest when at capacity.
func (w *SlidingWindow) Append(value float64) {
	w.values[w.head] = value
	w.head = (w.head + 1) % len(w.values)

	if w.size < len(w.values) {
		w.size++
	}
}

// Values returns the window contents, oldest first.
func (w *SlidingWindow) Values() []float64 {
	out := make([]float64, 0, w.size)

	start := w.head - w.size
	if start < 0 {
		start += len(w.values)
	}

	for i := range w.size {
		out = append(out, w.values[(start+i)%len(w.values)])
	}

	return out
}

// Len returns the current fill.
func (w *SlidingWindow) Len() int {
	return w.size
}

// Full reports whether the window is at capacity.
func (w *SlidingWindow) Full() bool {
	return w.size == len(w.values)
}

// Clear empties the window.
func (w *SlidingWindow) Clear() {
	w.head = 0
	w.size = 0
}

// SampleRing buffers raw audio for periodic heavy re-analysis. Appending a
// frame is amortized O(frame); Snapshot copies out the current contents in
// order.
type SampleRing struct {
	samples []float64
	head    int
	size    int
}

// NewSampleRing allocates a ring holding at most capacity samples.
func NewSampleRing(capacity int) *SampleRing {
	if capacity < 1 {
		capacity = 1
	}

	return &SampleRing{samples: make([]float64, capacity)}
}

// Extend appends all samples of the frame, evicting the oldest.
func (r *SampleRing) Extend(frame []float64) {
	for _, s := range frame {
		r.samples[r.head] = s
		r.head = (r.head + 1) % len(r.samples)

		if r.size < len(r.samples) {
			r.size++
		}
	}
}

// Snapshot copies the buffered audio, oldest sample first.
func (r *SampleRing) Snapshot() []float64 {
	out := make([]float64, r.size)

	start := r.head - r.size
	if start < 0 {
		start += len(r.samples)
	}

	for i := range r.size {
		out[i] = r.samples[(start+i)%len(r.samples)]
	}

	return out
}

// Len returns the buffered sample count.
func (r *SampleRing) Len() int {
	return r.size
}

// Drop discards the oldest n samples.
func (r *SampleRing) Drop(n int) {
	if n >= r.size {
		r.Clear()

		return
	}

	r.size -= n
}

// Clear empties the ring.
func (r *SampleRing) Clear() {
	r.head = 0
	r.size = 0
}
