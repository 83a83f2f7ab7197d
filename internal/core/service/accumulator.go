package service

// Accumulator keeps one running-average window per register, indexed by
// register table position.
type Accumulator struct {
	windows []window
}

type window struct {
	sum       float64
	count     uint
	threshold uint
}

func NewAccumulator(thresholds []uint) *Accumulator {
	windows := make([]window, len(thresholds))
	for i, th := range thresholds {
		if th == 0 {
			th = 1
		}
		windows[i].threshold = th
	}
	return &Accumulator{windows: windows}
}

func (a *Accumulator) Add(idx int, value float32) {
	w := &a.windows[idx]
	w.sum += float64(value)
	w.count++
}

func (a *Accumulator) ShouldFlush(idx int) bool {
	w := &a.windows[idx]
	return w.count >= w.threshold
}

// Flush returns the mean of the window and empties it.
func (a *Accumulator) Flush(idx int) float32 {
	w := &a.windows[idx]
	if w.count == 0 {
		return 0
	}
	mean := w.sum / float64(w.count)
	w.sum = 0
	w.count = 0
	return float32(mean)
}

func (a *Accumulator) Count(idx int) uint {
	return a.windows[idx].count
}

func (a *Accumulator) Threshold(idx int) uint {
	return a.windows[idx].threshold
}

func (a *Accumulator) Len() int {
	return len(a.windows)
}
