package engine

import "time"

// FrameSource delivers host animation frames to Run.
type FrameSource interface {
	C() <-chan time.Time
	Stop()
}

// TickerSource is a FrameSource backed by a time.Ticker.
type TickerSource struct {
	t *time.Ticker
}

// NewTickerSource ticks every interval.
func NewTickerSource(interval time.Duration) *TickerSource {
	if interval <= 0 {
		interval = time.Second / 60
	}
	return &TickerSource{t: time.NewTicker(interval)}
}

// C returns the tick channel.
func (s *TickerSource) C() <-chan time.Time { return s.t.C }

// Stop stops the ticker.
func (s *TickerSource) Stop() { s.t.Stop() }

// ChanSource is a FrameSource fed by the caller, for tests and hosts that
// already own an animation loop.
type ChanSource struct {
	ch chan time.Time
}

// NewChanSource creates a source with a buffer of size frames.
func NewChanSource(size int) *ChanSource {
	return &ChanSource{ch: make(chan time.Time, size)}
}

// Push queues one frame. It blocks while the buffer is full.
func (s *ChanSource) Push(t time.Time) { s.ch <- t }

// C returns the frame channel.
func (s *ChanSource) C() <-chan time.Time { return s.ch }

// Stop is a no-op; the caller owns the channel.
func (s *ChanSource) Stop() {}
