package indexer

import "sync"

// ProgressSink receives indexing progress as a percentage in [0, 100].
// Implementations must not block.
type ProgressSink interface {
	Progress(percent int)
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(percent int)

// Progress calls f(percent).
func (f ProgressFunc) Progress(percent int) { f(percent) }

// ChannelSink delivers progress values over a buffered channel.
// When the buffer is full the oldest value is dropped, so the latest value is always kept.
type ChannelSink struct {
	ch chan int
}

// NewChannelSink creates a ChannelSink with the given buffer size (minimum 1).
func NewChannelSink(buffer int) *ChannelSink {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelSink{ch: make(chan int, buffer)}
}

// Progress enqueues percent without blocking.
func (s *ChannelSink) Progress(percent int) {
	for {
		select {
		case s.ch <- percent:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

// C returns the receive side of the sink.
func (s *ChannelSink) C() <-chan int {
	return s.ch
}

// Close closes the channel. Progress must not be called afterwards.
func (s *ChannelSink) Close() {
	close(s.ch)
}

// progressReporter turns completions into non-decreasing percentages.
type progressReporter struct {
	mu    sync.Mutex
	sink  ProgressSink
	total int
	last  int
}

func newProgressReporter(sink ProgressSink, total int) *progressReporter {
	return &progressReporter{sink: sink, total: total}
}

// report publishes floor(processed*100/total). Calls are serialised.
func (p *progressReporter) report(processed int64) {
	if p.sink == nil || p.total == 0 {
		return
	}
	percent := int(processed * 100 / int64(p.total))
	if percent > 100 {
		percent = 100
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if percent < p.last {
		percent = p.last
	}
	p.last = percent
	p.sink.Progress(percent)
}
