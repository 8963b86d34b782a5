package core

// Buffer holds one group's state. It is owned by the evaluator that created
// it and must not be shared between goroutines.
type Buffer[S any] struct {
	owner   *Evaluator[S]
	summary S
	config  Config
	bound   bool
	ignored int
}

// Bound reports whether the buffer has fixed its configuration.
func (buf *Buffer[S]) Bound() bool {
	return buf.bound
}

// Config is the bound configuration, zero until Bound.
func (buf *Buffer[S]) Config() Config {
	return buf.config
}

// Ignored counts configuration values that were discarded.
func (buf *Buffer[S]) Ignored() int {
	return buf.ignored
}

// Summary returns the current summary, if any.
func (buf *Buffer[S]) Summary() (S, bool) {
	return buf.summary, buf.bound
}

func (buf *Buffer[S]) reset() {
	var zero S
	buf.summary = zero
	buf.config = Config{}
	buf.bound = false
	buf.ignored = 0
}

func (buf *Buffer[S]) bind(summary S, config Config) {
	buf.summary = summary
	buf.config = config
	buf.bound = true
}
