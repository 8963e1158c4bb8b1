package progress

// Event is emitted once per finalized page result.
type Event struct {
	ID         int
	URL        string
	StatusCode int
	Depth      int
	LinksFound int
	ErrorCount int
}

// Sink receives progress events. Implementations run on the reporter's
// delivery goroutine and must not call back into the crawl.
type Sink interface {
	OnPageCompleted(event Event)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(event Event)

func (f SinkFunc) OnPageCompleted(event Event) {
	f(event)
}
