package progress

import "github.com/rs/zerolog"

// LogSink writes one log line per completed page.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) OnPageCompleted(event Event) {
	evt := s.logger.Info()
	if event.ErrorCount > 0 {
		evt = s.logger.Warn().Int("errors", event.ErrorCount)
	}
	evt.
		Int("id", event.ID).
		Str("url", event.URL).
		Int("status", event.StatusCode).
		Int("depth", event.Depth).
		Int("links", event.LinksFound).
		Msg("page completed")
}
