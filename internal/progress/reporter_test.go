package progress_test

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rohmanhakim/site-crawler/internal/metadata"
	"github.com/rohmanhakim/site-crawler/internal/progress"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collectingSink struct {
	mu     sync.Mutex
	events []progress.Event
}

func (s *collectingSink) OnPageCompleted(event progress.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *collectingSink) Events() []progress.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]progress.Event, len(s.events))
	copy(out, s.events)
	return out
}

type errorSpy struct {
	metadata.NoopSink
	mu     sync.Mutex
	causes []metadata.ErrorCause
}

func (s *errorSpy) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.causes = append(s.causes, cause)
}

func TestReporter_DeliversInOrder(t *testing.T) {
	sink := &collectingSink{}
	reporter := progress.NewReporter(sink)

	for i := 1; i <= 5; i++ {
		reporter.Report(progress.Event{ID: i, URL: "https://example.com/"})
	}
	require.True(t, reporter.Close())

	events := sink.Events()
	require.Len(t, events, 5)
	for i, e := range events {
		assert.Equal(t, i+1, e.ID)
	}
	assert.Zero(t, reporter.Dropped())
}

func TestReporter_NilSinkIsNoop(t *testing.T) {
	reporter := progress.NewReporter(nil)

	assert.NotPanics(t, func() {
		reporter.Report(progress.Event{ID: 1})
		assert.True(t, reporter.Close())
		assert.True(t, reporter.Close())
	})
	assert.Zero(t, reporter.Dropped())
}

func TestReporter_FullBufferDropsWithoutBlocking(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	blocking := progress.SinkFunc(func(event progress.Event) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	})

	reporter := progress.NewReporter(blocking, progress.WithBufferSize(1))
	reporter.Report(progress.Event{ID: 1})
	<-started

	// buffer holds one event while the sink is stuck on the first
	reporter.Report(progress.Event{ID: 2})

	done := make(chan struct{})
	go func() {
		reporter.Report(progress.Event{ID: 3})
		reporter.Report(progress.Event{ID: 4})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Report blocked on a full buffer")
	}
	assert.Equal(t, 2, reporter.Dropped())

	close(release)
	assert.True(t, reporter.Close())
}

func TestReporter_CloseIsBoundedByGrace(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	stuck := progress.SinkFunc(func(event progress.Event) {
		<-release
	})

	reporter := progress.NewReporter(stuck, progress.WithCloseGrace(50*time.Millisecond))
	reporter.Report(progress.Event{ID: 1})

	start := time.Now()
	assert.False(t, reporter.Close())
	assert.Less(t, time.Since(start), time.Second)
}

func TestReporter_ReportAfterCloseIsDropped(t *testing.T) {
	sink := &collectingSink{}
	reporter := progress.NewReporter(sink)
	require.True(t, reporter.Close())

	assert.NotPanics(t, func() {
		reporter.Report(progress.Event{ID: 1})
	})
	assert.Empty(t, sink.Events())
	assert.Equal(t, 1, reporter.Dropped())
}

func TestReporter_RecoversSinkPanic(t *testing.T) {
	spy := &errorSpy{}
	sink := &collectingSink{}
	panicky := progress.SinkFunc(func(event progress.Event) {
		if event.ID == 1 {
			panic("sink exploded")
		}
		sink.OnPageCompleted(event)
	})

	reporter := progress.NewReporter(panicky, progress.WithMetadataSink(spy))
	reporter.Report(progress.Event{ID: 1})
	reporter.Report(progress.Event{ID: 2})
	require.True(t, reporter.Close())

	assert.Equal(t, 1, reporter.Panicked())
	require.Len(t, sink.Events(), 1)
	assert.Equal(t, 2, sink.Events()[0].ID)
	assert.Equal(t, []metadata.ErrorCause{metadata.CauseInvariantViolation}, spy.causes)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	sink := progress.NewLogSink(logger)

	sink.OnPageCompleted(progress.Event{
		ID:         7,
		URL:        "https://example.com/docs",
		StatusCode: 200,
		Depth:      1,
		LinksFound: 3,
	})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "page completed", line["message"])
	assert.Equal(t, float64(7), line["id"])
	assert.Equal(t, "https://example.com/docs", line["url"])
	assert.Equal(t, float64(200), line["status"])
	assert.Equal(t, float64(3), line["links"])
	assert.NotContains(t, line, "errors")
}

func TestLogSink_WarnsOnErrors(t *testing.T) {
	var buf bytes.Buffer
	sink := progress.NewLogSink(zerolog.New(&buf))

	sink.OnPageCompleted(progress.Event{ID: 2, URL: "https://example.com/missing", StatusCode: 404, ErrorCount: 1})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, float64(1), line["errors"])
}
