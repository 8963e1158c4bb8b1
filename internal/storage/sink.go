package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"syscall"
	"time"

	"github.com/rohmanhakim/site-crawler/internal/metadata"
	"github.com/rohmanhakim/site-crawler/internal/results"
	"github.com/rohmanhakim/site-crawler/pkg/failure"
	"github.com/rohmanhakim/site-crawler/pkg/fileutil"
	"github.com/rohmanhakim/site-crawler/pkg/hashutil"
)

/*
Responsibilities
- Persist the crawl results of a run as one JSON document
- Strip response bodies unless asked to keep them

Output Characteristics
- Results keep the order they were given in (ascending task id)
- Missing parent directories are created
- Overwrite-safe reruns
*/

type Sink interface {
	Write(crawled []results.CrawlResult) (WriteResult, failure.ClassifiedError)
}

type LocalSink struct {
	metadataSink metadata.MetadataSink
	path         string
	includeBody  bool
}

// NewLocalSink writes to the file at path.
func NewLocalSink(
	metadataSink metadata.MetadataSink,
	path string,
	includeBody bool,
) LocalSink {
	return LocalSink{
		metadataSink: metadataSink,
		path:         path,
		includeBody:  includeBody,
	}
}

func (s *LocalSink) Write(crawled []results.CrawlResult) (WriteResult, failure.ClassifiedError) {
	writeResult, err := writeFile(s.path, crawled, s.includeBody)
	if err != nil {
		s.metadataSink.RecordError(
			time.Now(),
			"storage",
			"LocalSink.Write",
			mapStorageErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrWritePath, err.Path),
			},
		)
		return WriteResult{}, err
	}
	return writeResult, nil
}

// StreamSink writes to an already open stream such as stdout.
type StreamSink struct {
	metadataSink metadata.MetadataSink
	w            io.Writer
	includeBody  bool
}

func NewStreamSink(
	metadataSink metadata.MetadataSink,
	w io.Writer,
	includeBody bool,
) StreamSink {
	return StreamSink{
		metadataSink: metadataSink,
		w:            w,
		includeBody:  includeBody,
	}
}

func (s *StreamSink) Write(crawled []results.CrawlResult) (WriteResult, failure.ClassifiedError) {
	writeResult, err := writeStream(s.w, "", crawled, s.includeBody)
	if err != nil {
		s.metadataSink.RecordError(
			time.Now(),
			"storage",
			"StreamSink.Write",
			mapStorageErrorToMetadataCause(err),
			err.Error(),
			nil,
		)
		return WriteResult{}, err
	}
	return writeResult, nil
}

// Encode renders the results as an indented JSON array.
func Encode(crawled []results.CrawlResult, includeBody bool) ([]byte, error) {
	out := make([]results.CrawlResult, 0, len(crawled))
	for _, r := range crawled {
		if !includeBody {
			r = r.WithoutBody()
		}
		out = append(out, r)
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeFile(
	path string,
	crawled []results.CrawlResult,
	includeBody bool,
) (WriteResult, *StorageError) {
	file, fileErr := fileutil.CreateFile(path)
	if fileErr != nil {
		return WriteResult{}, &StorageError{
			Message:   fileErr.Error(),
			Retryable: false,
			Cause:     ErrCausePathError,
			Path:      path,
		}
	}

	writeResult, err := writeStream(file, path, crawled, includeBody)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = writeFailure(closeErr, path)
	}
	if err != nil {
		return WriteResult{}, err
	}
	return writeResult, nil
}

func writeStream(
	w io.Writer,
	path string,
	crawled []results.CrawlResult,
	includeBody bool,
) (WriteResult, *StorageError) {
	content, err := Encode(crawled, includeBody)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseEncodingFailed,
			Path:      path,
		}
	}
	if _, err := w.Write(content); err != nil {
		return WriteResult{}, writeFailure(err, path)
	}
	return NewWriteResult(path, len(crawled), hashutil.ContentHash(content)), nil
}

func writeFailure(err error, path string) *StorageError {
	cause := ErrCauseWriteFailure
	retryable := false
	if errors.Is(err, syscall.ENOSPC) {
		cause = ErrCauseDiskFull
		retryable = true
	}
	return &StorageError{
		Message:   err.Error(),
		Retryable: retryable,
		Cause:     cause,
		Path:      path,
	}
}
