package storage

// Persistence

type WriteResult struct {
	path        string
	count       int
	contentHash string
}

func NewWriteResult(
	path string,
	count int,
	contentHash string,
) WriteResult {
	return WriteResult{
		path:        path,
		count:       count,
		contentHash: contentHash,
	}
}

// Path is empty when the results went to a stream.
func (w *WriteResult) Path() string {
	return w.path
}

func (w *WriteResult) Count() int {
	return w.count
}

// ContentHash fingerprints the encoded document, so identical runs can be
// compared without diffing the files.
func (w *WriteResult) ContentHash() string {
	return w.contentHash
}
