package objectstore

import "fmt"

// FileListError reports a failed listing of a bucket prefix.
type FileListError struct {
	Bucket string
	Prefix string
	Err    error
}

// Error implements the error interface.
func (e *FileListError) Error() string {
	return fmt.Sprintf("listing s3://%s/%s failed: %v", e.Bucket, e.Prefix, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FileListError) Unwrap() error { return e.Err }

// FileFetchError reports a failed download of one object. Fetch failures are
// per-file and non-fatal to the batch.
type FileFetchError struct {
	Bucket string
	Key    string
	Err    error
}

// Error implements the error interface.
func (e *FileFetchError) Error() string {
	return fmt.Sprintf("fetching s3://%s/%s failed: %v", e.Bucket, e.Key, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FileFetchError) Unwrap() error { return e.Err }
