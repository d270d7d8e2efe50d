package session

import "fmt"

// EmptyDatasetError reports a reload in which no file produced usable
// records. Partial success is normal; this error means total failure of the
// batch.
type EmptyDatasetError struct {
	Files   int
	Skipped int
}

// Error implements the error interface.
func (e *EmptyDatasetError) Error() string {
	return fmt.Sprintf("no usable records in batch: %d files listed, %d skipped", e.Files, e.Skipped)
}
