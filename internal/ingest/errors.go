package ingest

import "fmt"

// Reasons a file can be rejected by the parser.
const (
	ReasonUnparseable = "unparseable"
	ReasonEmpty       = "empty"
	ReasonHeaderOnly  = "header-only"
	ReasonNotAList    = "not a list"
)

// FileFormatError reports a file whose content could not be interpreted as
// any of the supported log shapes. The file is skipped; the batch goes on.
type FileFormatError struct {
	Key    string
	Reason string
}

// Error implements the error interface.
func (e *FileFormatError) Error() string {
	return fmt.Sprintf("file %s has unsupported format: %s", e.Key, e.Reason)
}

// EmptyFileError reports a file whose rows were all dropped during
// normalization. Like format errors, it is per-file and non-fatal.
type EmptyFileError struct {
	Key string
}

// Error implements the error interface.
func (e *EmptyFileError) Error() string {
	return fmt.Sprintf("file %s yielded no usable records", e.Key)
}
