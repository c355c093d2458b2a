package catalog

import "errors"

var (
	// ErrFormatNotFound indicates the format doesn't exist.
	ErrFormatNotFound = errors.New("format not found")
	// ErrPaperNotFound indicates the paper doesn't exist.
	ErrPaperNotFound = errors.New("paper not found")
	// ErrCoverTypeNotFound indicates the cover type doesn't exist.
	ErrCoverTypeNotFound = errors.New("cover type not found")
)
