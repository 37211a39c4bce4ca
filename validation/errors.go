package validation

import "errors"

var (
	ErrInvalidFileType = errors.New("invalid file type")
	ErrUnknownType     = errors.New("could not determine media type")
)
