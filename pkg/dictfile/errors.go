package dictfile

import "errors"

var (
	// ErrBadFileMagic is returned when a file's leading u16 does not
	// match SpecMagic.
	ErrBadFileMagic = errors.New("dictfile: unrecognized file magic")
	// ErrBadMetadata is returned when the metadata JSON block fails to
	// parse.
	ErrBadMetadata = errors.New("dictfile: malformed metadata")
)
