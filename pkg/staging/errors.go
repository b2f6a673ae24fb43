package staging

import "errors"

// ErrCorruption is returned when a staged record's CRC32 does not
// match its encoded bytes.
var ErrCorruption = errors.New("staging: record corruption detected")
