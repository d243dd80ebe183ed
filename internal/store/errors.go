package store

import "errors"

// ErrIntegrity marks unrecoverable faults: an operation that requires
// a persisted entity was handed one without an identifier, or a
// persisted row references another row that does not exist. These
// indicate caller misuse or database corruption, not conditions to
// handle and retry. Check with errors.Is.
//
// Plain "doesn't exist" lookups are not errors; those return a nil
// result instead.
var ErrIntegrity = errors.New("repository store integrity violation")
