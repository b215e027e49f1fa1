package board

import "github.com/google/uuid"

// ID is the stable identifier type for objects, nets and tracks. Using
// github.com/google/uuid instead of a hand-rolled counter means ids stay
// unambiguous across add/remove/prune cycles without a monotonic counter
// that the facade would otherwise have to persist and never roll back.
type ID = uuid.UUID

// NewID mints a fresh random identifier.
func NewID() ID { return uuid.New() }

// NilID is the zero-value identifier, used as a "no parent" / "no pin"
// sentinel throughout the arena.
var NilID ID = uuid.Nil
