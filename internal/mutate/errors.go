package mutate

import (
	"errors"
	"fmt"
)

// Validation and invariant sentinels. Precondition failures surface before
// any field mutation, so a rejected operation leaves no partial state.
var (
	ErrInvalidTitle               = errors.New("invalid title: empty")
	ErrCannotActivateDeletedStack = errors.New("cannot activate a deleted stack")
	ErrCannotActivateDraftStack   = errors.New("cannot activate a draft stack")
	ErrNotADraft                  = errors.New("stack is not a draft")
	ErrNoSnapshotPayload          = errors.New("event does not carry a stack snapshot")
)

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// MaxActiveArcsError rejects creating or resuming an active arc past the
// configured bound. Nothing has been mutated when it is returned.
type MaxActiveArcsError struct {
	Limit int
}

func (e MaxActiveArcsError) Error() string {
	return fmt.Sprintf("max active arcs exceeded (limit %d)", e.Limit)
}

// MultipleActiveStacksError is a postcondition self-check, not a user
// error: if it ever fires, the activation algorithm itself is broken.
// It is surfaced rather than silently corrected.
type MultipleActiveStacksError struct {
	Count int
}

func (e MultipleActiveStacksError) Error() string {
	return fmt.Sprintf("invariant violated: %d stacks flagged active", e.Count)
}
