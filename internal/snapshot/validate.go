package snapshot

import "fmt"

// Reason classifies why a snapshot was rejected.
type Reason string

const (
	ReasonFormat       Reason = "format"
	ReasonDataset      Reason = "dataset"
	ReasonIdentity     Reason = "identity"
	ReasonEmptyHistory Reason = "empty_history"
	ReasonUnresolvable Reason = "unresolvable"
)

// ValidationError reports a specific, human-actionable rejection. The prior
// in-memory state of whoever attempted the import is untouched.
type ValidationError struct {
	Reason Reason
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("snapshot rejected (%s): %s", e.Reason, e.Detail)
}

// Validate checks the snapshot against the active session. Dataset must
// always match; identity is compared by ID unless strict is false (the
// ground-truth reconciler imports other annotators' files leniently).
func (s *Snapshot) Validate(dataset string, identity Identity, strict bool) error {
	if s.Format != FormatTag {
		return &ValidationError{
			Reason: ReasonFormat,
			Detail: fmt.Sprintf("format tag %q does not match %q; this file was written by an incompatible version", s.Format, FormatTag),
		}
	}
	if s.Dataset != dataset {
		return &ValidationError{
			Reason: ReasonDataset,
			Detail: fmt.Sprintf("snapshot is for dataset %q but the active dataset is %q", s.Dataset, dataset),
		}
	}
	if strict && s.Identity.ID != identity.ID {
		return &ValidationError{
			Reason: ReasonIdentity,
			Detail: fmt.Sprintf("snapshot belongs to %q (%s) but you are signed in as %q (%s)", s.Identity.Name, s.Identity.ID, identity.Name, identity.ID),
		}
	}
	switch s.Mode {
	case ModePairwise, ModeBattle:
	default:
		return &ValidationError{
			Reason: ReasonFormat,
			Detail: fmt.Sprintf("unknown labeling mode %q", s.Mode),
		}
	}
	return nil
}

// ClampCursor clamps a stored cursor into [−1, length−1]. A snapshot written
// before any work was drawn legitimately carries −1.
func ClampCursor(cursor, length int) int {
	if length == 0 {
		return -1
	}
	if cursor < 0 {
		return 0
	}
	if cursor >= length {
		return length - 1
	}
	return cursor
}
