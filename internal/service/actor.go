package service

import "fmt"

// Actor is the resolved identity a request acts as. It is built once at the
// authentication boundary and passed into the domain services, so capability
// checks never reach back into the session layer.
type Actor struct {
	ID          uint
	DisplayName string
	Elevated    bool
	StudentID   *uint
	Volunteer   bool
}

// Role returns the label recorded in audit entries.
func (a Actor) Role() string {
	switch {
	case a.Elevated:
		return "staff"
	case a.Volunteer:
		return "volunteer"
	case a.StudentID != nil:
		return "student"
	default:
		return "anonymous"
	}
}

// CanVerify reports whether the actor may resolve the submission owned by the
// given student. Staff and volunteers qualify, but never for their own
// submissions regardless of elevation.
func (a Actor) CanVerify(submissionStudentID uint) bool {
	if !a.Elevated && !a.Volunteer {
		return false
	}

	if a.StudentID != nil && *a.StudentID == submissionStudentID {
		return false
	}

	return true
}

// ConsistencyError reports an invariant that should be structurally impossible
// to break. It is never recovered locally: the surrounding transaction rolls
// back and the operation fails loudly.
type ConsistencyError struct {
	Invariant string
	Detail    string
}

func (e *ConsistencyError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("consistency fault: %s", e.Invariant)
	}

	return fmt.Sprintf("consistency fault: %s (%s)", e.Invariant, e.Detail)
}
