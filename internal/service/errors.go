package service

import "errors"

// Business-rule violations. These are expected outcomes the caller translates
// for the end user; they never corrupt state.
var (
	// ErrEventEnded indicates the event slot finished before the request.
	ErrEventEnded = errors.New("event already ended")
	// ErrDuplicateRegistration indicates a registration already exists for the pair.
	ErrDuplicateRegistration = errors.New("already registered for this event")
	// ErrRewardInactive indicates the reward is not currently redeemable.
	ErrRewardInactive = errors.New("reward not active")
	// ErrRewardOutOfStock indicates the tracked stock is exhausted.
	ErrRewardOutOfStock = errors.New("reward out of stock")
	// ErrInsufficientPoints indicates the available balance cannot cover the cost.
	ErrInsufficientPoints = errors.New("insufficient points")
	// ErrMonthlyCapReached indicates the activity's per-student monthly cap is hit.
	ErrMonthlyCapReached = errors.New("monthly cap reached for this activity")
	// ErrRedemptionNotPending indicates fulfillment targeted a resolved redemption.
	ErrRedemptionNotPending = errors.New("redemption not pending")
)

// Authorization failures.
var (
	// ErrNotAuthorized indicates the actor may not verify this submission.
	ErrNotAuthorized = errors.New("not allowed to verify this submission")
	// ErrNotElevated indicates the operation requires a staff actor.
	ErrNotElevated = errors.New("staff access required")
	// ErrNotRegistrationOwner indicates the actor does not own the registration.
	ErrNotRegistrationOwner = errors.New("registration belongs to another user")
	// ErrStudentProfileRequired indicates the actor has no student profile.
	ErrStudentProfileRequired = errors.New("student profile required")
)

// Lookup failures shared across services.
var (
	// ErrEventNotFound indicates the event slot was not located.
	ErrEventNotFound = errors.New("event not found")
	// ErrRegistrationNotFound indicates the registration was not located.
	ErrRegistrationNotFound = errors.New("registration not found")
	// ErrSubmissionNotFound indicates the submission was not located.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrActivityNotFound indicates the activity was not located.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrRewardNotFound indicates the reward was not located.
	ErrRewardNotFound = errors.New("reward not found")
	// ErrRedemptionNotFound indicates the redemption was not located.
	ErrRedemptionNotFound = errors.New("redemption not found")
)

// IsConsistencyFault reports whether err carries a broken-invariant fault.
func IsConsistencyFault(err error) bool {
	var fault *ConsistencyError
	return errors.As(err, &fault)
}
