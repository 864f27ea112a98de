package affiliate

import "errors"

var (
	// ErrUnknownCode means the promotion code does not resolve to an approved
	// affiliate profile.
	ErrUnknownCode = errors.New("unknown promotion code")

	// ErrAlreadyTracked means the visitor is already attributed to a different
	// affiliate.
	ErrAlreadyTracked = errors.New("visitor already tracked for another affiliate")

	// ErrProfileExists means the user is already enrolled in the program.
	ErrProfileExists = errors.New("affiliate profile already exists")

	// ErrProfileNotFound means no affiliate profile exists for the lookup.
	ErrProfileNotFound = errors.New("affiliate profile not found")

	// ErrNothingToPay means the affiliate has no pending commissions to schedule.
	ErrNothingToPay = errors.New("no pending commissions")

	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("record not found")
)
