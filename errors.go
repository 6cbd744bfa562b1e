package sched653

import "fmt"

// ErrorCode classifies the recoverable error kinds a control-plane
// operation can return.
type ErrorCode uint32

const (
	// ErrInvalidArgument: a schedule or domain-param request failed
	// feasibility or shape checks. The instance is left untouched.
	ErrInvalidArgument ErrorCode = iota + 1

	// ErrOutOfMemory: allocation of an instance or record failed.
	// Partial state is rolled back by the caller of the failing
	// allocation.
	ErrOutOfMemory

	// ErrCopyFault: encoding/decoding a control-plane message buffer
	// failed. No state change.
	ErrCopyFault
)

func (c ErrorCode) String() string {
	switch c {
	case ErrInvalidArgument:
		return "invalid argument"
	case ErrOutOfMemory:
		return "out of memory"
	case ErrCopyFault:
		return "copy fault"
	default:
		return fmt.Sprintf("unknown error code %d", uint32(c))
	}
}

// ScheduleError is the recoverable error type returned by control-plane
// operations, carrying a numeric code plus a human-readable message.
type ScheduleError struct {
	Code ErrorCode
	Msg  string
}

func (e *ScheduleError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("sched653: %s: %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("sched653: %s", e.Code)
}

func invalidArgument(format string, args ...any) *ScheduleError {
	return &ScheduleError{Code: ErrInvalidArgument, Msg: fmt.Sprintf(format, args...)}
}

func outOfMemory(format string, args ...any) *ScheduleError {
	return &ScheduleError{Code: ErrOutOfMemory, Msg: fmt.Sprintf(format, args...)}
}

func copyFault(format string, args ...any) *ScheduleError {
	return &ScheduleError{Code: ErrCopyFault, Msg: fmt.Sprintf(format, args...)}
}

// Common sentinel errors for conditions control-plane callers commonly
// want to match on directly.
var (
	ErrNoCapacity       = &ScheduleError{Code: ErrOutOfMemory, Msg: "schedule table at MaxEntries capacity"}
	ErrTooManyProviders = &ScheduleError{Code: ErrInvalidArgument, Msg: "entry exceeds MaxProviders"}
	ErrInfeasible       = &ScheduleError{Code: ErrInvalidArgument, Msg: "sum of entry runtimes exceeds major frame"}
	ErrUnknownDomain    = &ScheduleError{Code: ErrInvalidArgument, Msg: "unknown domain id"}
)

// FatalInvariantViolation is the unrecoverable error kind: the
// dispatcher detected a broken real-time guarantee (a missed major
// frame, or a nil elected VCPU after validation). It is never returned
// as an error value — it is raised as a panic, and the only correct
// recovery is to let the process crash.
type FatalInvariantViolation struct {
	Reason string
}

func (f FatalInvariantViolation) Error() string {
	return fmt.Sprintf("sched653: fatal invariant violation: %s", f.Reason)
}

func panicFatal(format string, args ...any) {
	panic(FatalInvariantViolation{Reason: fmt.Sprintf(format, args...)})
}
