package services

import "fmt"

// LineupErrorCode classifies user-actionable rejections from lineup and
// matchup operations. None of these are retried automatically.
type LineupErrorCode string

const (
	LineupNotFound   LineupErrorCode = "not_found"
	LineupForbidden  LineupErrorCode = "forbidden"
	LineupLocked     LineupErrorCode = "locked"
	LineupBadAthlete LineupErrorCode = "bad_athlete"
	LineupDuplicate  LineupErrorCode = "duplicate"
	LineupIncomplete LineupErrorCode = "incomplete"
)

// LineupError is a typed rejection surfaced to the transport layer.
type LineupError struct {
	Code    LineupErrorCode
	Message string
}

func (e *LineupError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newLineupError(code LineupErrorCode, format string, args ...interface{}) *LineupError {
	return &LineupError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ScheduleError rejects schedule operations whose preconditions fail.
type ScheduleError struct {
	Message string
}

func (e *ScheduleError) Error() string {
	return e.Message
}

// ErrScheduleFrozen rejects regeneration once any matchup in the league has
// a final result.
var ErrScheduleFrozen = &ScheduleError{Message: "schedule is frozen: at least one matchup already has a result"}
