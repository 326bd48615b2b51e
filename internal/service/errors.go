package service

import (
	"errors"
	"fmt"
)

// Классы ошибок. Контроллеры определяют HTTP-статус через errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
	ErrWindow     = errors.New("outside start window")
)

var (
	ErrUserNotFound      = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrTutorNotFound     = fmt.Errorf("%w: tutor not found", ErrNotFound)
	ErrSlotNotFound      = fmt.Errorf("%w: slot not found", ErrNotFound)
	ErrSessionNotFound   = fmt.Errorf("%w: session not found", ErrNotFound)
	ErrSeriesNotFound    = fmt.Errorf("%w: recurring series not found", ErrNotFound)
	ErrMeetingNotStarted = fmt.Errorf("%w: meeting room not created yet", ErrNotFound)

	ErrSlotUnavailable  = fmt.Errorf("%w: slot is no longer available", ErrConflict)
	ErrTimeConflict     = fmt.Errorf("%w: time conflicts with an existing session", ErrConflict)
	ErrInvalidState     = fmt.Errorf("%w: session status does not allow this action", ErrConflict)
	ErrNotTutor         = fmt.Errorf("%w: user is not a tutor", ErrForbidden)
	ErrSelfBooking      = fmt.Errorf("%w: tutors cannot book their own time", ErrForbidden)
	ErrNotParticipant   = fmt.Errorf("%w: user is not a participant of the session", ErrForbidden)
	ErrNotSlotOwner     = fmt.Errorf("%w: slot belongs to another tutor", ErrForbidden)
	ErrJoinUnauthorized = fmt.Errorf("%w: access denied", ErrForbidden)
	ErrOnlyTutor        = fmt.Errorf("%w: only the tutor can do this", ErrForbidden)
	ErrOnlyStudent      = fmt.Errorf("%w: only the student can do this", ErrForbidden)
	ErrAdminOnly        = fmt.Errorf("%w: admin access required", ErrForbidden)

	ErrTooEarly     = fmt.Errorf("%w: session cannot be started yet", ErrWindow)
	ErrWindowPassed = fmt.Errorf("%w: start window has passed", ErrWindow)
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
