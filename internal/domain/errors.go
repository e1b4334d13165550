package domain

import "errors"

var (
	// ErrPreconditionRefused - действие требует выбранного отдела.
	ErrPreconditionRefused = errors.New("select a department unit first")

	// ErrInvalidTransition - действие недопустимо в текущем состоянии MFA-сессии.
	ErrInvalidTransition = errors.New("invalid mfa session transition")

	// ErrSessionBusy - сессия держит экран подтверждения, новый запрос не принят.
	ErrSessionBusy = errors.New("mfa session is busy")

	ErrUnscoredKind  = errors.New("event kind bypasses risk scoring")
	ErrUnknownAction = errors.New("unknown action")
)
