package domain

import "errors"

// MaxAttemptsMessage is the user-facing text for ErrMaxAttempts.
const MaxAttemptsMessage = "Maximum polling attempts reached. Task may still be processing."

var (
	// ErrValidation is returned when a required input is missing. No network call is made.
	ErrValidation = errors.New("missing information")

	// ErrUnhealthy is returned when the agent service health probe fails.
	ErrUnhealthy = errors.New("api service unavailable")

	// ErrLaunch marks a rejected or failed task creation.
	ErrLaunch = errors.New("task launch failed")

	// ErrPollTerminal marks a non-transient status failure.
	ErrPollTerminal = errors.New("task status failed")

	// ErrMaxAttempts is returned when the polling budget is exhausted.
	ErrMaxAttempts = errors.New("maximum polling attempts reached")

	// ErrSink marks a history persistence failure. It never reaches the user.
	ErrSink = errors.New("history sink")

	ErrNotFound = errors.New("not found")
)
