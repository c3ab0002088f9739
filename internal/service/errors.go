package service

import "errors"

// Terminal, locally detected failures. Handlers match these with errors.Is
// and map them to HTTP statuses; none of them is retried.
var (
	// ErrNotFound is returned when a referenced user, message or feature
	// request does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrForbidden is returned when the caller is authenticated but not
	// allowed to perform the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrEmptyContent is returned when letter or description content is
	// empty after trimming.
	ErrEmptyContent = errors.New("content is empty")

	// ErrInvalidDelayRange is returned when delay bounds are negative or
	// min exceeds max.
	ErrInvalidDelayRange = errors.New("invalid delay range")

	// ErrBudgetExceeded is returned when a non-admin user has spent all of
	// today's action points. Distinct from ErrForbidden so callers can
	// render "try again tomorrow" instead of a permissions message.
	ErrBudgetExceeded = errors.New("daily action budget exceeded")

	// ErrInvalidVoteType is returned for vote types other than UPVOTE and
	// DOWNVOTE.
	ErrInvalidVoteType = errors.New("invalid vote type")
)
