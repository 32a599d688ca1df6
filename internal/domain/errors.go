package domain

import "errors"

var (
	ErrAccessCodeNotFound  = errors.New("access code not found")
	ErrVariationNotFound   = errors.New("variation not found")
	ErrNotQueueCode        = errors.New("access code is not in queue mode")
	ErrCountingDisabled    = errors.New("counting is disabled")
	ErrInvalidCount        = errors.New("invalid count")
	ErrInvalidUnableReason = errors.New("invalid unable reason")
	ErrInvalidStatusMode   = errors.New("invalid status mode")
	ErrAssignmentConflict  = errors.New("assignment was lost to a concurrent counter")
	ErrInvalidID           = errors.New("invalid id")
)
