package domain

import "errors"

var ErrInterrupted = errors.New("interrupted")

var (
	ErrInvalidRole        = errors.New("invalid role")
	ErrEmptyHistory       = errors.New("empty history")
	ErrMissingSystemEntry = errors.New("first entry must be a system entry")
	ErrMaxHistoryTooSmall = errors.New("max history cannot be less than 2")
)

var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrInvalidSnapshot  = errors.New("invalid snapshot")
)
