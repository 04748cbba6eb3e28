package liveview

import (
	"errors"
	"fmt"
)

// Operation names a mutating view operation.
type Operation string

const (
	OpAdd     Operation = "add"
	OpUpdate  Operation = "update"
	OpDelete  Operation = "delete"
	OpRefresh Operation = "refresh"
)

var (
	// ErrOffline matches every *ConnectivityError.
	ErrOffline = errors.New("offline")

	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("live view already started")

	// ErrClosed is returned by Watch after Close.
	ErrClosed = errors.New("live view closed")

	// ErrRefreshUnavailable is returned by Refresh when no ingestion trigger is configured.
	ErrRefreshUnavailable = errors.New("gazette refresh not configured")
)

// ConnectivityError rejects a mutation attempted while offline.
type ConnectivityError struct {
	Op Operation
}

func (e *ConnectivityError) Error() string {
	switch e.Op {
	case OpAdd:
		return "Cannot add tasks while offline"
	case OpUpdate:
		return "Cannot update tasks while offline"
	case OpDelete:
		return "Cannot delete tasks while offline"
	case OpRefresh:
		return "Cannot refresh gazette while offline"
	default:
		return fmt.Sprintf("Cannot %s while offline", e.Op)
	}
}

// Is lets errors.Is(err, ErrOffline) match.
func (e *ConnectivityError) Is(target error) bool {
	return target == ErrOffline
}
