package notify

import "errors"

var (
	// ErrChannelDisabled is returned by Send on a disabled channel.
	ErrChannelDisabled = errors.New("channel is disabled")

	// ErrInvalidTask is returned when the task is nil or has no title.
	ErrInvalidTask = errors.New("invalid task data")

	// ErrNotificationDropped marks a notification that never reached Send
	// because no worker slot freed up in time.
	ErrNotificationDropped = errors.New("notification dropped due to pool saturation")

	// ErrCircuitBreakerOpen marks a notification rejected by an open breaker.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open for this channel")
)
