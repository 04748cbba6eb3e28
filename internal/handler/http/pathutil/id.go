package pathutil

import (
	"errors"

	"github.com/google/uuid"
)

// ErrInvalidID is returned when a task id in the URL path is not a UUID.
var ErrInvalidID = errors.New("invalid id")

// ParseTaskID validates a task id taken from the path. Storage assigns UUIDs,
// so anything else cannot name a task.
func ParseTaskID(raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", ErrInvalidID
	}
	return id.String(), nil
}
