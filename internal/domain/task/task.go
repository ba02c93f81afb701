// Package task defines the messages carried by the acquisition queue.
// Each task type maps to its own redis stream, keyed by its type tag.
package task

import "encoding/json"

// Type tags double as stream name suffixes.
const (
	TypeInventory = "InventoryTask"
	TypeRetry     = "RetryTask"
)

// Task is a queue message: a routing tag plus a JSON payload.
type Task interface {
	TaskType() string
	TaskValue() ([]byte, error)
}

// Decode restores a concrete task from its queue payload.
func Decode[T Task](data []byte) (T, error) {
	var t T
	err := json.Unmarshal(data, &t)
	return t, err
}
