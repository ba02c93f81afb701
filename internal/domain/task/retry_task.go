package task

import "encoding/json"

// RetryTask re-queues a set whose acquisition failed.
type RetryTask struct {
	SetNumber  string `json:"set_number"`
	RetryCount int    `json:"retry_count"` // Number of times this set has been retried
	Error      string `json:"error"`       // Error message from the original failure
}

func (t *RetryTask) TaskType() string {
	return TypeRetry
}

func (t *RetryTask) TaskValue() ([]byte, error) {
	return json.Marshal(t)
}
