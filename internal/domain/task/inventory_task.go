package task

import "encoding/json"

// InventoryTask asks a worker to acquire one set's full inventory.
type InventoryTask struct {
	SetNumber string `json:"set_number"`
}

func (t *InventoryTask) TaskType() string {
	return TypeInventory
}

func (t *InventoryTask) TaskValue() ([]byte, error) {
	return json.Marshal(t)
}
