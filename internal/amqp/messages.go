package amqp

import (
	"encoding/json"
	"time"
)

// SnapshotSyncMessage asks the worker to push one recorded snapshot to
// the spreadsheet backend. It carries only the snapshot ID; the worker
// loads the full snapshot from storage.
type SnapshotSyncMessage struct {
	SnapshotID string    `json:"snapshotId"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewSnapshotSyncMessage(snapshotID string) *SnapshotSyncMessage {
	return &SnapshotSyncMessage{
		SnapshotID: snapshotID,
		Timestamp:  time.Now(),
	}
}

func (m *SnapshotSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SnapshotSyncMessageFromJSON(data []byte) (*SnapshotSyncMessage, error) {
	var msg SnapshotSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.SnapshotID == "" {
		return nil, errEmptySnapshotID
	}
	return &msg, nil
}
