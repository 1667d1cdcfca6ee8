package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// BackupRequest asks the backup worker to export the current state. It
// carries no data; the worker reads the store itself.
type BackupRequest struct {
	ID          string    `json:"id"`
	Revision    uint64    `json:"revision"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requestedAt"`
}

// NewBackupRequest creates a request for the given store revision.
// Reason names the operation that triggered it.
func NewBackupRequest(revision uint64, reason string) *BackupRequest {
	return &BackupRequest{
		ID:          uuid.NewString(),
		Revision:    revision,
		Reason:      reason,
		RequestedAt: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BackupRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BackupRequestFromJSON decodes a message body.
func BackupRequestFromJSON(data []byte) (*BackupRequest, error) {
	var msg BackupRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
