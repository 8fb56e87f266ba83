package messages

import (
	"encoding/json"

	"github.com/mini-maxit/executor/pkg/constants"
)

type QueueMessage struct {
	Type      string          `json:"type"`
	MessageID string          `json:"message_id"`
	Payload   json.RawMessage `json:"payload"`
}

type ResponseQueueMessage struct {
	Type      string          `json:"type"`
	MessageID string          `json:"message_id"`
	Ok        bool            `json:"ok"`
	Payload   json.RawMessage `json:"payload"`
}

type ResponseHandshakePayload struct {
	Languages []string `json:"languages"`
}

type WorkerStatus struct {
	WorkerID            int                    `json:"worker_id"`
	Status              constants.WorkerStatus `json:"status"`
	ProcessingMessageID string                 `json:"processing_message_id"`
}

// ProcessPoolStatus reports the sandboxed process slots shared by all workers.
type ProcessPoolStatus struct {
	Busy  int64 `json:"busy"`
	Total int64 `json:"total"`
}

type ResponseWorkerStatusPayload struct {
	BusyWorkers  int               `json:"busy_workers"`
	TotalWorkers int               `json:"total_workers"`
	WorkerStatus []WorkerStatus    `json:"worker_status"`
	Processes    ProcessPoolStatus `json:"processes"`
}
