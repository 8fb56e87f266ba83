package messages_test

import (
	"encoding/json"
	"testing"

	"github.com/mini-maxit/executor/pkg/constants"
	"github.com/mini-maxit/executor/pkg/messages"
)

func TestResponseWorkerStatusPayload_JSON(t *testing.T) {
	payload := messages.ResponseWorkerStatusPayload{
		BusyWorkers:  1,
		TotalWorkers: 2,
		WorkerStatus: []messages.WorkerStatus{
			{WorkerID: 0, Status: constants.WorkerStatusIdle},
			{WorkerID: 1, Status: constants.WorkerStatusBusy, ProcessingMessageID: "msg-1"},
		},
		Processes: messages.ProcessPoolStatus{Busy: 3, Total: 8},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	var result struct {
		BusyWorkers  int `json:"busy_workers"`
		TotalWorkers int `json:"total_workers"`
		WorkerStatus []struct {
			WorkerID            int    `json:"worker_id"`
			Status              string `json:"status"`
			ProcessingMessageID string `json:"processing_message_id"`
		} `json:"worker_status"`
		Processes map[string]int64 `json:"processes"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}

	if result.BusyWorkers != 1 || result.TotalWorkers != 2 {
		t.Errorf("unexpected worker counts in %s", data)
	}
	if len(result.WorkerStatus) != 2 ||
		result.WorkerStatus[0].Status != "idle" ||
		result.WorkerStatus[1].Status != "busy" ||
		result.WorkerStatus[1].ProcessingMessageID != "msg-1" {
		t.Errorf("unexpected worker status in %s", data)
	}
	if result.Processes["busy"] != 3 || result.Processes["total"] != 8 {
		t.Errorf("unexpected process pool status in %s", data)
	}
}

func TestQueueMessage_KeepsRawPayload(t *testing.T) {
	raw := []byte(`{"type":"run","message_id":"m1","payload":{"language":"python","code":"x"}}`)

	var msg messages.QueueMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if msg.Type != constants.QueueMessageTypeRun || msg.MessageID != "m1" {
		t.Fatalf("unexpected envelope %+v", msg)
	}
	if string(msg.Payload) != `{"language":"python","code":"x"}` {
		t.Fatalf("payload must be kept verbatim, got %s", msg.Payload)
	}
}
