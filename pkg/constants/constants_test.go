package constants

import (
	"encoding/json"
	"testing"
)

func TestWorkerStatus(t *testing.T) {
	tests := []struct {
		status WorkerStatus
		text   string
		json   string
	}{
		{WorkerStatusIdle, "idle", `"idle"`},
		{WorkerStatusBusy, "busy", `"busy"`},
		{WorkerStatus(999), "unknown", `"unknown"`},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := tt.status.String(); got != tt.text {
				t.Errorf("String() = %q, want %q", got, tt.text)
			}
			got, err := json.Marshal(tt.status)
			if err != nil {
				t.Fatalf("json.Marshal() error = %v", err)
			}
			if string(got) != tt.json {
				t.Errorf("json.Marshal() = %s, want %s", got, tt.json)
			}
		})
	}
}

func TestRequeuePriorityFitsQueue(t *testing.T) {
	if RabbitMQRequeuePriority <= 0 || RabbitMQRequeuePriority > RabbitMQMaxPriority {
		t.Fatalf("requeue priority %d must be within (0, %d]", RabbitMQRequeuePriority, RabbitMQMaxPriority)
	}
}
