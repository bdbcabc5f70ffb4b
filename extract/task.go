package extract

import (
	"time"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusDiscovery   Status = "discovery"
	StatusExtraction  Status = "extraction"
	StatusIntegration Status = "integration"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type Agent string

const (
	AgentPageDiscovery     Agent = "page_discovery"
	AgentContentExtraction Agent = "content_extraction"
	AgentResultIntegration Agent = "result_integration"
)

// Task is one extraction run. Requirements and TargetURL are fixed at
// creation; everything else is mutated only through TaskStore.Update.
type Task struct {
	ID           string    `json:"task_id"`
	Requirements string    `json:"requirements"`
	TargetURL    string    `json:"target_url"`
	UserID       string    `json:"user_id,omitempty"`
	Status       Status    `json:"status"`
	Progress     int       `json:"progress"`
	CurrentAgent Agent     `json:"current_agent,omitempty"`
	Message      string    `json:"message,omitempty"`
	Result       *Dataset  `json:"result,omitempty"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
