package swarm

import (
	"encoding/json"
	"time"

	"github.com/vinayprograms/gptswarm/bus"
)

// Progress is published on bus.SubjectProgress once per recorded
// outcome. Subscribers can render a live view of the batch without
// touching the engine.
type Progress struct {
	BatchID    string    `json:"batch_id"`
	Index      int       `json:"index"`
	Success    bool      `json:"success"`
	Reason     string    `json:"reason,omitempty"`
	TokensUsed int       `json:"tokens_used,omitempty"`
	Completed  int       `json:"completed"`
	Total      int       `json:"total"`
	Timestamp  time.Time `json:"timestamp"`
}

// publishProgress sends a progress event. Publish failures are
// ignored; progress is advisory and must never stall dispatch.
func publishProgress(b bus.EventBus, p Progress) {
	if b == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	_ = b.Publish(bus.SubjectProgress, data)
}
