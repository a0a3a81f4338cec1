package transcript

import "time"

// Run status values recorded in summaries. These mirror the debate
// scheduler's terminal and in-progress states.
const (
	StatusRunning   = "running"
	StatusPaused    = "paused"
	StatusStopped   = "stopped"
	StatusCompleted = "completed"
)

// Entry is one completed turn in a run. Entries are append-only and
// immutable once written; Response always holds the full, untruncated text
// regardless of what was forwarded into the next prompt.
type Entry struct {
	RunID     string    `json:"runId"`
	Timestamp time.Time `json:"ts"`
	Round     int       `json:"round"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	RawStdout string    `json:"rawStdout"`
	RawStderr string    `json:"rawStderr"`
}

// Summary is the mutable per-run record, rewritten on each update.
type Summary struct {
	RunID     string    `json:"runId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Topic     string    `json:"topic"`
	MaxRounds int       `json:"maxRounds"`
	TextLimit int       `json:"textLimit"`
	Status    string    `json:"status"`
	Round     int       `json:"round"`
	Reason    string    `json:"reason,omitempty"`
}

// SummaryPatch is a partial summary update. Nil fields are left unchanged.
type SummaryPatch struct {
	Status *string
	Round  *int
	Reason *string
}
