package notify

import "strings"

type Step string

const (
	StepEmail   Step = "email"
	StepSMS     Step = "sms"
	StepInvoice Step = "invoice"
)

type StepStatus string

const (
	StatusSent    StepStatus = "sent"
	StatusFailed  StepStatus = "failed"
	StatusSkipped StepStatus = "skipped"
)

// StepResult records what happened to one channel. Error is empty unless
// Status is failed.
type StepResult struct {
	Step   Step       `json:"step"`
	Status StepStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
}

// Outcome aggregates the per-step results of one dispatch.
type Outcome struct {
	OrderID string       `json:"orderId"`
	Steps   []StepResult `json:"steps"`
}

func (o Outcome) Failed() []StepResult {
	var out []StepResult
	for _, s := range o.Steps {
		if s.Status == StatusFailed {
			out = append(out, s)
		}
	}
	return out
}

// AllFailed reports whether at least one step was attempted and none of the
// attempted steps succeeded. Skipped steps do not count as attempts.
func (o Outcome) AllFailed() bool {
	attempted := 0
	for _, s := range o.Steps {
		switch s.Status {
		case StatusSent:
			return false
		case StatusFailed:
			attempted++
		}
	}
	return attempted > 0
}

func (o Outcome) Summary() string {
	parts := make([]string, 0, len(o.Steps))
	for _, s := range o.Steps {
		parts = append(parts, string(s.Step)+"="+string(s.Status))
	}
	return strings.Join(parts, ",")
}

func (o *Outcome) add(step Step, err error) {
	r := StepResult{Step: step, Status: StatusSent}
	if err != nil {
		r.Status = StatusFailed
		r.Error = err.Error()
	}
	o.Steps = append(o.Steps, r)
}

func (o *Outcome) skip(step Step) {
	o.Steps = append(o.Steps, StepResult{Step: step, Status: StatusSkipped})
}
