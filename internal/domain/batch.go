package domain

import "time"

type ItemOutcome string

const (
	ItemSucceeded ItemOutcome = "succeeded"
	ItemFailed    ItemOutcome = "failed"
	ItemSkipped   ItemOutcome = "skipped"
)

// ItemResult is the outcome of one unit of batch work.
type ItemResult struct {
	Subject string      `json:"subject"`
	Kind    string      `json:"kind"`
	Outcome ItemOutcome `json:"outcome"`
	Reason  string      `json:"reason,omitempty"`
}

type BatchReport struct {
	Job        string       `json:"job"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Items      []ItemResult `json:"items"`
}

func NewBatchReport(job string, startedAt time.Time) *BatchReport {
	return &BatchReport{Job: job, StartedAt: startedAt, Items: []ItemResult{}}
}

func (r *BatchReport) Add(item ItemResult) {
	r.Items = append(r.Items, item)
}

func (r *BatchReport) Count(kind string, outcome ItemOutcome) int {
	n := 0
	for _, item := range r.Items {
		if item.Outcome == outcome && (kind == "" || item.Kind == kind) {
			n++
		}
	}
	return n
}

func (r *BatchReport) Succeeded() int { return r.Count("", ItemSucceeded) }
func (r *BatchReport) Failed() int    { return r.Count("", ItemFailed) }
func (r *BatchReport) Skipped() int   { return r.Count("", ItemSkipped) }
