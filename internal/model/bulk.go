package model

// ItemStatus is the outcome of one phone in a bulk attach.
type ItemStatus string

const (
	ItemStatusOK      ItemStatus = "ok"
	ItemStatusError   ItemStatus = "error"
	ItemStatusInvalid ItemStatus = "invalid" // Never sent upstream
)

// ItemResult records what happened to one input phone.
type ItemResult struct {
	Input  string     `json:"input" yaml:"input"`
	Phone  string     `json:"phone" yaml:"phone"`
	Status ItemStatus `json:"status" yaml:"status"`
	// Code is the upstream (or gateway) HTTP status for upstream failures.
	Code int `json:"code,omitempty" yaml:"code,omitempty"`
	// Detail is the error message for failures without a status code.
	Detail string `json:"msg,omitempty" yaml:"msg,omitempty"`
	// Verified mirrors AttachResult.Verified for ok items.
	Verified *bool `json:"verified,omitempty" yaml:"verified,omitempty"`
}

// Totals aggregates a bulk run.
type Totals struct {
	Received int `json:"received" yaml:"received"`
	Valid    int `json:"valid" yaml:"valid"`
	Invalid  int `json:"invalid" yaml:"invalid"`
	OK       int `json:"ok" yaml:"ok"`
	Fail     int `json:"fail" yaml:"fail"`
}

// BulkSummary is the report returned by a bulk attach.
type BulkSummary struct {
	RunID   string       `json:"runId" yaml:"run_id"`
	Mode    Mode         `json:"mode" yaml:"mode"`
	Tag     Tag          `json:"tag" yaml:"tag"`
	Totals  Totals       `json:"totals" yaml:"totals"`
	Invalid []string     `json:"invalid" yaml:"invalid"`
	Details []ItemResult `json:"details" yaml:"details"`
}
