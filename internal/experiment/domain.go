package experiment

import "time"

// UserID is the textual form of a 128-bit random token (32 lowercase hex characters).
type UserID string

// Group is the experiment arm a user is assigned to.
type Group string

const (
	GroupControl   Group = "control"
	GroupTreatment Group = "treatment"
)

// Parameters are the run-level settings of one generated experiment.
type Parameters struct {
	PopulationSize int     `json:"population_size"`
	ControlRate    float64 `json:"control_rate"`
	TreatmentRate  float64 `json:"treatment_rate"`
	// RateChanged records the coin flip that decided whether TreatmentRate was lifted.
	RateChanged bool `json:"rate_changed"`
}

// TreatmentEffect is the run-level decision to shift treatment purchase amounts.
type TreatmentEffect struct {
	Injected bool    `json:"injected"`
	Offset   float64 `json:"offset"`
}

// Conversions holds one conversion flag per user.
type Conversions map[UserID]bool

// Amounts holds purchase amounts, keyed only by converted users.
type Amounts map[UserID]float64

// Transaction is one row of the transactions table. Amount is nil for users that did not convert.
type Transaction struct {
	ID     UserID   `json:"id"`
	Amount *float64 `json:"amount"`
}

// GroupMembership is one row of the groups table.
type GroupMembership struct {
	ID    UserID `json:"id"`
	Group Group  `json:"group"`
}

// Tables are the two outputs handed to the packaging layer.
type Tables struct {
	Transactions []Transaction
	Groups       []GroupMembership
}

// Dataset is the result of a single generation run.
type Dataset struct {
	RunID      string
	Parameters Parameters
	Effect     TreatmentEffect
	Salt       string
	Tables     *Tables
}

// RunSummary describes a generated dataset without its rows.
type RunSummary struct {
	ID                   string          `json:"id"`
	CreatedAt            time.Time       `json:"created_at"`
	Parameters           Parameters      `json:"parameters"`
	Effect               TreatmentEffect `json:"treatment_effect"`
	Salt                 string          `json:"salt"`
	ControlSize          int             `json:"control_size"`
	TreatmentSize        int             `json:"treatment_size"`
	ControlConversions   int             `json:"control_conversions"`
	TreatmentConversions int             `json:"treatment_conversions"`
}
