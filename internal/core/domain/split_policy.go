package domain

import "github.com/shopspring/decimal"

// SplitType names the policy used to divide an expense.
type SplitType string

const (
	SplitEqual      SplitType = "EQUAL"
	SplitPercentage SplitType = "PERCENTAGE"
	SplitExact      SplitType = "EXACT"
)

// SplitPolicy is one of EqualSplit, PercentageSplit or ExactSplit.
type SplitPolicy interface {
	Type() SplitType
	isSplitPolicy()
}

// EqualSplit divides the amount evenly across the participants.
type EqualSplit struct{}

// PercentageSplit assigns each participant a percentage of the amount. The
// percentages must total exactly 100.
type PercentageSplit struct {
	Percentages map[string]decimal.Decimal
}

// ExactSplit assigns each participant a fixed amount. The amounts must total
// exactly the expense amount.
type ExactSplit struct {
	Amounts map[string]decimal.Decimal
}

func (EqualSplit) Type() SplitType      { return SplitEqual }
func (PercentageSplit) Type() SplitType { return SplitPercentage }
func (ExactSplit) Type() SplitType      { return SplitExact }

func (EqualSplit) isSplitPolicy()      {}
func (PercentageSplit) isSplitPolicy() {}
func (ExactSplit) isSplitPolicy()      {}

// Share is the amount one participant owes under a resolved split.
type Share struct {
	ParticipantID string
	Amount        decimal.Decimal
}
