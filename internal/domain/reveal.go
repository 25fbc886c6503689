package domain

import "time"

// RevealData tracks one revealed intent from creation through either
// executed-and-cleared or errored-and-retained-for-inspection.
type RevealData struct {
	CommitmentHash    CommitmentHash
	Intent            SwapIntent
	PoolKey           PoolKey
	PoolID            [32]byte
	IsZKVerified      bool
	SubmittedOnChain  bool
	SubmissionTime    *time.Time
	Errors            []string
}

// ValidationResult is the outcome of validate_reveal (spec §4.2).
type ValidationResult struct {
	IsValid bool
	Errors  []string
}
