package model

import "time"

// Tier identifies the escalation stage a subscription attempt ran under.
type Tier string

const (
	TierDirect      Tier = "tier1_direct"       // direct POST to a known provider endpoint
	TierForm        Tier = "tier2_form"         // live re-scrape and form submission
	TierNeedsManual Tier = "tier3_needs_manual" // bot protection, handed off to a human
)

// SubscriptionAttempt is one row of the append-only audit log. Exactly one
// row is written per attempt, success or not, and Evidence is never empty.
type SubscriptionAttempt struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	Email        string    `json:"email"`
	Tier         Tier      `json:"tier"`
	Provider     *string   `json:"provider,omitempty"`
	Endpoint     *string   `json:"endpoint,omitempty"`
	Success      bool      `json:"success"`
	Evidence     string    `json:"evidence"`
	AttemptedAt  time.Time `json:"attempted_at"`
}

// SubmitResult is the value-typed outcome of a single submitter request.
// Failures are data, not errors.
type SubmitResult struct {
	Success  bool   `json:"success"`
	Evidence string `json:"evidence"`
}
