package eventdomain

import (
	"fmt"
	"strings"
)

// AcceptanceStatus is a user's answer to an event invitation.
type AcceptanceStatus string

const (
	AcceptanceAccepted AcceptanceStatus = "accepted"
	AcceptanceMaybe    AcceptanceStatus = "maybe"
	AcceptanceRejected AcceptanceStatus = "rejected"
)

// AllAcceptanceStatuses lists every status in tally order.
var AllAcceptanceStatuses = []AcceptanceStatus{AcceptanceAccepted, AcceptanceMaybe, AcceptanceRejected}

func (s AcceptanceStatus) IsValid() bool {
	switch s {
	case AcceptanceAccepted, AcceptanceMaybe, AcceptanceRejected:
		return true
	}
	return false
}

func (s AcceptanceStatus) String() string { return string(s) }

// ParseAcceptanceStatus accepts the canonical names and the short forms the
// chat bot sends ("yes", "no").
func ParseAcceptanceStatus(v string) (AcceptanceStatus, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "accepted", "accept", "yes":
		return AcceptanceAccepted, nil
	case "maybe", "tentative":
		return AcceptanceMaybe, nil
	case "rejected", "reject", "no", "declined":
		return AcceptanceRejected, nil
	}
	return "", fmt.Errorf("unknown acceptance status %q", v)
}

// Tally is the per-status count of acceptance records for one event.
type Tally struct {
	Accepted int `json:"accepted"`
	Maybe    int `json:"maybe"`
	Rejected int `json:"rejected"`
}

// Apply adds delta to the counter for status.
func (t *Tally) Apply(status AcceptanceStatus, delta int) {
	switch status {
	case AcceptanceAccepted:
		t.Accepted += delta
	case AcceptanceMaybe:
		t.Maybe += delta
	case AcceptanceRejected:
		t.Rejected += delta
	}
}

// Get returns the counter for status.
func (t Tally) Get(status AcceptanceStatus) int {
	switch status {
	case AcceptanceAccepted:
		return t.Accepted
	case AcceptanceMaybe:
		return t.Maybe
	case AcceptanceRejected:
		return t.Rejected
	}
	return 0
}

func (t Tally) Total() int {
	return t.Accepted + t.Maybe + t.Rejected
}
