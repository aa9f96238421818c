package dispatch

import (
	"fmt"
	"net/mail"
	"strings"
)

// Trigger identifies what initiated a report dispatch.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
)

// ValidationError reports a syntactically invalid recipient address.
// Dispatch aborts entirely on validation failure; no send is attempted.
type ValidationError struct {
	Address string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid recipient address %q: %s", e.Address, e.Reason)
}

// RecipientSpec describes who should receive a report.
type RecipientSpec struct {
	Primary string `json:"recipient"`
	CCSelf  bool   `json:"cc_self"`
}

// Policy builds validated, de-duplicated recipient lists for report
// delivery.
type Policy struct {
	sender string // configured sender identity, may be empty
}

// NewPolicy creates a policy with the configured sender identity.
func NewPolicy(sender string) *Policy {
	return &Policy{sender: sender}
}

// Sender returns the configured sender identity.
func (p *Policy) Sender() string {
	return p.sender
}

// Recipients validates the primary address and produces the final ordered
// recipient list. With CCSelf set and a sender configured, the sender is
// appended unless it equals the primary, so no address is ever delivered
// to twice.
func (p *Policy) Recipients(spec RecipientSpec) ([]string, error) {
	primary := strings.TrimSpace(spec.Primary)
	if primary == "" {
		return nil, &ValidationError{Address: primary, Reason: "empty address"}
	}

	addr, err := mail.ParseAddress(primary)
	if err != nil {
		return nil, &ValidationError{Address: primary, Reason: err.Error()}
	}
	primary = addr.Address

	recipients := []string{primary}
	if spec.CCSelf && p.sender != "" && !strings.EqualFold(p.sender, primary) {
		recipients = append(recipients, p.sender)
	}

	return recipients, nil
}
