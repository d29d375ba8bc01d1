package payment

import "encoding/json"

// Event is a payment-processor webhook event. Only the fields this service
// acts on are modeled; the rest of the payload is ignored.
type Event struct {
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

type EventData struct {
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
	Checkout *CheckoutRef      `json:"checkout"`
}

// CheckoutRef appears on subscription events, which carry the originating
// checkout (and its metadata) instead of their own.
type CheckoutRef struct {
	Metadata map[string]string `json:"metadata"`
}

// ParseEvent decodes a raw webhook body.
func ParseEvent(rawBody []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(rawBody, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// OwnerID extracts the account the event is about, looking first at the
// event's own metadata and then at the originating checkout's.
func (e *Event) OwnerID() string {
	if id, ok := e.Data.Metadata["owner_id"]; ok && id != "" {
		return id
	}
	if e.Data.Checkout != nil {
		return e.Data.Checkout.Metadata["owner_id"]
	}
	return ""
}

// upgradeEvents are the event types that move an account to the PRO plan.
// checkout.updated additionally requires a succeeded status, since the
// processor also emits it for pending and failed checkouts.
var upgradeEvents = map[string]bool{
	"checkout.updated":     true,
	"subscription.created": true,
	"subscription.active":  true,
	"order.paid":           true,
}

// IsUpgrade reports whether this event should upgrade the owner's plan.
func (e *Event) IsUpgrade() bool {
	if !upgradeEvents[e.Type] {
		return false
	}
	if e.Type == "checkout.updated" && e.Data.Status != "succeeded" {
		return false
	}
	return true
}
