package event

import (
	"github.com/google/uuid"
)

const (
	TopicDisclosureEvents = "disclosure.events"
	TopicSnapshotEvents   = "snapshot.events"
	TopicBankEvents       = "bank.events"
)

type DisclosureEventType string

const (
	DisclosureEventConnectionAccepted DisclosureEventType = "connection.accepted"
	DisclosureEventTemplatePublished  DisclosureEventType = "template.published"
)

// DisclosureEventPayload is emitted by the connection and publishing flows.
// RecipientID is set for connection.accepted only.
type DisclosureEventPayload struct {
	EventType   DisclosureEventType `json:"event_type"`
	OwnerID     uuid.UUID           `json:"owner_id"`
	RecipientID *uuid.UUID          `json:"recipient_id,omitempty"`
	TemplateID  string              `json:"template_id"`
	RequestID   string              `json:"request_id,omitempty"`
}

const (
	SnapshotEventTypeCreated = "snapshot.created"
	BankEventTypeItemCreated = "bank.item.created"
)
