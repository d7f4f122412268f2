package snapshot

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/talent-portfolio/internal/domain/disclosure"
)

// Scope is who may read a snapshot: ScopePublic or a counterparty id.
type Scope string

const ScopePublic Scope = "public"

func RecipientScope(id uuid.UUID) Scope {
	return Scope(id.String())
}

func ParseScope(s string) (Scope, error) {
	if s == string(ScopePublic) {
		return ScopePublic, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid recipient scope %q: %w", s, err)
	}
	return RecipientScope(id), nil
}

func (s Scope) IsPublic() bool { return s == ScopePublic }

// Recipient returns the counterparty id for a non-public scope.
func (s Scope) Recipient() (uuid.UUID, bool) {
	if s.IsPublic() {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(string(s))
	return id, err == nil
}

// Allows reports whether viewer may read a snapshot of ownerID with this scope.
// A nil viewer is anonymous.
func (s Scope) Allows(viewer *uuid.UUID, ownerID uuid.UUID) bool {
	if s.IsPublic() {
		return true
	}
	if viewer == nil {
		return false
	}
	if *viewer == ownerID {
		return true
	}
	rid, ok := s.Recipient()
	return ok && rid == *viewer
}

// Snapshot is a frozen composed document. Payload bytes are written once and
// returned verbatim on every read.
type Snapshot struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Scope       Scope     `json:"recipient_scope"`
	TemplateID  string    `json:"template_id"`
	Trigger     string    `json:"trigger"`
	Payload     []byte    `json:"-"`
	PayloadHash string    `json:"payload_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	TriggerConnectionAccepted = "connection.accepted"
	TriggerTemplatePublished  = "template.published"
)

// New freezes doc into a snapshot. The payload is the compact JSON encoding of
// doc and its hash is computed over exactly those bytes.
func New(ownerID uuid.UUID, scope Scope, templateID, trigger string, doc *disclosure.Document) (*Snapshot, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot payload: %w", err)
	}
	return &Snapshot{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Scope:       scope,
		TemplateID:  templateID,
		Trigger:     trigger,
		Payload:     payload,
		PayloadHash: Hash(payload),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func Hash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Document decodes the frozen payload. It never consults live content.
func (s *Snapshot) Document() (*disclosure.Document, error) {
	var doc disclosure.Document
	dec := json.NewDecoder(bytes.NewReader(s.Payload))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode snapshot payload: %w", err)
	}
	return &doc, nil
}

// Verify reports whether the payload still matches its recorded hash.
func (s *Snapshot) Verify() bool {
	return Hash(s.Payload) == s.PayloadHash
}

// Repository is append-only.
type Repository interface {
	Insert(ctx context.Context, s *Snapshot) error
	FindByID(ctx context.Context, id uuid.UUID) (*Snapshot, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Snapshot, error)
	// ListForRecipient returns snapshots scoped to recipientID plus, when
	// ownerID is set, that owner's public snapshots. Newest first.
	ListForRecipient(ctx context.Context, recipientID uuid.UUID, ownerID *uuid.UUID, limit, offset int) ([]*Snapshot, error)
}
