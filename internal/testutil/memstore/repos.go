// Package memstore holds in-memory implementations of the repository and
// service ports for use-case and handler tests.
package memstore

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/khoahotran/talent-portfolio/internal/domain/bank"
	"github.com/khoahotran/talent-portfolio/internal/domain/profile"
	"github.com/khoahotran/talent-portfolio/internal/domain/share"
	"github.com/khoahotran/talent-portfolio/internal/domain/snapshot"
	tmpl "github.com/khoahotran/talent-portfolio/internal/domain/template"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
)

type Profiles struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*profile.Document
	Err  error
}

var _ profile.Repository = (*Profiles)(nil)

func NewProfiles() *Profiles {
	return &Profiles{docs: make(map[uuid.UUID]*profile.Document)}
}

func (s *Profiles) Put(doc *profile.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.OwnerID] = doc.Clone()
}

func (s *Profiles) GetByOwnerID(_ context.Context, ownerID uuid.UUID) (*profile.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if d, ok := s.docs[ownerID]; ok {
		return d.Clone(), nil
	}
	return profile.NewDocument(ownerID), nil
}

func (s *Profiles) Upsert(_ context.Context, doc *profile.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.docs[doc.OwnerID] = doc.Clone()
	return nil
}

// Shares can hold writes on Gate and fail them with UpsertErr.
type Shares struct {
	mu        sync.Mutex
	cfgs      map[uuid.UUID]*share.Configuration
	corrupt   map[uuid.UUID]bool
	getErr    error
	upsertErr error
	failNext  []error
	gate      chan struct{}
	gets      int
	writes    int
}

var _ share.Repository = (*Shares)(nil)

func NewShares() *Shares {
	return &Shares{cfgs: make(map[uuid.UUID]*share.Configuration), corrupt: make(map[uuid.UUID]bool)}
}

func (s *Shares) Put(cfg *share.Configuration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfgs[cfg.OwnerID] = cfg.Clone()
}

// Corrupt makes the owner's stored configuration undecodable.
func (s *Shares) Corrupt(ownerID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.corrupt[ownerID] = true
}

func (s *Shares) FailGets(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErr = err
}

func (s *Shares) FailUpserts(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertErr = err
}

// FailNextUpsert fails only the next write with err.
func (s *Shares) FailNextUpsert(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = append(s.failNext, err)
}

// Hold blocks every following Upsert until the returned release func runs.
func (s *Shares) Hold() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gate = gate
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.gate == gate {
				s.gate = nil
			}
			s.mu.Unlock()
			close(gate)
		})
	}
}

func (s *Shares) Stored(ownerID uuid.UUID) (*share.Configuration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cfgs[ownerID]
	return c.Clone(), ok
}

func (s *Shares) Gets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

func (s *Shares) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *Shares) GetByOwnerID(_ context.Context, ownerID uuid.UUID) (*share.Configuration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.corrupt[ownerID] {
		return nil, apperror.NewConfigMissing("share configuration", ownerID.String())
	}
	c, ok := s.cfgs[ownerID]
	if !ok {
		return nil, apperror.NewNotFound("share configuration", ownerID.String())
	}
	return c.Clone(), nil
}

func (s *Shares) Upsert(ctx context.Context, cfg *share.Configuration) error {
	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if len(s.failNext) > 0 {
		err := s.failNext[0]
		s.failNext = s.failNext[1:]
		return err
	}
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.cfgs[cfg.OwnerID] = cfg.Clone()
	delete(s.corrupt, cfg.OwnerID)
	return nil
}

type TemplateStates struct {
	mu      sync.Mutex
	states  map[string]*tmpl.Saved
	corrupt map[string]bool
	Err     error
}

var _ tmpl.Repository = (*TemplateStates)(nil)

func NewTemplateStates() *TemplateStates {
	return &TemplateStates{states: make(map[string]*tmpl.Saved), corrupt: make(map[string]bool)}
}

func stateKey(ownerID uuid.UUID, templateID string) string {
	return ownerID.String() + "|" + templateID
}

func (s *TemplateStates) Corrupt(ownerID uuid.UUID, templateID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.corrupt[stateKey(ownerID, templateID)] = true
}

func (s *TemplateStates) Get(_ context.Context, ownerID uuid.UUID, templateID string) (*tmpl.Saved, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	key := stateKey(ownerID, templateID)
	if s.corrupt[key] {
		return nil, apperror.NewConfigMissing("template state", ownerID.String())
	}
	saved, ok := s.states[key]
	if !ok {
		return nil, apperror.NewNotFound("template state", key)
	}
	cp := *saved
	return &cp, nil
}

func (s *TemplateStates) Save(_ context.Context, ownerID uuid.UUID, templateID string, saved *tmpl.Saved) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	key := stateKey(ownerID, templateID)
	cp := *saved
	s.states[key] = &cp
	delete(s.corrupt, key)
	return nil
}

type Bank struct {
	mu     sync.Mutex
	items  []*bank.Item
	nextID int64
	Err    error
}

var _ bank.Repository = (*Bank)(nil)

func NewBank() *Bank {
	return &Bank{}
}

// Fail makes every call return err until Fail(nil). Safe while other
// goroutines use the bank.
func (b *Bank) Fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Err = err
}

// Add stores a copy of item with a fresh id and returns the id.
func (b *Bank) Add(item bank.Item) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	item.ID = b.nextID
	b.items = append(b.items, &item)
	return item.ID
}

func (b *Bank) Save(_ context.Context, item *bank.Item) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return b.Err
	}
	for _, it := range b.items {
		if it.OwnerID == item.OwnerID && it.FilePath != nil && item.FilePath != nil && *it.FilePath == *item.FilePath {
			return apperror.NewConflict("bank item", "file_path", *item.FilePath)
		}
	}
	b.nextID++
	item.ID = b.nextID
	cp := *item
	b.items = append(b.items, &cp)
	return nil
}

func (b *Bank) FindByID(_ context.Context, id int64) (*bank.Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return nil, b.Err
	}
	for _, it := range b.items {
		if it.ID == id {
			cp := *it
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("bank item", strconv.FormatInt(id, 10))
}

func (b *Bank) SearchByKeywords(_ context.Context, ownerID uuid.UUID, keywords []string, limit int) ([]*bank.Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return nil, b.Err
	}
	var out []*bank.Item
	for _, it := range b.newestFirst(ownerID) {
		hay := strings.ToLower(it.Title)
		if it.FilePath != nil {
			hay += " " + strings.ToLower(*it.FilePath)
		}
		for _, kw := range keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" && strings.Contains(hay, kw) {
				out = append(out, it)
				break
			}
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (b *Bank) ListByOwner(_ context.Context, ownerID uuid.UUID, limit, offset int) ([]*bank.Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return nil, b.Err
	}
	return page(b.newestFirst(ownerID), limit, offset), nil
}

func (b *Bank) newestFirst(ownerID uuid.UUID) []*bank.Item {
	var out []*bank.Item
	for i := len(b.items) - 1; i >= 0; i-- {
		if it := b.items[i]; it.OwnerID == ownerID {
			cp := *it
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

type Snapshots struct {
	mu    sync.Mutex
	snaps []*snapshot.Snapshot
	Err   error
}

var _ snapshot.Repository = (*Snapshots)(nil)

func NewSnapshots() *Snapshots {
	return &Snapshots{}
}

func (s *Snapshots) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snaps)
}

func copySnapshot(in *snapshot.Snapshot) *snapshot.Snapshot {
	cp := *in
	cp.Payload = append([]byte(nil), in.Payload...)
	return &cp
}

func (s *Snapshots) Insert(_ context.Context, snap *snapshot.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, existing := range s.snaps {
		if existing.ID == snap.ID {
			return apperror.NewConflict("snapshot", "id", snap.ID.String())
		}
	}
	s.snaps = append(s.snaps, copySnapshot(snap))
	return nil
}

func (s *Snapshots) FindByID(_ context.Context, id uuid.UUID) (*snapshot.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, snap := range s.snaps {
		if snap.ID == id {
			return copySnapshot(snap), nil
		}
	}
	return nil, apperror.NewNotFound("snapshot", id.String())
}

func (s *Snapshots) ListByOwner(_ context.Context, ownerID uuid.UUID, limit, offset int) ([]*snapshot.Snapshot, error) {
	return s.list(func(snap *snapshot.Snapshot) bool { return snap.OwnerID == ownerID }, limit, offset)
}

func (s *Snapshots) ListForRecipient(_ context.Context, recipientID uuid.UUID, ownerID *uuid.UUID, limit, offset int) ([]*snapshot.Snapshot, error) {
	scope := snapshot.RecipientScope(recipientID)
	return s.list(func(snap *snapshot.Snapshot) bool {
		if ownerID == nil {
			return snap.Scope == scope
		}
		return snap.OwnerID == *ownerID && (snap.Scope == scope || snap.Scope.IsPublic())
	}, limit, offset)
}

func (s *Snapshots) list(match func(*snapshot.Snapshot) bool, limit, offset int) ([]*snapshot.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []*snapshot.Snapshot
	for i := len(s.snaps) - 1; i >= 0; i-- {
		if match(s.snaps[i]) {
			out = append(out, copySnapshot(s.snaps[i]))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

func page[T any](in []T, limit, offset int) []T {
	if offset >= len(in) {
		return nil
	}
	in = in[offset:]
	if limit > 0 && len(in) > limit {
		in = in[:limit]
	}
	return in
}
