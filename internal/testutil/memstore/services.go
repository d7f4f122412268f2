package memstore

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/khoahotran/talent-portfolio/internal/application/service"
)

// ObjectStore signs any stored key as "signed://<key>" and serves public URLs
// under PublicBase when PublicRead is on.
type ObjectStore struct {
	mu         sync.Mutex
	objects    map[string]service.ObjectInfo
	PublicRead bool
	PublicBase string
	ListErr    error
	UploadErr  error
	// SignErr fails signing for stored and missing keys alike.
	SignErr   error
	signCalls int
	listCalls int
	deleted   []string
}

var (
	_ service.ObjectStore = (*ObjectStore)(nil)
	_ service.Uploader    = (*ObjectStore)(nil)
)

func NewObjectStore(paths ...string) *ObjectStore {
	s := &ObjectStore{objects: make(map[string]service.ObjectInfo), PublicBase: "https://cdn.test"}
	for _, p := range paths {
		s.Put(p, "")
	}
	return s
}

func (s *ObjectStore) Put(p, contentType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[p] = service.ObjectInfo{Name: path.Base(p), Path: p, ContentType: contentType}
}

func (s *ObjectStore) Has(p string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[p]
	return ok
}

func (s *ObjectStore) SignCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signCalls
}

func (s *ObjectStore) ListCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

func (s *ObjectStore) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

func (s *ObjectStore) SignedURL(_ context.Context, p string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signCalls++
	if s.SignErr != nil {
		return "", s.SignErr
	}
	if _, ok := s.objects[p]; !ok {
		return "", service.ErrObjectNotFound
	}
	return "signed://" + p, nil
}

func (s *ObjectStore) PublicURL(p string) (string, error) {
	if !s.PublicRead {
		return "", service.ErrPublicReadDisabled
	}
	return s.PublicBase + "/" + strings.TrimPrefix(p, "/"), nil
}

func (s *ObjectStore) List(_ context.Context, dir string, limit int) ([]service.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	var out []service.ObjectInfo
	for p, info := range s.objects {
		if path.Dir(p) != dir && !(dir == "" && !strings.Contains(p, "/")) {
			continue
		}
		out = append(out, info)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *ObjectStore) Upload(_ context.Context, file io.Reader, size int64, p, contentType string) (*service.UploadResult, error) {
	if s.UploadErr != nil {
		return nil, s.UploadErr
	}
	n, err := io.Copy(io.Discard, file)
	if err != nil {
		return nil, err
	}
	s.Put(p, contentType)
	return &service.UploadResult{Path: p, Size: n, ContentType: contentType}, nil
}

func (s *ObjectStore) Delete(_ context.Context, p string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[p]; !ok {
		return service.ErrObjectNotFound
	}
	delete(s.objects, p)
	s.deleted = append(s.deleted, p)
	return nil
}

type URLCache struct {
	mu      sync.Mutex
	entries map[string]string
	TTLs    map[string]time.Duration
	SetErr  error
}

var _ service.URLCache = (*URLCache)(nil)

func NewURLCache() *URLCache {
	return &URLCache{entries: make(map[string]string), TTLs: make(map[string]time.Duration)}
}

func (c *URLCache) Get(_ context.Context, p string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.entries[p]
	return u, ok, nil
}

func (c *URLCache) Set(_ context.Context, p, u string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SetErr != nil {
		return c.SetErr
	}
	c.entries[p] = u
	c.TTLs[p] = ttl
	return nil
}

func (c *URLCache) TTL(p string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.TTLs[p]
}

var ErrPublish = errors.New("broker unavailable")

// Events records published events. Publishing is asynchronous in the use
// cases, so tests poll Snapshots and BankItems.
type Events struct {
	mu        sync.Mutex
	snapshots []service.SnapshotCreatedEvent
	bankItems []service.BankItemCreatedEvent
	Err       error
}

var _ service.EventPublisher = (*Events)(nil)

func (e *Events) PublishSnapshotCreated(_ context.Context, evt service.SnapshotCreatedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.snapshots = append(e.snapshots, evt)
	return nil
}

func (e *Events) PublishBankItemCreated(_ context.Context, evt service.BankItemCreatedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.bankItems = append(e.bankItems, evt)
	return nil
}

func (e *Events) Snapshots() []service.SnapshotCreatedEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]service.SnapshotCreatedEvent(nil), e.snapshots...)
}

func (e *Events) BankItems() []service.BankItemCreatedEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]service.BankItemCreatedEvent(nil), e.bankItems...)
}
