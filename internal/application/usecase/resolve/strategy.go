package resolve

import (
	"context"
	"errors"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/talent-portfolio/internal/application/service"
	"github.com/khoahotran/talent-portfolio/internal/domain/bank"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

const (
	StrategyDirectSigned   = "direct_signed"
	StrategyPublicURL      = "public_url"
	StrategyDirectoryMatch = "directory_match"
	StrategyCatalogSearch  = "catalog_search"
	StrategyMissing        = "missing"
)

var ErrNoMatch = errors.New("no match")

// Target is a storage path to resolve on behalf of the document owner.
type Target struct {
	OwnerID uuid.UUID
	Path    string
	Role    bank.Role
	TTL     time.Duration
	// Absent is set once a strategy has heard from the store that Path does
	// not exist.
	Absent bool
}

// Strategy turns a target into a URL or fails. Strategies are tried in order
// until one succeeds.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, t Target) (string, error)
}

type directSigned struct {
	store  service.ObjectStore
	cache  service.URLCache
	margin time.Duration
	logger logger.Logger
}

func (s *directSigned) Name() string { return StrategyDirectSigned }

func (s *directSigned) Resolve(ctx context.Context, t Target) (string, error) {
	if s.cache != nil {
		if u, ok, err := s.cache.Get(ctx, t.Path); err == nil && ok {
			return u, nil
		}
	}
	u, err := s.store.SignedURL(ctx, t.Path, t.TTL)
	if err != nil {
		return "", err
	}
	if s.cache != nil && t.TTL > s.margin {
		if err := s.cache.Set(ctx, t.Path, u, t.TTL-s.margin); err != nil {
			s.logger.Warn("Failed to cache signed URL", zap.String("path", t.Path), zap.Error(err))
		}
	}
	return u, nil
}

type publicURL struct {
	store service.ObjectStore
}

func (s *publicURL) Name() string { return StrategyPublicURL }

// Resolve builds the public URL unless the store already reported the object
// missing; a public link to a missing object is a broken asset.
func (s *publicURL) Resolve(_ context.Context, t Target) (string, error) {
	if t.Absent {
		return "", service.ErrObjectNotFound
	}
	return s.store.PublicURL(t.Path)
}

// directoryMatch lists the reference's directory and looks for a file whose
// name matches loosely: case, percent-encoding, whitespace, then role keyword.
type directoryMatch struct {
	store service.ObjectStore
	limit int
}

func (s *directoryMatch) Name() string { return StrategyDirectoryMatch }

func (s *directoryMatch) Resolve(ctx context.Context, t Target) (string, error) {
	dir, name := path.Split(t.Path)
	dir = strings.TrimSuffix(dir, "/")
	objects, err := s.store.List(ctx, dir, s.limit)
	if err != nil {
		return "", err
	}
	role := t.Role
	if role == "" {
		role = bank.InferRole(t.Path)
	}
	best, bestLevel := "", 0
	for _, o := range objects {
		if lvl := matchLevel(name, o.Name, role); lvl > bestLevel {
			best, bestLevel = o.Name, lvl
		}
	}
	if bestLevel == 0 {
		return "", ErrNoMatch
	}
	corrected := best
	if dir != "" {
		corrected = dir + "/" + best
	}
	return mint(ctx, s.store, corrected, t.TTL)
}

const (
	matchNone = iota
	matchKeyword
	matchWhitespace
	matchDecoded
	matchExact
)

func matchLevel(want, have string, role bank.Role) int {
	if want == "" || have == "" {
		return matchNone
	}
	if strings.EqualFold(want, have) {
		return matchExact
	}
	dw, dh := decode(want), decode(have)
	if strings.EqualFold(dw, dh) {
		return matchDecoded
	}
	if squash(dw) == squash(dh) {
		return matchWhitespace
	}
	lw, lh := strings.ToLower(dw), strings.ToLower(have)
	for _, kw := range role.Keywords() {
		if strings.Contains(lw, kw) && strings.Contains(lh, kw) {
			return matchKeyword
		}
	}
	return matchNone
}

func decode(s string) string {
	if d, err := url.PathUnescape(s); err == nil {
		return d
	}
	return strings.ReplaceAll(s, "%20", " ")
}

func squash(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

// catalogSearch looks for a bank item of the same owner whose title or path
// carries the role keyword, preferring exact role matches over other images.
type catalogSearch struct {
	catalog bank.Repository
	store   service.ObjectStore
	limit   int
}

func (s *catalogSearch) Name() string { return StrategyCatalogSearch }

func (s *catalogSearch) Resolve(ctx context.Context, t Target) (string, error) {
	role := t.Role
	if role == "" {
		role = bank.InferRole(t.Path)
	}
	keywords := role.Keywords()
	if len(keywords) == 0 {
		return "", ErrNoMatch
	}
	items, err := s.catalog.SearchByKeywords(ctx, t.OwnerID, keywords, s.limit)
	if err != nil {
		return "", err
	}
	for _, it := range rankCandidates(items, keywords[0]) {
		if it.FilePath == nil || *it.FilePath == "" {
			continue
		}
		if u, err := mint(ctx, s.store, *it.FilePath, t.TTL); err == nil {
			return u, nil
		}
	}
	return "", ErrNoMatch
}

func rankCandidates(items []*bank.Item, primary string) []*bank.Item {
	var exact, images []*bank.Item
	for _, it := range items {
		hay := strings.ToLower(it.Title)
		if it.FilePath != nil {
			hay += " " + strings.ToLower(*it.FilePath)
		}
		switch {
		case strings.Contains(hay, primary):
			exact = append(exact, it)
		case it.IsImage():
			images = append(images, it)
		}
	}
	return append(exact, images...)
}

// mint signs path, falling back to a public URL unless the store reported
// the object missing.
func mint(ctx context.Context, store service.ObjectStore, p string, ttl time.Duration) (string, error) {
	u, err := store.SignedURL(ctx, p, ttl)
	if err == nil {
		return u, nil
	}
	if errors.Is(err, service.ErrObjectNotFound) {
		return "", err
	}
	if pu, perr := store.PublicURL(p); perr == nil {
		return pu, nil
	}
	return "", err
}
