package resolve

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/khoahotran/talent-portfolio/internal/application/service"
	"github.com/khoahotran/talent-portfolio/internal/domain/bank"
	"github.com/khoahotran/talent-portfolio/internal/domain/disclosure"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
	"github.com/khoahotran/talent-portfolio/pkg/metrics"
)

var tracer = otel.Tracer("resolve_usecase")

const (
	defaultTTL       = time.Hour
	defaultListLimit = 100
	maxConcurrency   = 8
)

type Options struct {
	SignedURLTTL time.Duration
	ListLimit    int
	// URLCache is optional and shared across passes.
	URLCache       service.URLCache
	CacheTTLMargin time.Duration
}

// Resolver turns logical references into fetchable URLs. Failures never
// escape as errors: a reference no strategy can serve resolves to Missing.
type Resolver struct {
	catalog bank.Repository
	logger  logger.Logger
	metrics *metrics.Metrics
	ttl     time.Duration

	pathChain []Strategy
	itemChain []Strategy
}

func NewResolver(store service.ObjectStore, catalog bank.Repository, log logger.Logger, m *metrics.Metrics, opts Options) *Resolver {
	if opts.SignedURLTTL <= 0 {
		opts.SignedURLTTL = defaultTTL
	}
	if opts.ListLimit <= 0 {
		opts.ListLimit = defaultListLimit
	}
	direct := &directSigned{store: store, cache: opts.URLCache, margin: opts.CacheTTLMargin, logger: log}
	public := &publicURL{store: store}
	return &Resolver{
		catalog: catalog,
		logger:  log,
		metrics: m,
		ttl:     opts.SignedURLTTL,
		pathChain: []Strategy{
			direct,
			public,
			&directoryMatch{store: store, limit: opts.ListLimit},
			&catalogSearch{catalog: catalog, store: store, limit: opts.ListLimit},
		},
		itemChain: []Strategy{direct, public},
	}
}

// Resolve resolves ref for a document owned by ownerID.
func (r *Resolver) Resolve(ctx context.Context, pass *Pass, ownerID uuid.UUID, ref bank.Reference) disclosure.Resolved {
	res, _ := r.lookup(ctx, pass, ownerID, ref)
	return res
}

// passKey separates path references by role because the fuzzy strategies
// pick different files per role.
func passKey(ownerID uuid.UUID, ref bank.Reference) string {
	key := ownerID.String() + "|" + ref.Key()
	if ref.IsPath() && ref.Role != "" {
		key += "|" + string(ref.Role)
	}
	return key
}

// lookup returns Missing for references that are gone and an error only for
// infrastructure failures. Those are never cached, so a later call retries.
func (r *Resolver) lookup(ctx context.Context, pass *Pass, ownerID uuid.UUID, ref bank.Reference) (disclosure.Resolved, error) {
	key := passKey(ownerID, ref)
	if res, ok := pass.get(key); ok {
		return res, nil
	}

	ctx, span := tracer.Start(ctx, "Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("reference", ref.Key()))

	start := time.Now()
	res, err := r.resolve(ctx, ownerID, ref)
	r.metrics.ObserveResolveChain(start)
	r.metrics.IncResolution(res.Strategy)
	span.SetAttributes(attribute.String("strategy", res.Strategy))

	if err == nil {
		pass.put(key, res, r.ttl)
		return res, nil
	}

	span.RecordError(err)
	l := r.logger.With(zap.String("owner_id", ownerID.String()), zap.String("reference", ref.Key()))
	switch {
	case errors.Is(err, apperror.ErrCrossOwnerAccess):
		r.metrics.IncCrossOwnerRejection()
		l.Warn("Rejected cross-owner bank reference", zap.Error(err))
	case apperror.IsDegradable(err):
		l.Warn("Reference unresolvable, rendering placeholder", zap.Error(err))
	default:
		l.Error("Reference resolution failed", err)
		return res, err
	}
	pass.put(key, res, 0)
	return res, nil
}

func (r *Resolver) resolve(ctx context.Context, ownerID uuid.UUID, ref bank.Reference) (disclosure.Resolved, error) {
	missing := disclosure.Resolved{Strategy: StrategyMissing, Missing: true}
	switch {
	case ref.IsPath():
		return r.run(ctx, r.pathChain, Target{OwnerID: ownerID, Path: ref.Path, Role: ref.Role, TTL: r.ttl}, ref)
	case ref.IsItem():
		id := strconv.FormatInt(ref.ItemID, 10)
		item, err := r.catalog.FindByID(ctx, ref.ItemID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return missing, apperror.NewUnresolvable(ref.Key(), err)
			}
			return missing, err
		}
		if item.OwnerID != ownerID {
			return missing, apperror.NewCrossOwnerAccess(id, ownerID.String())
		}
		if item.FilePath == nil || *item.FilePath == "" {
			return missing, apperror.NewUnresolvable(ref.Key(), nil)
		}
		role := ref.Role
		if role == "" {
			role = bank.InferRole(*item.FilePath)
		}
		return r.run(ctx, r.itemChain, Target{OwnerID: ownerID, Path: *item.FilePath, Role: role, TTL: r.ttl}, ref)
	}
	return missing, apperror.NewUnresolvable(ref.Key(), nil)
}

func (r *Resolver) run(ctx context.Context, chain []Strategy, t Target, ref bank.Reference) (disclosure.Resolved, error) {
	missing := disclosure.Resolved{Strategy: StrategyMissing, Missing: true}
	var errs []error
	infra := false
	for _, s := range chain {
		if err := ctx.Err(); err != nil {
			return missing, err
		}
		u, err := s.Resolve(ctx, t)
		if err == nil && u != "" {
			return disclosure.Resolved{URL: u, Strategy: s.Name()}, nil
		}
		if err == nil {
			continue
		}
		errs = append(errs, err)
		if errors.Is(err, service.ErrObjectNotFound) {
			t.Absent = true
		}
		if !isSoftFailure(err) {
			infra = true
		}
	}
	if infra {
		return missing, apperror.NewInternal("failed to resolve "+ref.Key(), errors.Join(errs...))
	}
	return missing, apperror.NewUnresolvable(ref.Key(), errors.Join(errs...))
}

// isSoftFailure reports whether err says the asset is not there, as opposed
// to the store or catalog being unreachable.
func isSoftFailure(err error) bool {
	return errors.Is(err, service.ErrObjectNotFound) ||
		errors.Is(err, service.ErrPublicReadDisabled) ||
		errors.Is(err, ErrNoMatch) ||
		apperror.IsDegradable(err)
}

// ResolveAll resolves refs concurrently. The map is keyed by Reference.Key.
// It only fails when ctx is cancelled.
func (r *Resolver) ResolveAll(ctx context.Context, pass *Pass, ownerID uuid.UUID, refs []bank.Reference) (map[string]disclosure.Resolved, error) {
	out := make(map[string]disclosure.Resolved, len(refs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)
	for _, ref := range refs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := r.Resolve(gctx, pass, ownerID, ref)
			mu.Lock()
			out[ref.Key()] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Checker adapts the resolver to the yes/no question the composer asks about
// attachments. Results land in pass and are reused by the later render.
// Infrastructure failures count as unresolvable; use Guard when the answer
// is persisted.
func (r *Resolver) Checker(ctx context.Context, pass *Pass, ownerID uuid.UUID) func(bank.Reference) bool {
	return func(ref bank.Reference) bool {
		return !r.Resolve(ctx, pass, ownerID, ref).Missing
	}
}

// Guard is a Checker that remembers the first infrastructure failure, so a
// caller that stores the outcome can abort rather than freeze a gap.
type Guard struct {
	r       *Resolver
	ctx     context.Context
	pass    *Pass
	ownerID uuid.UUID

	mu  sync.Mutex
	err error
}

func (r *Resolver) Guard(ctx context.Context, pass *Pass, ownerID uuid.UUID) *Guard {
	return &Guard{r: r, ctx: ctx, pass: pass, ownerID: ownerID}
}

func (g *Guard) Check(ref bank.Reference) bool {
	res, err := g.r.lookup(g.ctx, g.pass, g.ownerID, ref)
	if err != nil {
		g.mu.Lock()
		if g.err == nil {
			g.err = err
		}
		g.mu.Unlock()
		return false
	}
	return !res.Missing
}

// Err returns the first infrastructure failure seen by Check.
func (g *Guard) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}
