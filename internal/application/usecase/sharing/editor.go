package sharing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/talent-portfolio/internal/domain/share"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
	"github.com/khoahotran/talent-portfolio/pkg/metrics"
)

type Status string

const (
	StatusClean    Status = "clean"
	StatusSaving   Status = "saving"
	StatusConflict Status = "conflict"
)

type View struct {
	Config *share.Configuration
	Status Status
}

const (
	defaultIdle  = 5 * time.Minute
	writeTimeout = 10 * time.Second
)

// Editor owns one actor goroutine per owner being edited. All reads and writes
// of an owner's configuration go through that actor, so a load can never
// observe the store mid-write and overwrite optimistic state.
type Editor struct {
	repo    share.Repository
	logger  logger.Logger
	metrics *metrics.Metrics
	idle    time.Duration

	mu     sync.Mutex
	actors map[uuid.UUID]*actor
	stop   chan struct{}
	closed bool
}

func NewEditor(repo share.Repository, log logger.Logger, m *metrics.Metrics, idle time.Duration) *Editor {
	if idle <= 0 {
		idle = defaultIdle
	}
	return &Editor{
		repo:    repo,
		logger:  log,
		metrics: m,
		idle:    idle,
		actors:  make(map[uuid.UUID]*actor),
		stop:    make(chan struct{}),
	}
}

// Load returns the owner's configuration. While a write is in flight it
// returns the optimistic in-memory state without touching the store.
func (e *Editor) Load(ctx context.Context, ownerID uuid.UUID) (View, error) {
	resp, err := e.send(ctx, ownerID, request{kind: kindLoad, ctx: ctx})
	if err != nil {
		return View{}, err
	}
	return resp.view, resp.err
}

// Update applies patch optimistically and persists it in the background. The
// returned channel yields the write's outcome; on failure only the patched
// fields have been reverted.
func (e *Editor) Update(ctx context.Context, ownerID uuid.UUID, patch share.Patch) (View, <-chan error, error) {
	resp, err := e.send(ctx, ownerID, request{kind: kindUpdate, ctx: ctx, patch: patch})
	if err != nil {
		return View{}, nil, err
	}
	return resp.view, resp.done, resp.err
}

// Close stops every actor. Writes already handed to the store still finish.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	close(e.stop)
}

func (e *Editor) send(ctx context.Context, ownerID uuid.UUID, req request) (response, error) {
	if err := ctx.Err(); err != nil {
		return response{}, err
	}
	req.reply = make(chan response, 1)
	for {
		a, err := e.actorFor(ownerID)
		if err != nil {
			return response{}, err
		}
		select {
		case a.requests <- req:
			select {
			case resp := <-req.reply:
				return resp, nil
			case <-ctx.Done():
				return response{}, ctx.Err()
			}
		case <-a.quit:
			// retired between lookup and send; get a fresh one
		case <-ctx.Done():
			return response{}, ctx.Err()
		}
	}
}

func (e *Editor) actorFor(ownerID uuid.UUID) (*actor, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, apperror.NewInternal("share configuration editor is closed", nil)
	}
	a, ok := e.actors[ownerID]
	if !ok {
		a = &actor{
			ownerID:  ownerID,
			editor:   e,
			requests: make(chan request),
			results:  make(chan writeResult, 1),
			quit:     make(chan struct{}),
			status:   StatusClean,
		}
		e.actors[ownerID] = a
		go a.run()
	}
	return a, nil
}

func (e *Editor) retire(a *actor) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.actors[a.ownerID] == a {
		delete(e.actors, a.ownerID)
	}
	close(a.quit)
}

type requestKind int

const (
	kindLoad requestKind = iota
	kindUpdate
)

type request struct {
	kind  requestKind
	ctx   context.Context
	patch share.Patch
	reply chan response
}

type response struct {
	view View
	done <-chan error
	err  error
}

type writeResult struct {
	patch  share.Patch
	before *share.Configuration
	err    error
	done   chan error
}

// actor state is only touched by its run goroutine.
type actor struct {
	ownerID  uuid.UUID
	editor   *Editor
	requests chan request
	results  chan writeResult
	quit     chan struct{}

	cfg      *share.Configuration
	loaded   bool
	status   Status
	inFlight bool
	deferred []request
}

func (a *actor) run() {
	timer := time.NewTimer(a.editor.idle)
	defer timer.Stop()
	for {
		select {
		case req := <-a.requests:
			a.handle(req)
		case res := <-a.results:
			a.finishWrite(res)
			for !a.inFlight && len(a.deferred) > 0 {
				next := a.deferred[0]
				a.deferred = a.deferred[1:]
				a.handle(next)
			}
		case <-timer.C:
			if !a.inFlight && len(a.deferred) == 0 {
				a.editor.retire(a)
				return
			}
		case <-a.editor.stop:
			a.shutdown()
			return
		}
		timer.Reset(a.editor.idle)
	}
}

// shutdown lets an in-flight write report back before the actor goes away.
// Queued updates never started, so they are refused.
func (a *actor) shutdown() {
	if a.inFlight {
		a.finishWrite(<-a.results)
	}
	for _, req := range a.deferred {
		req.reply <- response{err: apperror.NewInternal("share configuration editor is closed", nil)}
	}
	a.deferred = nil
	a.editor.retire(a)
}

func (a *actor) view() View {
	return View{Config: a.cfg.Clone(), Status: a.status}
}

func (a *actor) handle(req request) {
	switch req.kind {
	case kindLoad:
		if a.inFlight {
			req.reply <- response{view: a.view()}
			return
		}
		if err := a.loadFromStore(req.ctx); err != nil {
			req.reply <- response{err: err}
			return
		}
		a.status = StatusClean
		req.reply <- response{view: a.view()}

	case kindUpdate:
		if a.inFlight {
			a.deferred = append(a.deferred, req)
			return
		}
		if !a.loaded {
			if err := a.loadFromStore(req.ctx); err != nil {
				req.reply <- response{err: err}
				return
			}
		}
		before := a.cfg.Clone()
		a.cfg = a.cfg.Apply(req.patch)
		a.cfg.UpdatedAt = time.Now().UTC()
		a.status = StatusSaving
		a.inFlight = true

		done := make(chan error, 1)
		toWrite := a.cfg.Clone()
		writeCtx := context.WithoutCancel(req.ctx)
		go func() {
			ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
			defer cancel()
			err := a.editor.repo.Upsert(ctx, toWrite)
			a.results <- writeResult{patch: req.patch, before: before, err: err, done: done}
		}()
		req.reply <- response{view: a.view(), done: done}
	}
}

func (a *actor) loadFromStore(ctx context.Context) error {
	cfg, err := a.editor.repo.GetByOwnerID(ctx, a.ownerID)
	switch {
	case err == nil:
	case errors.Is(err, apperror.ErrNotFound), errors.Is(err, apperror.ErrConfigMissing):
		cfg = share.Closed(a.ownerID)
	default:
		return err
	}
	a.cfg = cfg
	a.loaded = true
	return nil
}

func (a *actor) finishWrite(res writeResult) {
	a.inFlight = false
	if res.err == nil {
		a.status = StatusClean
		res.done <- nil
		return
	}
	a.cfg.Restore(res.before, res.patch.Fields())
	a.status = StatusConflict
	a.editor.metrics.IncShareConfigWriteFailure()
	a.editor.logger.Error("Share configuration write failed, reverted touched fields", res.err,
		zap.String("owner_id", a.ownerID.String()),
		zap.Int("fields", len(res.patch.Fields())),
	)
	res.done <- res.err
}
