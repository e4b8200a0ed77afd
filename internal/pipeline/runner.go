// Package pipeline orchestrates the staged generation of an illustrated
// story: script, cover, character design, portraits, scene segmentation,
// and scene illustration. Progress is persisted after every stage so a
// poller always sees the latest completed work.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/storyloom/storyloom/internal/genai"
	"github.com/storyloom/storyloom/internal/store"
)

// rollbackTimeout bounds cleanup after a fatal stage failure. Rollback
// runs on a fresh context because the run context may already be dead.
const rollbackTimeout = 30 * time.Second

// Runner executes generation jobs in the background.
type Runner struct {
	store  *store.Store
	gen    genai.Generator
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	running map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewRunner wires a runner to its store and generator.
func NewRunner(st *store.Store, gen genai.Generator, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store:   st,
		gen:     gen,
		cfg:     cfg.withDefaults(),
		logger:  logger,
		running: make(map[string]context.CancelFunc),
	}
}

// Submit reserves a work record and launches the pipeline on a background
// goroutine. It returns the work ID immediately; callers poll the store
// for progress.
func (r *Runner) Submit(ctx context.Context, req Request) (string, error) {
	req = req.withDefaults()
	if err := req.validate(); err != nil {
		return "", err
	}

	work, err := r.store.CreateWork(ctx, req.Topic)
	if err != nil {
		return "", fmt.Errorf("reserving work: %w", err)
	}

	runCtx, cancel := context.WithTimeout(context.Background(), r.cfg.RunTimeout)
	r.mu.Lock()
	r.running[work.ID] = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		defer func() {
			r.mu.Lock()
			delete(r.running, work.ID)
			r.mu.Unlock()
		}()
		r.execute(runCtx, work.ID, req)
	}()

	return work.ID, nil
}

// Active returns how many runs are currently in flight.
func (r *Runner) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.running)
}

// Shutdown cancels all in-flight runs and waits for them to finish or for
// ctx to expire.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	for _, cancel := range r.running {
		cancel()
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// execute runs all stages for one work and handles fatal failures.
func (r *Runner) execute(ctx context.Context, workID string, req Request) {
	log := r.logger.With("work_id", workID)
	log.Info("pipeline started", "topic", req.Topic, "scenes", req.SceneCount, "characters", req.CharacterCount)

	run := &run{r: r, workID: workID, req: req, log: log}
	if err := run.all(ctx); err != nil {
		log.Error("pipeline failed", "stage", run.stage, "error", err)
		r.rollback(workID, log)
		return
	}
	log.Info("pipeline complete")
}

// rollback removes every trace of a failed work. The status is flipped to
// failed first so a poller racing the delete still sees a terminal state,
// and so a failed delete leaves a signal rather than a stuck pending row.
func (r *Runner) rollback(workID string, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), rollbackTimeout)
	defer cancel()

	failed := store.StatusFailed
	if err := r.store.UpdateWork(ctx, workID, store.WorkUpdate{Status: &failed}); err != nil {
		log.Warn("marking work failed", "error", err)
	}
	if err := r.store.DeleteWork(ctx, workID); err != nil {
		log.Error("rollback delete failed", "error", err)
		return
	}
	log.Info("work rolled back")
}

// callCtx derives a per-call timeout from the run context.
func (r *Runner) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.cfg.CallTimeout)
}
