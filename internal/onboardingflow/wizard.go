package onboardingflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/finboard/internal/domain/onboarding"
	"github.com/riskibarqy/finboard/internal/platform/logging"
	"github.com/sourcegraph/conc/panics"
)

const (
	defaultPoolSize     = 4
	defaultWriteTimeout = 10 * time.Second
)

var ErrWizardClosed = errors.New("onboarding wizard is closed")

// ProgressStore persists wizard progress for one user.
type ProgressStore interface {
	Load(ctx context.Context, userID string) (onboarding.State, error)
	SaveStep(ctx context.Context, userID string, step onboarding.Step) error
	Complete(ctx context.Context, userID string) error
}

type Config struct {
	UserID string
	Store  ProgressStore
	// Initial is the state to start from; the zero value means the first step.
	Initial      onboarding.State
	PoolSize     int
	WriteTimeout time.Duration
	Logger       *logging.Logger
	// OnComplete runs once the last step is left, without waiting for the
	// completion write.
	OnComplete func(onboarding.State)
}

// Wizard drives the onboarding flow on the client side. Transitions are
// applied locally; persistence is best-effort and never blocks navigation.
type Wizard struct {
	mu     sync.Mutex
	state  onboarding.State
	closed bool

	userID       string
	store        ProgressStore
	pool         *ants.Pool
	pending      sync.WaitGroup
	writeTimeout time.Duration
	logger       *logging.Logger
	onComplete   func(onboarding.State)
}

func NewWizard(cfg Config) (*Wizard, error) {
	userID := strings.TrimSpace(cfg.UserID)
	if userID == "" {
		return nil, fmt.Errorf("wizard user id is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("wizard progress store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("create wizard worker pool: %w", err)
	}

	state := cfg.Initial
	if state.Current == 0 {
		state = onboarding.InitialState()
	}

	return &Wizard{
		state:        state,
		userID:       userID,
		store:        cfg.Store,
		pool:         pool,
		writeTimeout: writeTimeout,
		logger:       logger.With("user_id", userID),
		onComplete:   cfg.OnComplete,
	}, nil
}

// Resume starts a wizard from the progress the store already holds. A failed
// load falls back to the first step.
func Resume(ctx context.Context, cfg Config) (*Wizard, error) {
	if cfg.Store != nil {
		state, err := cfg.Store.Load(ctx, cfg.UserID)
		if err != nil {
			logger := cfg.Logger
			if logger == nil {
				logger = logging.Default()
			}
			logger.WarnContext(ctx, "load onboarding progress failed, starting from first step", "user_id", cfg.UserID, "error", err)
		} else {
			cfg.Initial = state
		}
	}
	return NewWizard(cfg)
}

func (w *Wizard) State() onboarding.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Wizard) Complete(ctx context.Context) (onboarding.State, error) {
	return w.Dispatch(ctx, onboarding.Event{Kind: onboarding.EventComplete})
}

func (w *Wizard) Skip(ctx context.Context) (onboarding.State, error) {
	return w.Dispatch(ctx, onboarding.Event{Kind: onboarding.EventSkip})
}

func (w *Wizard) Back(ctx context.Context) (onboarding.State, error) {
	return w.Dispatch(ctx, onboarding.Event{Kind: onboarding.EventBack})
}

// Dispatch applies one event. The new step is saved synchronously; save
// errors are logged and do not undo the transition.
func (w *Wizard) Dispatch(ctx context.Context, event onboarding.Event) (onboarding.State, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return onboarding.State{}, ErrWizardClosed
	}
	next, err := onboarding.Transition(w.state, event)
	if err != nil {
		current := w.state
		w.mu.Unlock()
		return current, err
	}
	w.state = next
	// Registered under mu so Close, once it sees closed, waits for it.
	if next.Completed {
		w.pending.Add(1)
	}
	w.mu.Unlock()

	if next.Completed {
		w.finish(ctx, next)
		return next, nil
	}

	w.saveStep(ctx, next.Current)
	return next, nil
}

func (w *Wizard) saveStep(ctx context.Context, step onboarding.Step) {
	writeCtx, cancel := context.WithTimeout(ctx, w.writeTimeout)
	defer cancel()

	if err := w.store.SaveStep(writeCtx, w.userID, step); err != nil {
		w.logger.WarnContext(ctx, "save onboarding step failed", "step", step.String(), "error", err)
	}
}

// finish hands the completion write to the pool and runs the callback right
// away. The caller has already added to pending.
func (w *Wizard) finish(ctx context.Context, state onboarding.State) {
	writeCtx := context.WithoutCancel(ctx)

	if err := w.pool.Submit(func() {
		defer w.pending.Done()
		w.completeInBackground(writeCtx)
	}); err != nil {
		w.pending.Done()
		w.logger.WarnContext(ctx, "submit onboarding completion failed", "error", err)
	}

	if w.onComplete != nil {
		w.onComplete(state)
	}
}

func (w *Wizard) completeInBackground(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.writeTimeout)
	defer cancel()

	var catcher panics.Catcher
	catcher.Try(func() {
		if err := w.store.Complete(ctx, w.userID); err != nil {
			w.logger.WarnContext(ctx, "mark onboarding complete failed", "error", err)
		}
	})
	if recovered := catcher.Recovered(); recovered != nil {
		w.logger.ErrorContext(ctx, "onboarding completion panicked", "error", recovered.AsError())
	}
}

// Close waits for pending completion writes and releases the pool.
func (w *Wizard) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.pending.Wait()
	w.pool.Release()
}
