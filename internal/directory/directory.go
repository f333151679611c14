package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/jonathan/pipeline-board/internal/logger"
)

// Lister is the candidate service's listing operation. It must be safe to call repeatedly.
type Lister interface {
	ListCandidatesByCompany(ctx context.Context, companyID uuid.UUID) ([]Candidate, error)
}

// DefaultReloadMaxElapsed bounds how long a reload keeps retrying.
const DefaultReloadMaxElapsed = 15 * time.Second

// LoadError wraps a failed directory load.
type LoadError struct {
	CompanyID uuid.UUID
	Cause     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load candidates for company %s: %v", e.CompanyID, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Directory is the read-through cache of a company's candidates.
type Directory struct {
	lister     Lister
	companyID  uuid.UUID
	store      *Store
	maxElapsed time.Duration
	log        *logger.Logger
}

// Option configures a Directory.
type Option func(*Directory)

// WithReloadMaxElapsed overrides the retry window of Reload. Zero disables retrying.
func WithReloadMaxElapsed(d time.Duration) Option {
	return func(dir *Directory) { dir.maxElapsed = d }
}

// New creates an empty directory for a company. Call Reload to populate it.
func New(lister Lister, companyID uuid.UUID, log *logger.Logger, opts ...Option) *Directory {
	d := &Directory{
		lister:     lister,
		companyID:  companyID,
		store:      NewStore(nil),
		maxElapsed: DefaultReloadMaxElapsed,
		log:        logger.OrNop(log).With("component", "directory", "company_id", companyID),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Store exposes the underlying store.
func (d *Directory) Store() *Store { return d.store }

// CompanyID returns the company this directory mirrors.
func (d *Directory) CompanyID() uuid.UUID { return d.companyID }

// Fetch lists the company's candidates, retrying transient failures with
// exponential backoff. It does not touch the store.
func (d *Directory) Fetch(ctx context.Context) ([]Candidate, error) {
	var candidates []Candidate
	op := func() error {
		list, err := d.lister.ListCandidatesByCompany(ctx, d.companyID)
		if err != nil {
			if ctx.Err() != nil || !isRetryableError(err) {
				return backoff.Permanent(err)
			}
			d.log.Debug("candidate listing failed, retrying", "error", err)
			return err
		}
		candidates = list
		return nil
	}

	var err error
	if d.maxElapsed <= 0 {
		err = op()
	} else {
		err = backoff.Retry(op, backoff.WithContext(d.newBackoff(), ctx))
	}
	if err != nil {
		d.log.Warn("candidate listing failed", "error", err)
		return nil, &LoadError{CompanyID: d.companyID, Cause: err}
	}
	return candidates, nil
}

// Reload refetches every candidate and replaces the store contents. Candidates for
// which keep returns true keep their local assignment. keep is called while the
// store is locked and must not call back into the store.
func (d *Directory) Reload(ctx context.Context, keep func(uuid.UUID) bool) error {
	candidates, err := d.Fetch(ctx)
	if err != nil {
		return err
	}
	d.store.ReplaceAll(candidates, keep)
	d.log.Debug("directory reloaded", "candidates", len(candidates))
	return nil
}

// isRetryableError reports whether a listing failure is worth retrying. Errors
// that say so via Temporary decide for themselves; a domain rejection never
// succeeds on retry; anything else is treated as a transport hiccup.
func isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var temp interface{ Temporary() bool }
	if errors.As(err, &temp) {
		return temp.Temporary()
	}
	var rej interface{ RejectionReason() string }
	return !errors.As(err, &rej)
}

func (d *Directory) newBackoff() backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = d.maxElapsed
	return bo
}
