// Package engine implements the seat reservation and booking
// lifecycle: atomic lock/release of inventory, the booking state
// machine, and payment reconciliation. Every inventory-affecting
// operation runs inside one serializable transaction so a reader
// never observes a seat decrement without its lock or a release
// without its restoration.
package engine

import (
	"context"

	"github.com/robertarktes/seat-booking-engine/internal/adapters/crdb"
	mongoadapter "github.com/robertarktes/seat-booking-engine/internal/adapters/mongo"
	"github.com/robertarktes/seat-booking-engine/internal/config"
	"github.com/robertarktes/seat-booking-engine/internal/domain"
	"github.com/robertarktes/seat-booking-engine/internal/observability"
)

type Engine struct {
	repo     *crdb.Repository
	audit    Auditor
	provider PaymentProvider
	policy   domain.RefundPolicy
	cfg      *config.Config
	log      observability.Logger
}

// Auditor records transitions; implementations must never fail the
// transition they describe.
type Auditor interface {
	Record(ctx context.Context, entry domain.AuditEntry)
}

func New(repo *crdb.Repository, audit Auditor, provider PaymentProvider, cfg *config.Config, log observability.Logger) *Engine {
	return &Engine{
		repo:     repo,
		audit:    audit,
		provider: provider,
		policy:   domain.RefundPolicy{CancelPercent: cfg.RefundPercent},
		cfg:      cfg,
		log:      log,
	}
}

func (e *Engine) Repo() *crdb.Repository {
	return e.repo
}

var _ Auditor = (*mongoadapter.AuditLogger)(nil)
