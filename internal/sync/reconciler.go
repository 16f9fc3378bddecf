package sync

import (
	"context"

	"github.com/matheus3301/quill/internal/bus"
	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/store"
	"go.uber.org/zap"
)

// Directory is the device-side view of accounts the reconciler folds into
// the store.
type Directory interface {
	Contacts(ctx context.Context) []*domain.User
	LIDMappings(ctx context.Context) []store.LIDMapping
}

// Reconciler imports contacts and merges channels recorded under a LID into
// their phone number channel.
type Reconciler struct {
	db     *store.DB
	dir    Directory
	bus    *bus.Bus
	logger *zap.Logger
}

// NewReconciler creates a reconciler.
func NewReconciler(db *store.DB, dir Directory, b *bus.Bus, logger *zap.Logger) *Reconciler {
	return &Reconciler{db: db, dir: dir, bus: b, logger: logger}
}

// Reconcile runs one pass. Failures are logged; the next connect retries.
func (r *Reconciler) Reconcile(ctx context.Context) {
	contacts := r.dir.Contacts(ctx)
	for _, u := range contacts {
		if err := r.db.UpsertUser(u); err != nil {
			r.logger.Warn("failed to import contact", zap.Error(err), zap.String("user_id", u.ID))
		}
	}

	mappings := r.dir.LIDMappings(ctx)
	if err := r.db.SyncLIDMap(mappings); err != nil {
		r.logger.Error("failed to sync LID map", zap.Error(err))
		return
	}
	merged, err := r.db.ReconcileLIDs()
	if err != nil {
		r.logger.Error("failed to reconcile LIDs", zap.Error(err))
		return
	}
	r.logger.Info("reconciled accounts",
		zap.Int("contacts", len(contacts)),
		zap.Int("lid_mappings", len(mappings)),
		zap.Int64("merged_channels", merged))
	if merged > 0 && r.bus != nil {
		r.bus.Emit(bus.KindChannelUpdate, nil)
	}
}
