package service

import (
	"context"
	"log/slog"
	"time"

	"deadline_sync/internal/config"
	"deadline_sync/internal/domain"
)

// delivery turns items into reminders and records each one in the ledger
// right after the reminder system accepted it.
type delivery struct {
	ledger    Ledger
	publisher Publisher
	cfg       config.RemindersConfig
	now       func() time.Time
	logger    *slog.Logger
}

// pending drops items the ledger already knows, keeping the order.
func (d *delivery) pending(ctx context.Context, items []domain.DeadlineItem) ([]domain.DeadlineItem, error) {
	var out []domain.DeadlineItem
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true

		synced, err := d.ledger.IsSynced(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		if !synced {
			out = append(out, item)
		}
	}
	return out, nil
}

// deliver returns how many items were created and how many failed. A failed
// item is not recorded, so the next run retries it.
func (d *delivery) deliver(ctx context.Context, items []domain.DeadlineItem) (created, failed int) {
	for _, item := range items {
		req := domain.NewReminderRequest(item, d.cfg.ListName, d.cfg.AdvanceDays, d.now())

		if err := d.publisher.Publish(ctx, &req); err != nil {
			d.logger.Warn("reminder not created",
				"error", &domain.CreationError{ExternalID: item.ID, Err: err},
				"title", req.Title,
			)
			failed++
			continue
		}

		if err := d.ledger.MarkSynced(ctx, item); err != nil {
			d.logger.Error("reminder created but not recorded",
				"external_id", item.ID,
				"title", req.Title,
				"error", err,
			)
			failed++
			continue
		}

		d.logger.Info("reminder created",
			"external_id", item.ID,
			"title", req.Title,
			"due", item.DueDate,
		)
		created++
	}
	return created, failed
}
