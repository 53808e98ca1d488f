// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/comicrewriter/pkg/uuid"
)

// Service records attempts and serves listings.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a history [Service].
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Record implements [Recorder]. Missing identifiers and timestamps are filled in.
func (service *Service) Record(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if err := service.repo.Insert(ctx, &entry); err != nil {
		service.logger.WarnContext(ctx, "history_record_failed",
			slog.String("page_id", entry.PageID),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

// List returns one page of entries and the total count.
func (service *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]*Entry, int, error) {
	return service.repo.List(ctx, filter, limit, offset)
}
