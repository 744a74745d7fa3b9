package repositories

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/HFocko/Dashboard/internal/core/domain"
	apperrors "github.com/HFocko/Dashboard/internal/pkg/errors"
)

// LoadJournalRepository stores dataset load attempts using GORM
type LoadJournalRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewLoadJournalRepository creates a new repository instance
func NewLoadJournalRepository(db *gorm.DB, logger *slog.Logger) *LoadJournalRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &LoadJournalRepository{
		db:     db,
		logger: logger,
	}
}

// RecordLoad inserts one journal entry
func (r *LoadJournalRepository) RecordLoad(ctx context.Context, load *domain.DatasetLoad) error {
	if !domain.IsValidLoadStatus(load.Status) {
		return apperrors.BadRequest("invalid load status: " + load.Status)
	}

	if err := r.db.WithContext(ctx).Create(load).Error; err != nil {
		r.logger.Error("failed to record dataset load",
			slog.String("dataset", load.DatasetID),
			slog.String("status", load.Status),
			slog.Any("error", err))
		return apperrors.DatabaseError(err)
	}

	return nil
}

// Recent returns the latest limit entries, newest first. An empty
// datasetID returns entries for every dataset.
func (r *LoadJournalRepository) Recent(ctx context.Context, datasetID string, limit int) ([]domain.DatasetLoad, error) {
	if limit <= 0 {
		limit = 20
	}

	query := r.db.WithContext(ctx).Model(&domain.DatasetLoad{})
	if datasetID != "" {
		query = query.Where("dataset_id = ?", datasetID)
	}

	var loads []domain.DatasetLoad
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Find(&loads).
		Error
	if err != nil {
		r.logger.Error("failed to list dataset loads",
			slog.String("dataset", datasetID),
			slog.Any("error", err))
		return nil, apperrors.DatabaseError(err)
	}

	return loads, nil
}

// LastSuccessful returns the newest loaded entry for a dataset, or nil
func (r *LoadJournalRepository) LastSuccessful(ctx context.Context, datasetID string) (*domain.DatasetLoad, error) {
	var loads []domain.DatasetLoad
	err := r.db.WithContext(ctx).
		Where("dataset_id = ? AND status = ?", datasetID, domain.LoadStatusLoaded).
		Order("created_at DESC").
		Limit(1).
		Find(&loads).
		Error
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if len(loads) == 0 {
		return nil, nil
	}
	return &loads[0], nil
}

// CountByStatus returns the number of entries per status for a dataset
func (r *LoadJournalRepository) CountByStatus(ctx context.Context, datasetID string) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}

	var rows []statusCount
	err := r.db.WithContext(ctx).
		Model(&domain.DatasetLoad{}).
		Select("status, COUNT(*) as count").
		Where("dataset_id = ?", datasetID).
		Group("status").
		Scan(&rows).
		Error
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
