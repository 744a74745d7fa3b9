// Package loader turns a dataset profile into loaded records: it fetches
// the source document through a cache, parses it by extension and journals
// every attempt.
package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/HFocko/Dashboard/internal/core/domain"
	"github.com/HFocko/Dashboard/internal/infrastructure/parsers"
	apperrors "github.com/HFocko/Dashboard/internal/pkg/errors"
	"github.com/HFocko/Dashboard/internal/pkg/metrics"
)

// CacheKeyPrefix prefixes source cache keys; the handle follows it
const CacheKeyPrefix = "dataset:source:"

// Fetcher reads a whole source document
type Fetcher interface {
	Fetch(ctx context.Context, handle string) ([]byte, error)
}

// SourceCache stores raw source documents
type SourceCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Journal records load attempts
type Journal interface {
	RecordLoad(ctx context.Context, load *domain.DatasetLoad) error
}

// Parser parses a fetched document, picking the format from the handle
type Parser interface {
	ParseBytes(ctx context.Context, handle string, data []byte) (*parsers.ParseResult, error)
}

// ProfileResolver looks up dataset profiles by identifier
type ProfileResolver interface {
	Get(id string) (domain.Profile, error)
}

// Config holds the loader collaborators. Cache, Journal, Profiles and
// Metrics are optional.
type Config struct {
	Fetcher  Fetcher
	Parser   Parser
	Cache    SourceCache
	Journal  Journal
	Profiles ProfileResolver
	Metrics  *metrics.Metrics
	CacheTTL time.Duration
}

// Service loads datasets
type Service struct {
	fetcher  Fetcher
	parser   Parser
	cache    SourceCache
	journal  Journal
	profiles ProfileResolver
	metrics  *metrics.Metrics
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a loader; a nil Parser uses the default parser factory
func NewService(cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	parser := cfg.Parser
	if parser == nil {
		parser = parsers.NewParserFactory(nil)
	}

	return &Service{
		fetcher:  cfg.Fetcher,
		parser:   parser,
		cache:    cfg.Cache,
		journal:  cfg.Journal,
		profiles: cfg.Profiles,
		metrics:  cfg.Metrics,
		ttl:      cfg.CacheTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// Load fetches, parses and converts the profile's source into a dataset.
// Parse failures and documents without data rows yield ErrEmptyDataset.
func (s *Service) Load(ctx context.Context, profile domain.Profile) (*domain.Dataset, error) {
	start := s.now()
	entry := &domain.DatasetLoad{
		DatasetID:    profile.ID,
		SourceHandle: profile.SourceHandle,
	}

	dataset, err := s.load(ctx, profile, entry)
	entry.DurationMs = s.now().Sub(start).Milliseconds()

	switch {
	case err == nil:
		entry.Status = domain.LoadStatusLoaded
	case errors.Is(err, apperrors.ErrEmptyDataset):
		entry.Status = domain.LoadStatusEmpty
		entry.ErrorMessage = err.Error()
	default:
		entry.Status = domain.LoadStatusFailed
		entry.ErrorMessage = err.Error()
	}
	s.metrics.IncLoad(profile.ID, entry.Status)
	s.record(ctx, entry)

	if err != nil {
		s.logger.Warn("dataset load failed",
			slog.String("dataset", profile.ID),
			slog.String("status", entry.Status),
			slog.Any("error", err))
		return nil, err
	}

	s.logger.Info("dataset loaded",
		slog.String("dataset", profile.ID),
		slog.Int("records", len(dataset.Records)),
		slog.Int("skipped_rows", dataset.SkippedRows),
		slog.Bool("cache_hit", entry.CacheHit),
		slog.Int64("duration_ms", entry.DurationMs))
	return dataset, nil
}

func (s *Service) load(ctx context.Context, profile domain.Profile, entry *domain.DatasetLoad) (*domain.Dataset, error) {
	data, hit, err := s.source(ctx, profile.SourceHandle)
	entry.CacheHit = hit
	if err != nil {
		return nil, err
	}
	entry.ContentHash = contentHash(data)

	result, err := s.parser.ParseBytes(ctx, profile.SourceHandle, data)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnsupportedFormat) {
			return nil, err
		}
		return nil, apperrors.EmptyDataset(profile.SourceHandle).WithDetails("cause", err.Error())
	}
	entry.Format = result.Format
	entry.TotalRows = len(result.Rows)
	entry.SkippedRows = result.SkippedRows
	entry.ColumnCount = len(result.Columns)

	if len(result.Rows) == 0 {
		return nil, apperrors.EmptyDataset(profile.SourceHandle)
	}

	records := make([]*domain.Record, len(result.Rows))
	for i, row := range result.Rows {
		records[i] = &domain.Record{ID: uuid.New(), Values: row}
	}

	return &domain.Dataset{
		Profile:     profile,
		Columns:     result.Columns,
		Records:     records,
		ContentHash: entry.ContentHash,
		Format:      result.Format,
		SkippedRows: result.SkippedRows,
		LoadedAt:    s.now().UTC(),
	}, nil
}

// Warm fetches the profile's source into the cache and checks it parses.
// No store is touched.
func (s *Service) Warm(ctx context.Context, profile domain.Profile) error {
	data, _, err := s.source(ctx, profile.SourceHandle)
	if err != nil {
		return err
	}
	result, err := s.parser.ParseBytes(ctx, profile.SourceHandle, data)
	if err != nil {
		return err
	}
	if len(result.Rows) == 0 {
		return apperrors.EmptyDataset(profile.SourceHandle)
	}
	return nil
}

// WarmDataset resolves id through the profile registry and warms it
func (s *Service) WarmDataset(ctx context.Context, id string) error {
	if s.profiles == nil {
		return apperrors.Internal("loader has no profile registry")
	}
	profile, err := s.profiles.Get(id)
	if err != nil {
		return err
	}
	return s.Warm(ctx, profile)
}

// RefreshDataset drops the cached source of id and warms it again from
// the backing store
func (s *Service) RefreshDataset(ctx context.Context, id string) error {
	if s.profiles == nil {
		return apperrors.Internal("loader has no profile registry")
	}
	profile, err := s.profiles.Get(id)
	if err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, CacheKey(profile.SourceHandle)); err != nil {
			return err
		}
		s.logger.Info("source cache entry dropped",
			slog.String("dataset", profile.ID),
			slog.String("handle", profile.SourceHandle))
	}
	return s.Warm(ctx, profile)
}

// source returns the document bytes, consulting the cache first. Cache
// failures are logged and treated as misses.
func (s *Service) source(ctx context.Context, handle string) ([]byte, bool, error) {
	if s.fetcher == nil {
		return nil, false, apperrors.SourceUnavailable(handle, errors.New("no fetcher configured"))
	}
	key := CacheKey(handle)

	if s.cache != nil {
		data, hit, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("source cache lookup failed",
				slog.String("key", key),
				slog.Any("error", err))
		}
		s.metrics.IncCacheLookup(hit && err == nil)
		if hit && err == nil {
			return data, true, nil
		}
	}

	data, err := s.fetcher.Fetch(ctx, handle)
	if err != nil {
		if !errors.Is(err, apperrors.ErrSourceUnavailable) {
			err = apperrors.SourceUnavailable(handle, err)
		}
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			s.logger.Warn("source cache store failed",
				slog.String("key", key),
				slog.Any("error", err))
		}
	}
	return data, false, nil
}

func (s *Service) record(ctx context.Context, entry *domain.DatasetLoad) {
	if s.journal == nil {
		return
	}
	if err := s.journal.RecordLoad(ctx, entry); err != nil {
		s.logger.Error("failed to journal dataset load",
			slog.String("dataset", entry.DatasetID),
			slog.Any("error", err))
	}
}

// CacheKey returns the source cache key for handle
func CacheKey(handle string) string {
	return CacheKeyPrefix + handle
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
