package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "github.com/HFocko/Dashboard/internal/pkg/errors"
)

// LocalStorage reads dataset documents from, and writes rendered output to,
// a base directory on the local filesystem.
type LocalStorage struct {
	basePath string
	logger   *slog.Logger
}

// LocalStorageConfig for local storage
type LocalStorageConfig struct {
	BasePath string // Base directory (e.g. DATA_DIR or CHART_OUTPUT_DIR)
}

// FileMetadata contains information about stored files
type FileMetadata struct {
	Handle      string
	StoredPath  string
	Size        int64
	Hash        string
	ContentType string
	ModTime     time.Time
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(cfg *LocalStorageConfig, logger *slog.Logger) (*LocalStorage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// Create base directory if it doesn't exist
	if err := os.MkdirAll(cfg.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &LocalStorage{
		basePath: cfg.BasePath,
		logger:   logger,
	}, nil
}

// BasePath returns the storage root
func (s *LocalStorage) BasePath() string {
	return s.basePath
}

// Fetch reads the whole document addressed by handle
func (s *LocalStorage) Fetch(ctx context.Context, handle string) ([]byte, error) {
	filePath, err := s.resolve(handle)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.SourceUnavailable(handle, fmt.Errorf("file not found: %s", handle))
		}
		return nil, apperrors.SourceUnavailable(handle, err)
	}

	s.logger.Debug("dataset source read",
		slog.String("handle", handle),
		slog.Int("size", len(data)))

	return data, nil
}

// Stat returns size and content hash of the document addressed by handle
func (s *LocalStorage) Stat(ctx context.Context, handle string) (*FileMetadata, error) {
	filePath, err := s.resolve(handle)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, apperrors.SourceUnavailable(handle, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return nil, fmt.Errorf("failed to hash file: %w", err)
	}

	return &FileMetadata{
		Handle:      handle,
		StoredPath:  filePath,
		Size:        info.Size(),
		Hash:        hex.EncodeToString(hash.Sum(nil)),
		ContentType: getContentType(handle),
		ModTime:     info.ModTime(),
	}, nil
}

// Save writes reader to name below the base directory and returns its metadata
func (s *LocalStorage) Save(ctx context.Context, name string, reader io.Reader) (*FileMetadata, error) {
	destPath, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	destFile, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer destFile.Close()

	// Calculate hash while copying
	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(destFile, hash), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	metadata := &FileMetadata{
		Handle:      name,
		StoredPath:  destPath,
		Size:        size,
		Hash:        hex.EncodeToString(hash.Sum(nil)),
		ContentType: getContentType(name),
		ModTime:     time.Now(),
	}

	s.logger.Info("file saved",
		slog.String("path", destPath),
		slog.Int64("size", size),
		slog.String("hash", metadata.Hash))

	return metadata, nil
}

// List returns the supported documents directly below the base directory
func (s *LocalStorage) List(ctx context.Context) ([]FileMetadata, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	files := make([]FileMetadata, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			s.logger.Warn("failed to get file info",
				slog.String("name", entry.Name()),
				slog.Any("error", err))
			continue
		}
		files = append(files, FileMetadata{
			Handle:      entry.Name(),
			StoredPath:  filepath.Join(s.basePath, entry.Name()),
			Size:        info.Size(),
			ContentType: getContentType(entry.Name()),
			ModTime:     info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Handle < files[j].Handle })
	return files, nil
}

// CleanupOldFiles removes files older than the specified duration
func (s *LocalStorage) CleanupOldFiles(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoffTime := time.Now().Add(-olderThan)

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		filePath := filepath.Join(s.basePath, entry.Name())
		info, err := entry.Info()
		if err != nil {
			s.logger.Warn("failed to get file info",
				slog.String("path", filePath),
				slog.Any("error", err))
			continue
		}

		if info.ModTime().Before(cutoffTime) {
			if err := os.Remove(filePath); err != nil {
				s.logger.Warn("failed to remove file",
					slog.String("path", filePath),
					slog.Any("error", err))
				continue
			}
			removed++
			s.logger.Debug("removed old file",
				slog.String("path", filePath),
				slog.Time("mod_time", info.ModTime()))
		}
	}

	return removed, nil
}

// resolve maps a relative handle to a path inside the base directory
func (s *LocalStorage) resolve(handle string) (string, error) {
	if handle == "" || filepath.IsAbs(handle) {
		return "", apperrors.BadRequest(fmt.Sprintf("invalid handle: %q", handle))
	}

	cleaned := filepath.Clean(filepath.FromSlash(handle))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", apperrors.BadRequest(fmt.Sprintf("handle escapes storage root: %q", handle))
	}

	return filepath.Join(s.basePath, cleaned), nil
}

// getContentType returns the content type based on file extension
func getContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".jsonl", ".ndjson":
		return "application/x-ndjson"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
