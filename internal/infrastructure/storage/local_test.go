package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/HFocko/Dashboard/internal/pkg/errors"
)

const addictionCSV = "Year,Population\n2019,120\n2020,95\n"

func setupTestStorage(t *testing.T) (*LocalStorage, string) {
	tempDir := t.TempDir()

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError, // Only errors in tests
	}))

	storage, err := NewLocalStorage(&LocalStorageConfig{
		BasePath: tempDir,
	}, logger)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "addiction_population_data.csv"), []byte(addictionCSV), 0644))

	return storage, tempDir
}

func TestLocalStorage_Fetch(t *testing.T) {
	storage, _ := setupTestStorage(t)

	data, err := storage.Fetch(context.Background(), "addiction_population_data.csv")
	require.NoError(t, err)
	assert.Equal(t, addictionCSV, string(data))
}

func TestLocalStorage_FetchMissing(t *testing.T) {
	storage, _ := setupTestStorage(t)

	_, err := storage.Fetch(context.Background(), "netflix_titles.csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSourceUnavailable))
}

func TestLocalStorage_RejectsEscapingHandles(t *testing.T) {
	storage, _ := setupTestStorage(t)

	for _, handle := range []string{"../secret.csv", "a/../../secret.csv", "/etc/passwd", "", ".."} {
		t.Run(handle, func(t *testing.T) {
			_, err := storage.Fetch(context.Background(), handle)
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeBadRequest, apperrors.CodeOf(err))
		})
	}

	// a dot-dot inside the root is fine
	_, err := storage.Fetch(context.Background(), "sub/../addiction_population_data.csv")
	assert.NoError(t, err)
}

func TestLocalStorage_Stat(t *testing.T) {
	storage, _ := setupTestStorage(t)

	meta, err := storage.Stat(context.Background(), "addiction_population_data.csv")
	require.NoError(t, err)

	sum := sha256.Sum256([]byte(addictionCSV))
	assert.Equal(t, hex.EncodeToString(sum[:]), meta.Hash)
	assert.Equal(t, int64(len(addictionCSV)), meta.Size)
	assert.Equal(t, "text/csv", meta.ContentType)
}

func TestLocalStorage_SaveAndList(t *testing.T) {
	storage, tempDir := setupTestStorage(t)
	content := []byte("\x89PNG fake")

	meta, err := storage.Save(context.Background(), "netflix-pie.png", bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tempDir, "netflix-pie.png"), meta.StoredPath)
	assert.Equal(t, int64(len(content)), meta.Size)
	assert.Equal(t, "image/png", meta.ContentType)

	files, err := storage.List(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "addiction_population_data.csv", files[0].Handle)
	assert.Equal(t, "netflix-pie.png", files[1].Handle)
}

func TestLocalStorage_CleanupOldFiles(t *testing.T) {
	storage, tempDir := setupTestStorage(t)

	old := filepath.Join(tempDir, "old.png")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0644))
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	removed, err := storage.CleanupOldFiles(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(tempDir, "addiction_population_data.csv"))
	assert.NoError(t, err)
}

type fakeS3 struct {
	objects map[string]string
	calls   []string
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(params.Bucket) + "/" + aws.ToString(params.Key)
	f.calls = append(f.calls, key)
	body, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestS3Fetcher_Fetch(t *testing.T) {
	client := &fakeS3{objects: map[string]string{"datasets/addiction.csv": addictionCSV}}
	fetcher := NewS3FetcherWithClient(client, nil)

	data, err := fetcher.Fetch(context.Background(), "s3://datasets/addiction.csv")
	require.NoError(t, err)
	assert.Equal(t, addictionCSV, string(data))

	_, err = fetcher.Fetch(context.Background(), "s3://datasets/missing.csv")
	assert.True(t, errors.Is(err, apperrors.ErrSourceUnavailable))
}

func TestParseS3Handle(t *testing.T) {
	bucket, key, err := ParseS3Handle("s3://datasets/2024/netflix_titles.csv")
	require.NoError(t, err)
	assert.Equal(t, "datasets", bucket)
	assert.Equal(t, "2024/netflix_titles.csv", key)

	for _, bad := range []string{"datasets/a.csv", "s3://", "s3://bucket", "s3://bucket/", "s3:///key"} {
		_, _, err := ParseS3Handle(bad)
		assert.Error(t, err, bad)
	}
}

func TestRouter_Dispatch(t *testing.T) {
	storage, _ := setupTestStorage(t)
	client := &fakeS3{objects: map[string]string{"datasets/remote.csv": "Year\n2020\n"}}

	router := NewRouter(storage, NewS3FetcherWithClient(client, nil))

	data, err := router.Fetch(context.Background(), "addiction_population_data.csv")
	require.NoError(t, err)
	assert.Equal(t, addictionCSV, string(data))

	data, err = router.Fetch(context.Background(), "s3://datasets/remote.csv")
	require.NoError(t, err)
	assert.Equal(t, "Year\n2020\n", string(data))
	assert.Equal(t, []string{"datasets/remote.csv"}, client.calls)
}

func TestRouter_WithoutS3(t *testing.T) {
	storage, _ := setupTestStorage(t)

	_, err := NewRouter(storage, nil).Fetch(context.Background(), "s3://datasets/remote.csv")
	assert.True(t, errors.Is(err, apperrors.ErrSourceUnavailable))
}
