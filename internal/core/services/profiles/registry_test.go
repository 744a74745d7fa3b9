package profiles

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HFocko/Dashboard/internal/core/domain"
	apperrors "github.com/HFocko/Dashboard/internal/pkg/errors"
)

func TestDefault(t *testing.T) {
	r := Default()

	assert.Equal(t, []string{"addiction", "netflix"}, r.IDs())

	netflix, err := r.Get("netflix")
	require.NoError(t, err)
	assert.Equal(t, "netflix_titles.csv", netflix.SourceHandle)
	assert.Equal(t, "type", netflix.CategoryField)
	assert.Equal(t, "release_year", netflix.YearField)
	assert.Equal(t, "duration", netflix.TrendY())
	assert.Equal(t, "Genres", netflix.Label("listed_in"))

	addiction, err := r.Get("addiction")
	require.NoError(t, err)
	assert.Equal(t, "Year", addiction.CategoryField)
	assert.Equal(t, "Population", addiction.TrendY())
}

func TestRegistry_Aliases(t *testing.T) {
	r := Default()

	p, err := r.Get("netflix_titles")
	require.NoError(t, err)
	assert.Equal(t, "netflix", p.ID)
}

func TestRegistry_UnknownDataset(t *testing.T) {
	_, err := Default().Get("weather")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnknownDataset))

	appErr, ok := apperrors.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, "weather", appErr.Details["dataset"])
}

func TestNewRegistry_Validation(t *testing.T) {
	tests := []struct {
		name     string
		profiles []domain.Profile
	}{
		{"missing id", []domain.Profile{{SourceHandle: "a.csv"}}},
		{"missing handle", []domain.Profile{{ID: "a"}}},
		{"duplicate", []domain.Profile{{ID: "a", SourceHandle: "a.csv"}, {ID: "a", SourceHandle: "b.csv"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.profiles...)
			assert.Error(t, err)
		})
	}

	r, err := NewRegistry(domain.Profile{ID: "sales", SourceHandle: "s3://bucket/sales.csv"})
	require.NoError(t, err)
	assert.Len(t, r.All(), 1)
}

func TestRegistry_ProfilesAreCopies(t *testing.T) {
	p, err := Default().Get("netflix")
	require.NoError(t, err)
	p.Labels["type"] = "Changed"

	fresh, err := Default().Get("netflix")
	require.NoError(t, err)
	assert.Equal(t, "Type", fresh.Label("type"))

	labels := map[string]string{"Year": "Year"}
	r, err := NewRegistry(domain.Profile{ID: "sales", SourceHandle: "sales.csv", Labels: labels})
	require.NoError(t, err)
	labels["Year"] = "Changed"

	stored, err := r.Get("sales")
	require.NoError(t, err)
	assert.Equal(t, "Year", stored.Label("Year"))

	r.All()[0].Labels["Year"] = "Changed"
	stored, err = r.Get("sales")
	require.NoError(t, err)
	assert.Equal(t, "Year", stored.Label("Year"))
}
