package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDatasetLoad_TableName(t *testing.T) {
	load := DatasetLoad{}
	assert.Equal(t, "dataset_loads", load.TableName())
}

func TestDatasetLoad_BeforeCreateAssignsID(t *testing.T) {
	load := &DatasetLoad{DatasetID: "netflix", SourceHandle: "netflix_titles.csv"}

	// Before create, ID should be Nil
	assert.Equal(t, uuid.Nil, load.ID)

	assert.NoError(t, load.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, load.ID)

	// An existing ID is preserved
	id := load.ID
	assert.NoError(t, load.BeforeCreate(nil))
	assert.Equal(t, id, load.ID)
}

func TestDatasetLoad_StatusValidation(t *testing.T) {
	assert.Equal(t, []string{"loaded", "empty", "failed"}, ValidLoadStatuses())

	tests := []struct {
		status string
		valid  bool
	}{
		{"loaded", true},
		{"empty", true},
		{"failed", true},
		{"uploaded", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidLoadStatus(tt.status))
		})
	}
}

func TestDatasetLoad_Succeeded(t *testing.T) {
	assert.True(t, (&DatasetLoad{Status: LoadStatusLoaded}).Succeeded())
	assert.False(t, (&DatasetLoad{Status: LoadStatusEmpty}).Succeeded())
	assert.False(t, (&DatasetLoad{Status: LoadStatusFailed}).Succeeded())
}
