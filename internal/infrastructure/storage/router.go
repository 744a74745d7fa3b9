package storage

import (
	"context"
	"fmt"

	apperrors "github.com/HFocko/Dashboard/internal/pkg/errors"
)

// Fetcher reads a whole dataset document
type Fetcher interface {
	Fetch(ctx context.Context, handle string) ([]byte, error)
}

// Router sends s3:// handles to the S3 fetcher and everything else to local storage
type Router struct {
	local Fetcher
	s3    Fetcher
}

// NewRouter creates a router; s3 may be nil when S3 is not configured
func NewRouter(local, s3 Fetcher) *Router {
	return &Router{local: local, s3: s3}
}

// Fetch dispatches on the handle scheme
func (r *Router) Fetch(ctx context.Context, handle string) ([]byte, error) {
	if IsS3Handle(handle) {
		if r.s3 == nil {
			return nil, apperrors.SourceUnavailable(handle, fmt.Errorf("s3 source not configured"))
		}
		return r.s3.Fetch(ctx, handle)
	}
	if r.local == nil {
		return nil, apperrors.SourceUnavailable(handle, fmt.Errorf("local source not configured"))
	}
	return r.local.Fetch(ctx, handle)
}
