package recordstore

import (
	"github.com/HFocko/Dashboard/internal/core/domain"
	"github.com/HFocko/Dashboard/internal/pkg/config"
)

// DefaultPageSize is the number of rows per table page
const DefaultPageSize = 10

// Options configures a Store
type Options struct {
	// PageSize is the number of rows per page (default 10)
	PageSize int

	// InsertPolicy decides where inserted records appear in the view:
	// "append" adds them to the end regardless of filter and sort,
	// "reapply" recomputes the view after every mutation.
	InsertPolicy string
}

// DefaultOptions returns the options matching the original dashboard
func DefaultOptions() Options {
	return Options{
		PageSize:     DefaultPageSize,
		InsertPolicy: config.InsertPolicyAppend,
	}
}

// OptionsFromConfig builds store options from application config
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	if cfg.PageSize > 0 {
		opts.PageSize = cfg.PageSize
	}
	if cfg.InsertPolicy != "" {
		opts.InsertPolicy = cfg.InsertPolicy
	}
	return opts
}

// Page is one slice of the current view
type Page struct {
	Rows       []*domain.Record `json:"rows"`
	Number     int              `json:"number"`
	TotalPages int              `json:"total_pages"`
	PageSize   int              `json:"page_size"`
	Total      int              `json:"total"`
}
