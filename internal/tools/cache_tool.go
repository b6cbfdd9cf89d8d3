package tools

import (
	"fmt"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/cache"
)

// GetCachedResultInput validates get_cached_result (§4.6, §4.9).
type GetCachedResultInput struct {
	RefID    string
	Page     int // 0 means "return the full value", not page 1
	PageSize int
}

// GetCachedResultOutput is the full-value or paginated response, never
// wrapped in another Envelope: this is the terminal retrieval step every
// other tool's ref_id eventually resolves through.
type GetCachedResultOutput struct {
	RefID      string `json:"ref_id"`
	Value      any    `json:"value,omitempty"`
	Page       int    `json:"page,omitempty"`
	PageSize   int    `json:"page_size,omitempty"`
	TotalItems int    `json:"total_items,omitempty"`
	TotalPages int    `json:"total_pages,omitempty"`
}

// GetCachedResult resolves ref_id under the calling agent's READ/FULL
// permission, returning either the full value or one page of a
// list-shaped value.
func (s *Surface) GetCachedResult(in GetCachedResultInput) (GetCachedResultOutput, error) {
	if err := requireNonEmpty("ref_id", in.RefID); err != nil {
		return GetCachedResultOutput{}, err
	}

	if in.Page > 0 {
		pageSize := in.PageSize
		if pageSize <= 0 {
			pageSize = 20
		}
		p, err := s.cache.GetPage(in.RefID, cache.CallerAgent, in.Page, pageSize)
		if err != nil {
			return GetCachedResultOutput{}, fmt.Errorf("get_cached_result: %w", err)
		}
		return GetCachedResultOutput{
			RefID:      in.RefID,
			Value:      p.Items,
			Page:       p.Page,
			PageSize:   p.PageSize,
			TotalItems: p.TotalItems,
			TotalPages: p.TotalPages,
		}, nil
	}

	entry, err := s.cache.Get(in.RefID, cache.CallerAgent)
	if err != nil {
		return GetCachedResultOutput{}, fmt.Errorf("get_cached_result: %w", err)
	}
	return GetCachedResultOutput{RefID: entry.RefID, Value: entry.Value}, nil
}
