package database

import (
	"context"

	"github.com/davidleathers/laborboard/internal/domain/moderation"
)

var _ moderation.ReferenceSource = (*ReferenceSource)(nil)

// ReferenceSource loads both active reference tables straight from the
// database.
type ReferenceSource struct {
	patterns  moderation.PatternRepository
	whitelist moderation.WhitelistRepository
}

func NewReferenceSource(patterns moderation.PatternRepository, whitelist moderation.WhitelistRepository) *ReferenceSource {
	return &ReferenceSource{patterns: patterns, whitelist: whitelist}
}

func (s *ReferenceSource) LoadSnapshot(ctx context.Context) (moderation.ReferenceSnapshot, error) {
	patterns, err := s.patterns.ListActive(ctx)
	if err != nil {
		return moderation.ReferenceSnapshot{}, err
	}
	whitelist, err := s.whitelist.ListActive(ctx)
	if err != nil {
		return moderation.ReferenceSnapshot{}, err
	}
	return moderation.ReferenceSnapshot{Patterns: patterns, Whitelist: whitelist}, nil
}
