package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/stratlab/stratlab/pkg/models"
	"github.com/stratlab/stratlab/pkg/repo"
)

// KnowledgeService exposes read access to an agent's knowledge store (the
// "list knowledge filterable by kind and tag" query of spec.md §6).
// Writes happen only through pkg/knowledge's Extractor, which applies the
// dedup/contradiction rules (spec.md §4.8); this service never inserts.
type KnowledgeService struct {
	knowledge *repo.KnowledgeRepo
}

// NewKnowledgeService builds a KnowledgeService over a KnowledgeRepo.
func NewKnowledgeService(knowledgeRepo *repo.KnowledgeRepo) *KnowledgeService {
	return &KnowledgeService{knowledge: knowledgeRepo}
}

// List returns an agent's knowledge entries, optionally filtered by kind.
func (s *KnowledgeService) List(ctx context.Context, agentID uuid.UUID, kind string) ([]*models.KnowledgeEntry, error) {
	if kind == "" {
		return s.knowledge.ListByAgent(ctx, agentID)
	}
	return s.knowledge.ListByAgentAndKind(ctx, agentID, kind)
}

// ListByTag returns an agent's knowledge entries matching a pattern tag,
// filtered client-side since the repository has no tag-filtered query.
func (s *KnowledgeService) ListByTag(ctx context.Context, agentID uuid.UUID, tag string) ([]*models.KnowledgeEntry, error) {
	all, err := s.knowledge.ListByAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return all, nil
	}

	out := make([]*models.KnowledgeEntry, 0, len(all))
	for _, e := range all {
		if e.PatternTag == tag {
			out = append(out, e)
		}
	}
	return out, nil
}
