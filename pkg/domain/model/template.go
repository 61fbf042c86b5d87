package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

// TemplateRegistry holds the knowledge base and the facility questionnaire
// templates built against it. It holds settings only, no repositories.
type TemplateRegistry struct {
	kb      *KnowledgeBase
	entries map[types.TemplateID]*Questionnaire
	order   []types.TemplateID
}

// NewTemplateRegistry creates an empty registry over a knowledge base
func NewTemplateRegistry(kb *KnowledgeBase) *TemplateRegistry {
	return &TemplateRegistry{
		kb:      kb,
		entries: make(map[types.TemplateID]*Questionnaire),
	}
}

// KnowledgeBase returns the shared catalogs
func (r *TemplateRegistry) KnowledgeBase() *KnowledgeBase {
	return r.kb
}

// Register builds the questionnaire against the knowledge base and adds it
func (r *TemplateRegistry) Register(q *Questionnaire) error {
	if err := q.Build(r.kb); err != nil {
		return goerr.Wrap(err, "failed to build questionnaire", goerr.V(TemplateIDKey, q.ID))
	}
	if _, exists := r.entries[q.ID]; exists {
		return goerr.Wrap(ErrDuplicateID, "duplicate template ID", goerr.V(TemplateIDKey, q.ID))
	}
	r.entries[q.ID] = q
	r.order = append(r.order, q.ID)
	return nil
}

// Get retrieves a template by ID
func (r *TemplateRegistry) Get(id types.TemplateID) (*Questionnaire, error) {
	q, ok := r.entries[id]
	if !ok {
		return nil, goerr.Wrap(ErrTemplateNotFound, "template not found", goerr.V(TemplateIDKey, id))
	}
	return q, nil
}

// List returns all templates in registration order
func (r *TemplateRegistry) List() []*Questionnaire {
	result := make([]*Questionnaire, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.entries[id])
	}
	return result
}
