package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/catalog"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

// ValidationIssue represents a single problem found while validating
// catalogs or stored data
type ValidationIssue struct {
	TemplateID   string
	AssessmentID types.AssessmentID
	Kind         string
	Message      string
	Names        []string
}

// ValidationResult holds the results of a validation run
type ValidationResult struct {
	Issues []ValidationIssue
}

// HasIssues returns true if there are any validation issues
func (r *ValidationResult) HasIssues() bool {
	return len(r.Issues) > 0
}

// AddIssue adds a validation issue to the result
func (r *ValidationResult) AddIssue(issue ValidationIssue) {
	r.Issues = append(r.Issues, issue)
}

// Err converts the issues into ErrUnresolvedCatalogEntry carrying the count
// and list of unresolved names, or nil when there is nothing to report
func (r *ValidationResult) Err() error {
	if !r.HasIssues() {
		return nil
	}
	var missing []string
	for _, issue := range r.Issues {
		for _, n := range issue.Names {
			missing = append(missing, fmt.Sprintf("%s:%s", issue.TemplateID, n))
		}
	}
	return goerr.Wrap(model.ErrUnresolvedCatalogEntry, "catalog validation failed",
		goerr.V(model.MissingCountKey, len(missing)),
		goerr.V(model.MissingKey, missing),
		goerr.V("issues", len(r.Issues)))
}

// ValidateCatalogs resolves every threat and control referenced by the
// templates against the merged catalogs and reports what is missing. It
// also builds each resolvable template to surface structural errors.
func ValidateCatalogs(catalogs []*catalog.CatalogDocument, templates []*catalog.TemplateDocument) (*ValidationResult, error) {
	kb, err := catalog.BuildKnowledgeBase(catalogs...)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid catalog")
	}

	result := &ValidationResult{}
	registry := model.NewTemplateRegistry(kb)
	for _, doc := range templates {
		threats, controls := doc.Unresolved(kb)
		if len(threats) > 0 {
			result.AddIssue(ValidationIssue{
				TemplateID: doc.ID,
				Kind:       "threat",
				Message:    fmt.Sprintf("%d unresolved threat reference(s)", len(threats)),
				Names:      threats,
			})
		}
		if len(controls) > 0 {
			result.AddIssue(ValidationIssue{
				TemplateID: doc.ID,
				Kind:       "control",
				Message:    fmt.Sprintf("%d unresolved control reference(s)", len(controls)),
				Names:      controls,
			})
		}
		if len(threats) > 0 || len(controls) > 0 {
			continue
		}

		q, err := doc.ToQuestionnaire(kb)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to convert template", goerr.V(model.TemplateIDKey, doc.ID))
		}
		if err := registry.Register(q); err != nil {
			result.AddIssue(ValidationIssue{
				TemplateID: doc.ID,
				Kind:       "template",
				Message:    err.Error(),
			})
		}
	}

	return result, nil
}

// ValidateDB checks that stored assessments reference registered templates
// and that their responses reference questions of that template. It does
// NOT modify any data.
func (uc *UseCases) ValidateDB(ctx context.Context) (*ValidationResult, error) {
	result := &ValidationResult{}

	assessments, err := uc.repo.Assessment().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list assessments")
	}

	for _, a := range assessments {
		q, err := uc.registry.Get(a.TemplateID)
		if err != nil {
			result.AddIssue(ValidationIssue{
				TemplateID:   a.TemplateID.String(),
				AssessmentID: a.ID,
				Kind:         "template",
				Message:      "assessment references an unregistered template",
			})
			continue
		}

		responses, err := uc.repo.Response().List(ctx, a.ID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list responses", goerr.V(AssessmentIDKey, a.ID))
		}

		var unknown []string
		for _, r := range responses {
			if _, ok := q.Question(r.QuestionID); !ok {
				unknown = append(unknown, r.QuestionID.String())
			}
		}
		if len(unknown) > 0 {
			result.AddIssue(ValidationIssue{
				TemplateID:   a.TemplateID.String(),
				AssessmentID: a.ID,
				Kind:         "response",
				Message:      fmt.Sprintf("responses to unknown questions: %s", strings.Join(unknown, ", ")),
				Names:        unknown,
			})
		}
	}

	return result, nil
}
