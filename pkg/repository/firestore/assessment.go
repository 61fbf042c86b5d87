package firestore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type summaryDocument struct {
	GenerationID     string         `firestore:"generation_id"`
	OverallRiskLevel string         `firestore:"overall_risk_level"`
	ScenarioCount    int            `firestore:"scenario_count"`
	CriticalCount    int            `firestore:"critical_count"`
	LevelCounts      map[string]int `firestore:"level_counts"`
	TopThreats       []string       `firestore:"top_threats"`
	Narrative        string         `firestore:"narrative"`
	ScoredAt         time.Time      `firestore:"scored_at"`
}

type assessmentDocument struct {
	ID         int64            `firestore:"id"`
	Name       string           `firestore:"name"`
	Facility   string           `firestore:"facility"`
	TemplateID string           `firestore:"template_id"`
	Summary    *summaryDocument `firestore:"summary"`
	CreatedAt  time.Time        `firestore:"created_at"`
	UpdatedAt  time.Time        `firestore:"updated_at"`
}

func toAssessmentDocument(a *model.Assessment) *assessmentDocument {
	doc := &assessmentDocument{
		ID:         int64(a.ID),
		Name:       a.Name,
		Facility:   a.Facility,
		TemplateID: string(a.TemplateID),
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	if s := a.Summary; s != nil {
		doc.Summary = &summaryDocument{
			GenerationID:     string(s.GenerationID),
			OverallRiskLevel: string(s.OverallRiskLevel),
			ScenarioCount:    s.ScenarioCount,
			CriticalCount:    s.CriticalCount,
			LevelCounts:      make(map[string]int, len(s.LevelCounts)),
			Narrative:        s.Narrative,
			ScoredAt:         s.ScoredAt,
		}
		for level, n := range s.LevelCounts {
			doc.Summary.LevelCounts[string(level)] = n
		}
		for _, t := range s.TopThreats {
			doc.Summary.TopThreats = append(doc.Summary.TopThreats, string(t))
		}
	}
	return doc
}

func (d *assessmentDocument) toModel() *model.Assessment {
	a := &model.Assessment{
		ID:         types.AssessmentID(d.ID),
		Name:       d.Name,
		Facility:   d.Facility,
		TemplateID: types.TemplateID(d.TemplateID),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
	if s := d.Summary; s != nil {
		a.Summary = &model.AssessmentSummary{
			GenerationID:     types.GenerationID(s.GenerationID),
			OverallRiskLevel: types.RiskLevel(s.OverallRiskLevel),
			ScenarioCount:    s.ScenarioCount,
			CriticalCount:    s.CriticalCount,
			LevelCounts:      make(map[types.RiskLevel]int, len(s.LevelCounts)),
			Narrative:        s.Narrative,
			ScoredAt:         s.ScoredAt,
		}
		for level, n := range s.LevelCounts {
			a.Summary.LevelCounts[types.RiskLevel(level)] = n
		}
		for _, t := range s.TopThreats {
			a.Summary.TopThreats = append(a.Summary.TopThreats, types.ThreatID(t))
		}
	}
	return a
}

type assessmentRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newAssessmentRepository(client *firestore.Client) *assessmentRepository {
	return &assessmentRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *assessmentRepository) assessmentsCollection() string {
	return collectionName(r.collectionPrefix, "assessments")
}

func (r *assessmentRepository) counterCollection() string {
	return collectionName(r.collectionPrefix, "counters")
}

func (r *assessmentRepository) assessmentCounterDoc() string {
	return "assessment_counter"
}

func (r *assessmentRepository) docRef(id types.AssessmentID) *firestore.DocumentRef {
	return r.client.Collection(r.assessmentsCollection()).Doc(fmt.Sprintf("%d", id))
}

func (r *assessmentRepository) getNextID(ctx context.Context) (int64, error) {
	counterRef := r.client.Collection(r.counterCollection()).Doc(r.assessmentCounterDoc())

	var nextID int64
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(counterRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				nextID = 1
				return tx.Set(counterRef, map[string]interface{}{
					"value": nextID,
				})
			}
			return goerr.Wrap(err, "failed to get counter")
		}

		currentValue, err := doc.DataAt("value")
		if err != nil {
			return goerr.Wrap(err, "failed to get counter value")
		}

		nextID = currentValue.(int64) + 1
		return tx.Update(counterRef, []firestore.Update{
			{Path: "value", Value: nextID},
		})
	})

	if err != nil {
		return 0, goerr.Wrap(err, "failed to get next ID")
	}

	return nextID, nil
}

func (r *assessmentRepository) Create(ctx context.Context, assessment *model.Assessment) (*model.Assessment, error) {
	id, err := r.getNextID(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created := assessment.Copy()
	created.ID = types.AssessmentID(id)
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := r.docRef(created.ID).Set(ctx, toAssessmentDocument(created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create assessment")
	}

	return created, nil
}

func (r *assessmentRepository) Get(ctx context.Context, id types.AssessmentID) (*model.Assessment, error) {
	doc, err := r.docRef(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "assessment not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get assessment", goerr.V("id", id))
	}

	var assessmentDoc assessmentDocument
	if err := doc.DataTo(&assessmentDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal assessment", goerr.V("id", id))
	}

	return assessmentDoc.toModel(), nil
}

func (r *assessmentRepository) List(ctx context.Context) ([]*model.Assessment, error) {
	iter := r.client.Collection(r.assessmentsCollection()).Documents(ctx)
	defer iter.Stop()

	var assessments []*model.Assessment
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate assessments")
		}

		var assessmentDoc assessmentDocument
		if err := doc.DataTo(&assessmentDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal assessment")
		}
		assessments = append(assessments, assessmentDoc.toModel())
	}

	sort.Slice(assessments, func(i, j int) bool {
		return assessments[i].ID < assessments[j].ID
	})

	return assessments, nil
}

func (r *assessmentRepository) Update(ctx context.Context, assessment *model.Assessment) (*model.Assessment, error) {
	docRef := r.docRef(assessment.ID)

	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "assessment not found", goerr.V("id", assessment.ID))
		}
		return nil, goerr.Wrap(err, "failed to get assessment", goerr.V("id", assessment.ID))
	}

	var existing assessmentDocument
	if err := doc.DataTo(&existing); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal assessment", goerr.V("id", assessment.ID))
	}

	updated := assessment.Copy()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	if _, err := docRef.Set(ctx, toAssessmentDocument(updated)); err != nil {
		return nil, goerr.Wrap(err, "failed to update assessment", goerr.V("id", assessment.ID))
	}

	return updated, nil
}

func (r *assessmentRepository) Delete(ctx context.Context, id types.AssessmentID) error {
	docRef := r.docRef(id)

	_, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "assessment not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get assessment", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete assessment", goerr.V("id", id))
	}

	return nil
}
