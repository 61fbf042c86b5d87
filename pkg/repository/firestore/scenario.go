package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type scenarioDocument struct {
	ID                  string    `firestore:"id"`
	AssessmentID        int64     `firestore:"assessment_id"`
	GenerationID        string    `firestore:"generation_id"`
	ThreatID            string    `firestore:"threat_id"`
	ThreatName          string    `firestore:"threat_name"`
	Likelihood          int       `firestore:"likelihood"`
	Vulnerability       int       `firestore:"vulnerability"`
	Impact              int       `firestore:"impact"`
	InherentRisk        int       `firestore:"inherent_risk"`
	RiskLevel           string    `firestore:"risk_level"`
	CriticalPriority    bool      `firestore:"critical_priority"`
	Narrative           string    `firestore:"narrative"`
	RecommendedControls []string  `firestore:"recommended_controls"`
	ResidualRisk        int       `firestore:"residual_risk"`
	CreatedAt           time.Time `firestore:"created_at"`
}

func toScenarioDocument(s *model.RiskScenario) *scenarioDocument {
	doc := &scenarioDocument{
		ID:               string(s.ID),
		AssessmentID:     int64(s.AssessmentID),
		GenerationID:     string(s.GenerationID),
		ThreatID:         string(s.ThreatID),
		ThreatName:       s.ThreatName,
		Likelihood:       s.Likelihood,
		Vulnerability:    s.Vulnerability,
		Impact:           s.Impact,
		InherentRisk:     s.InherentRisk,
		RiskLevel:        string(s.RiskLevel),
		CriticalPriority: s.CriticalPriority,
		Narrative:        s.Narrative,
		ResidualRisk:     s.ResidualRisk,
		CreatedAt:        s.CreatedAt,
	}
	for _, c := range s.RecommendedControls {
		doc.RecommendedControls = append(doc.RecommendedControls, string(c))
	}
	return doc
}

func (d *scenarioDocument) toModel() *model.RiskScenario {
	s := &model.RiskScenario{
		ID:               types.ScenarioID(d.ID),
		AssessmentID:     types.AssessmentID(d.AssessmentID),
		GenerationID:     types.GenerationID(d.GenerationID),
		ThreatID:         types.ThreatID(d.ThreatID),
		ThreatName:       d.ThreatName,
		Likelihood:       d.Likelihood,
		Vulnerability:    d.Vulnerability,
		Impact:           d.Impact,
		InherentRisk:     d.InherentRisk,
		RiskLevel:        types.RiskLevel(d.RiskLevel),
		CriticalPriority: d.CriticalPriority,
		Narrative:        d.Narrative,
		ResidualRisk:     d.ResidualRisk,
		CreatedAt:        d.CreatedAt,
	}
	for _, c := range d.RecommendedControls {
		s.RecommendedControls = append(s.RecommendedControls, types.ControlID(c))
	}
	return s
}

// ScenariosCollection is the root collection name of scenario rows. It is
// exported for index migration.
const ScenariosCollection = "scenarios"

type scenarioRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newScenarioRepository(client *firestore.Client) *scenarioRepository {
	return &scenarioRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *scenarioRepository) scenariosCollection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, ScenariosCollection))
}

func (r *scenarioRepository) Create(ctx context.Context, scenario *model.RiskScenario) error {
	docRef := r.scenariosCollection().Doc(string(scenario.ID))

	// Create fails when the document already exists
	if _, err := docRef.Create(ctx, toScenarioDocument(scenario)); err != nil {
		return goerr.Wrap(err, "failed to create scenario",
			goerr.V("assessment_id", scenario.AssessmentID), goerr.V("id", scenario.ID))
	}

	return nil
}

func (r *scenarioRepository) ListByAssessment(ctx context.Context, assessmentID types.AssessmentID) ([]*model.RiskScenario, error) {
	iter := r.scenariosCollection().
		Where("assessment_id", "==", int64(assessmentID)).
		OrderBy("created_at", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var scenarios []*model.RiskScenario
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate scenarios", goerr.V("assessment_id", assessmentID))
		}

		var scenarioDoc scenarioDocument
		if err := doc.DataTo(&scenarioDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal scenario", goerr.V("assessment_id", assessmentID))
		}
		scenarios = append(scenarios, scenarioDoc.toModel())
	}

	return scenarios, nil
}

func (r *scenarioRepository) Delete(ctx context.Context, assessmentID types.AssessmentID, id types.ScenarioID) error {
	docRef := r.scenariosCollection().Doc(string(id))

	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "scenario not found",
				goerr.V("assessment_id", assessmentID), goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get scenario", goerr.V("id", id))
	}

	var scenarioDoc scenarioDocument
	if err := doc.DataTo(&scenarioDoc); err != nil {
		return goerr.Wrap(err, "failed to unmarshal scenario", goerr.V("id", id))
	}
	if types.AssessmentID(scenarioDoc.AssessmentID) != assessmentID {
		return goerr.Wrap(ErrNotFound, "scenario not found",
			goerr.V("assessment_id", assessmentID), goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete scenario", goerr.V("id", id))
	}

	return nil
}

func (r *scenarioRepository) DeleteByAssessment(ctx context.Context, assessmentID types.AssessmentID) error {
	iter := r.scenariosCollection().Where("assessment_id", "==", int64(assessmentID)).Documents(ctx)
	defer iter.Stop()

	bulkWriter := r.client.BulkWriter(ctx)

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			bulkWriter.End()
			return goerr.Wrap(err, "failed to iterate scenarios for deletion", goerr.V("assessment_id", assessmentID))
		}

		if _, err := bulkWriter.Delete(doc.Ref); err != nil {
			bulkWriter.End()
			return goerr.Wrap(err, "failed to delete scenario", goerr.V("assessment_id", assessmentID))
		}
	}

	bulkWriter.End()

	return nil
}
