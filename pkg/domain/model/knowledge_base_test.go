package model_test

import (
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

func newKB(t *testing.T) *model.KnowledgeBase {
	t.Helper()
	kb, err := model.NewKnowledgeBase(
		[]model.Threat{
			{ID: "cargo-theft", Name: "Cargo Theft", BaselineLikelihood: 3, BaselineImpact: 4},
			{ID: "fire", Name: "Fire", BaselineLikelihood: 1, BaselineImpact: 5},
		},
		[]model.Control{
			{ID: "cctv", Name: "CCTV Coverage", Effectiveness: 0.6},
			{ID: "seal-verification", Name: "Trailer Seal Verification", Effectiveness: 0.8},
		},
	)
	gt.NoError(t, err).Required()
	return kb
}

func TestNewKnowledgeBase(t *testing.T) {
	t.Run("keeps authored order", func(t *testing.T) {
		kb := newKB(t)
		threats := kb.Threats()
		gt.Array(t, threats).Length(2)
		gt.Value(t, threats[0].ID).Equal(types.ThreatID("cargo-theft"))
		gt.Value(t, threats[1].ID).Equal(types.ThreatID("fire"))
		gt.Array(t, kb.Controls()).Length(2)
	})

	t.Run("duplicate threat", func(t *testing.T) {
		_, err := model.NewKnowledgeBase([]model.Threat{
			{ID: "fire", Name: "Fire", BaselineLikelihood: 1, BaselineImpact: 5},
			{ID: "fire", Name: "Fire again", BaselineLikelihood: 1, BaselineImpact: 5},
		}, nil)
		gt.Error(t, err).Is(model.ErrDuplicateID)
	})

	t.Run("threat names differing only in case and spacing", func(t *testing.T) {
		_, err := model.NewKnowledgeBase([]model.Threat{
			{ID: "cargo-theft", Name: "Cargo Theft", BaselineLikelihood: 3, BaselineImpact: 4},
			{ID: "cargo-theft-2", Name: "  cargo   theft", BaselineLikelihood: 2, BaselineImpact: 3},
		}, nil)
		gt.Error(t, err).Is(model.ErrDuplicateID)
	})

	t.Run("duplicate control name", func(t *testing.T) {
		_, err := model.NewKnowledgeBase(nil, []model.Control{
			{ID: "cctv", Name: "CCTV coverage", Effectiveness: 0.6},
			{ID: "cctv-dock", Name: "cctv Coverage", Effectiveness: 0.4},
		})
		gt.Error(t, err).Is(model.ErrDuplicateID)
	})

	t.Run("baseline out of range", func(t *testing.T) {
		_, err := model.NewKnowledgeBase([]model.Threat{
			{ID: "fire", Name: "Fire", BaselineLikelihood: 0, BaselineImpact: 5},
		}, nil)
		gt.Error(t, err).Is(model.ErrScoreOutOfRange)
	})

	t.Run("effectiveness out of range", func(t *testing.T) {
		_, err := model.NewKnowledgeBase(nil, []model.Control{
			{ID: "cctv", Name: "CCTV", Effectiveness: 1.5},
		})
		gt.Error(t, err).Is(model.ErrScoreOutOfRange)
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := model.NewKnowledgeBase(nil, []model.Control{{ID: "cctv"}})
		gt.Error(t, err).Is(model.ErrMissingName)
	})
}

func TestKnowledgeBase_Load(t *testing.T) {
	kb := newKB(t)

	byID := kb.LoadThreatsByID()
	gt.Map(t, byID).HasKey("fire")

	byName := kb.LoadControlsByName()
	gt.Map(t, byName).HasKey("trailer seal verification")
	gt.Value(t, byName["cctv coverage"].ID).Equal(types.ControlID("cctv"))
}

func TestKnowledgeBase_Resolve(t *testing.T) {
	kb := newKB(t)

	t.Run("ids and normalized names resolve", func(t *testing.T) {
		result := kb.ResolveThreatNames([]string{"fire", "  cargo   THEFT "})
		gt.Array(t, result.Missing).Length(0)
		gt.NoError(t, result.Err())
		gt.Value(t, result.Found["fire"]).Equal(types.ThreatID("fire"))
		gt.Value(t, result.Found["  cargo   THEFT "]).Equal(types.ThreatID("cargo-theft"))
	})

	t.Run("every unresolved name is reported", func(t *testing.T) {
		result := kb.ResolveControlNames([]string{"Guard Patrol", "cctv", "alarm", "Guard Patrol"})
		gt.Value(t, result.Missing).Equal([]string{"Guard Patrol", "alarm"})
		gt.Value(t, len(result.Found)).Equal(1)

		err := result.Err()
		gt.Error(t, err).Is(model.ErrUnresolvedCatalogEntry)
		values := goerr.Unwrap(err).Values()
		gt.Value(t, values[model.MissingCountKey]).Equal(any(2))
	})
}
