package memory

import (
	"github.com/secmon-lab/bastion/pkg/domain/interfaces"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = interfaces.ErrNotFound

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	assessment *assessmentRepository
	response   *responseRepository
	scenario   *scenarioRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		assessment: newAssessmentRepository(),
		response:   newResponseRepository(),
		scenario:   newScenarioRepository(),
	}
}

func (m *Memory) Assessment() interfaces.AssessmentRepository {
	return m.assessment
}

func (m *Memory) Response() interfaces.ResponseRepository {
	return m.response
}

func (m *Memory) Scenario() interfaces.ScenarioRepository {
	return m.scenario
}

func (m *Memory) Close() error {
	return nil
}
