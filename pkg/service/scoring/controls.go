package scoring

import (
	"sort"

	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

// ControlSet is the immutable set of controls evidenced present by the responses
type ControlSet struct {
	ids map[types.ControlID]struct{}
}

// Has reports whether the control is evidenced present
func (s ControlSet) Has(id types.ControlID) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of detected controls
func (s ControlSet) Len() int {
	return len(s.ids)
}

// IDs returns the detected control IDs in sorted order
func (s ControlSet) IDs() []types.ControlID {
	ids := make([]types.ControlID, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// DetectControls makes one pass over every answered question and marks the
// suggested controls of each safely answered one as present. A control
// evidenced by any question is present for every threat.
func DetectControls(q *model.Questionnaire, responses model.Responses) ControlSet {
	ids := make(map[types.ControlID]struct{})
	for i := range q.Questions {
		question := &q.Questions[i]
		if len(question.Controls) == 0 {
			continue
		}
		if !Safe(question, responses.Answer(question.ID)) {
			continue
		}
		for _, cid := range question.Controls {
			ids[cid] = struct{}{}
		}
	}
	return ControlSet{ids: ids}
}
