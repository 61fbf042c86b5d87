package scoring

import "github.com/secmon-lab/bastion/pkg/domain/model"

// clamp constrains a component score to [1, 5]
func clamp(v int) int {
	if v < model.MinScore {
		return model.MinScore
	}
	if v > model.MaxScore {
		return model.MaxScore
	}
	return v
}
