package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

// Threat is an entry of the threat catalog
type Threat struct {
	ID                 types.ThreatID
	Name               string
	Category           string
	BaselineLikelihood int
	BaselineImpact     int
	Description        string
}

// Validate checks if the Threat is valid
func (t *Threat) Validate() error {
	if err := t.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid threat ID")
	}
	if t.Name == "" {
		return goerr.Wrap(ErrMissingName, "threat name is required", goerr.V(ThreatIDKey, t.ID))
	}
	if t.BaselineLikelihood < MinScore || t.BaselineLikelihood > MaxScore {
		return goerr.Wrap(ErrScoreOutOfRange, "threat baseline likelihood must be between 1 and 5",
			goerr.V(ThreatIDKey, t.ID), goerr.V("likelihood", t.BaselineLikelihood))
	}
	if t.BaselineImpact < MinScore || t.BaselineImpact > MaxScore {
		return goerr.Wrap(ErrScoreOutOfRange, "threat baseline impact must be between 1 and 5",
			goerr.V(ThreatIDKey, t.ID), goerr.V("impact", t.BaselineImpact))
	}
	return nil
}

// Control is an entry of the control catalog
type Control struct {
	ID            types.ControlID
	Name          string
	Category      string
	Effectiveness float64
	Description   string
}

// Validate checks if the Control is valid
func (c *Control) Validate() error {
	if err := c.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid control ID")
	}
	if c.Name == "" {
		return goerr.Wrap(ErrMissingName, "control name is required", goerr.V(ControlIDKey, c.ID))
	}
	if c.Effectiveness < 0 || c.Effectiveness > 1 {
		return goerr.Wrap(ErrScoreOutOfRange, "control effectiveness must be between 0.0 and 1.0",
			goerr.V(ControlIDKey, c.ID), goerr.V("effectiveness", c.Effectiveness))
	}
	return nil
}
