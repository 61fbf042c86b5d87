package types

import "fmt"

// Polarity determines which answer value counts as a risk factor for a question
type Polarity string

const (
	// PolarityPositiveControl: the question asks whether a control exists; "no" is the gap
	PolarityPositiveControl Polarity = "positive-control"
	// PolarityNegativeIndicator: the question asks whether a bad condition exists; "yes" is the gap
	PolarityNegativeIndicator Polarity = "negative-indicator"
	// PolarityRating: a 1-5 rating where low values are the gap
	PolarityRating Polarity = "rating"
	// PolarityMultipleChoice: specific answer options are the gap
	PolarityMultipleChoice Polarity = "multiple-choice"
	// PolarityContext: profile information only, never a risk factor
	PolarityContext Polarity = "context"
)

// AllPolarities returns all valid polarities
func AllPolarities() []Polarity {
	return []Polarity{
		PolarityPositiveControl,
		PolarityNegativeIndicator,
		PolarityRating,
		PolarityMultipleChoice,
		PolarityContext,
	}
}

// IsValid checks if the polarity is valid
func (p Polarity) IsValid() bool {
	switch p {
	case PolarityPositiveControl,
		PolarityNegativeIndicator,
		PolarityRating,
		PolarityMultipleChoice,
		PolarityContext:
		return true
	default:
		return false
	}
}

func (p Polarity) String() string {
	return string(p)
}

// ParsePolarity parses a string into a Polarity
func ParsePolarity(s string) (Polarity, error) {
	p := Polarity(s)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid polarity: %s", s)
	}
	return p, nil
}

// MatchStrategy controls how multiple-choice answers are compared with bad answers
type MatchStrategy string

const (
	MatchExact     MatchStrategy = "exact"
	MatchSubstring MatchStrategy = "substring"
)

// IsValid checks if the strategy is valid. Empty means the default (substring).
func (m MatchStrategy) IsValid() bool {
	switch m {
	case "", MatchExact, MatchSubstring:
		return true
	default:
		return false
	}
}

func (m MatchStrategy) String() string {
	return string(m)
}
