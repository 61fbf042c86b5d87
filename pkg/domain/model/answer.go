package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// AnswerKind is the dynamic type of a raw questionnaire answer
type AnswerKind string

const (
	AnswerNull   AnswerKind = ""
	AnswerText   AnswerKind = "text"
	AnswerNumber AnswerKind = "number"
	AnswerBool   AnswerKind = "bool"
	AnswerList   AnswerKind = "list"
)

// Answer is a raw interview answer: a string, a number, a boolean, a list of
// strings, or null. The zero value is null.
type Answer struct {
	Kind   AnswerKind `json:"-" firestore:"kind"`
	Text   string     `json:"-" firestore:"text,omitempty"`
	Number float64    `json:"-" firestore:"number,omitempty"`
	Bool   bool       `json:"-" firestore:"bool,omitempty"`
	List   []string   `json:"-" firestore:"list,omitempty"`
}

// TextAnswer creates a string answer
func TextAnswer(s string) Answer { return Answer{Kind: AnswerText, Text: s} }

// NumberAnswer creates a numeric answer
func NumberAnswer(v float64) Answer { return Answer{Kind: AnswerNumber, Number: v} }

// BoolAnswer creates a boolean answer
func BoolAnswer(v bool) Answer { return Answer{Kind: AnswerBool, Bool: v} }

// ListAnswer creates a list-of-strings answer
func ListAnswer(values ...string) Answer { return Answer{Kind: AnswerList, List: values} }

// IsNull reports whether the answer carries no information. Blank strings and
// empty lists are treated as null.
func (a Answer) IsNull() bool {
	switch a.Kind {
	case AnswerText:
		return strings.TrimSpace(a.Text) == ""
	case AnswerList:
		return len(a.List) == 0
	case AnswerNumber, AnswerBool:
		return false
	default:
		return true
	}
}

// Affirmative interprets the answer as yes/no. ok is false when the answer is
// null or not a recognizable yes/no value.
func (a Answer) Affirmative() (yes bool, ok bool) {
	switch a.Kind {
	case AnswerBool:
		return a.Bool, true
	case AnswerNumber:
		switch a.Number {
		case 1:
			return true, true
		case 0:
			return false, true
		}
		return false, false
	case AnswerText:
		return parseYesNo(a.Text)
	default:
		return false, false
	}
}

var (
	yesWords = map[string]bool{"yes": true, "y": true, "true": true}
	noWords  = map[string]bool{"no": true, "n": true, "false": true, "none": true, "never": true}
)

func parseYesNo(s string) (bool, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	if yesWords[v] || hasWordPrefix(v, "yes") {
		return true, true
	}
	if noWords[v] || hasWordPrefix(v, "no") {
		return false, true
	}
	return false, false
}

// hasWordPrefix reports whether s starts with word followed by a separator,
// so that "yes, weekly" matches "yes" but "notes" does not match "no".
func hasWordPrefix(s, word string) bool {
	if !strings.HasPrefix(s, word) || len(s) == len(word) {
		return false
	}
	switch s[len(word)] {
	case ' ', ',', '-', '.', ';', ':', '(', '/':
		return true
	}
	return false
}

// ordinalRatings maps quality words onto the 1-5 rating scale. Longer
// phrases come first so that "very poor" is not read as "poor".
var ordinalRatings = []struct {
	word  string
	value float64
}{
	{"very poor", 1},
	{"very good", 5},
	{"excellent", 5},
	{"poor", 2},
	{"inadequate", 2},
	{"adequate", 3},
	{"average", 3},
	{"fair", 3},
	{"good", 4},
}

// Numeric interprets the answer as a number. Text answers are parsed from
// their leading numeric token ("2 - poor" is 2) or, failing that, from a
// leading quality word on the 1-5 scale ("poor, flickering" is 2). ok is
// false when neither applies.
func (a Answer) Numeric() (float64, bool) {
	switch a.Kind {
	case AnswerNumber:
		return a.Number, true
	case AnswerText:
		s := strings.TrimSpace(a.Text)
		end := 0
		for end < len(s) && (s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
			end++
		}
		if end == 0 {
			return ordinal(s)
		}
		v, err := strconv.ParseFloat(s[:end], 64)
		if err != nil {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

func ordinal(s string) (float64, bool) {
	v := strings.ToLower(strings.Join(strings.Fields(s), " "))
	for _, r := range ordinalRatings {
		if v == r.word || hasWordPrefix(v, r.word) {
			return r.value, true
		}
	}
	return 0, false
}

// Values returns the answer as a list of strings for text matching
func (a Answer) Values() []string {
	switch a.Kind {
	case AnswerText:
		return []string{a.Text}
	case AnswerList:
		return a.List
	case AnswerNumber:
		return []string{strconv.FormatFloat(a.Number, 'f', -1, 64)}
	case AnswerBool:
		if a.Bool {
			return []string{"yes"}
		}
		return []string{"no"}
	default:
		return nil
	}
}

// String returns a human-readable form of the answer
func (a Answer) String() string {
	if a.IsNull() {
		return ""
	}
	return strings.Join(a.Values(), ", ")
}

// MarshalJSON encodes the answer as its natural JSON value
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerText:
		return json.Marshal(a.Text)
	case AnswerNumber:
		return json.Marshal(a.Number)
	case AnswerBool:
		return json.Marshal(a.Bool)
	case AnswerList:
		if a.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.List)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes string, number, boolean, array or null values
func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Answer{}
		return nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return goerr.Wrap(err, "failed to decode answer")
	}

	ans, err := AnswerFromValue(raw)
	if err != nil {
		return err
	}
	*a = ans
	return nil
}

// AnswerFromValue converts a decoded dynamic value (JSON, TOML, YAML or
// Firestore) into an Answer
func AnswerFromValue(raw any) (Answer, error) {
	switch v := raw.(type) {
	case nil:
		return Answer{}, nil
	case string:
		return TextAnswer(v), nil
	case bool:
		return BoolAnswer(v), nil
	case float64:
		return NumberAnswer(v), nil
	case float32:
		return NumberAnswer(float64(v)), nil
	case int:
		return NumberAnswer(float64(v)), nil
	case int64:
		return NumberAnswer(float64(v)), nil
	case []string:
		return ListAnswer(v...), nil
	case []any:
		list := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			list = append(list, fmt.Sprint(item))
		}
		return ListAnswer(list...), nil
	default:
		return Answer{}, goerr.New("unsupported answer type", goerr.V("type", fmt.Sprintf("%T", raw)))
	}
}
