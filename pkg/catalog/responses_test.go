package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bastion/pkg/catalog"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

func TestParseResponses(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{
			name: "answers.json",
			data: `{
				"wh.seals": "no",
				"wh.cctv": {"answer": true, "notes": "dock only"},
				"wh.workforce": 320,
				"wh.trailer-parking": ["street", "yard"],
				"wh.hours": null
			}`,
		},
		{
			name: "answers.yaml",
			data: `
wh.seals: "no"
wh.cctv:
  answer: true
  notes: dock only
wh.workforce: 320
wh.trailer-parking: [street, yard]
wh.hours: null
`,
		},
		{
			name: "answers.toml",
			data: `
"wh.seals" = "no"
"wh.workforce" = 320
"wh.trailer-parking" = ["street", "yard"]
"wh.hours" = ""

["wh.cctv"]
answer = true
notes = "dock only"
`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			list, err := catalog.ParseResponses(tc.name, []byte(tc.data))
			gt.NoError(t, err).Required()
			gt.Array(t, list).Length(5)

			r := model.NewResponses(list)
			gt.Value(t, r.Answer("wh.seals")).Equal(model.TextAnswer("no"))
			gt.Value(t, r.Answer("wh.cctv")).Equal(model.BoolAnswer(true))
			gt.Value(t, r["wh.cctv"].Notes).Equal("dock only")
			gt.Value(t, r.Answer("wh.workforce")).Equal(model.NumberAnswer(320))
			gt.Value(t, r.Answer("wh.trailer-parking")).Equal(model.ListAnswer("street", "yard"))
			gt.Bool(t, r.Answer("wh.hours").IsNull()).True()

			// sorted by question ID
			gt.Value(t, list[0].QuestionID).Equal(types.QuestionID("wh.cctv"))
		})
	}

	t.Run("unsupported answer type", func(t *testing.T) {
		_, err := catalog.ParseResponses("answers.json", []byte(`{"wh.seals": {"answer": {"nested": 1}}}`))
		gt.Value(t, err).NotNil()
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, err := catalog.ParseResponses("answers.csv", []byte(`wh.seals,no`))
		gt.Error(t, err).Is(catalog.ErrUnsupportedFormat)
	})
}

func TestReadResponsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answers.json")
	gt.NoError(t, os.WriteFile(path, []byte(`{"wh.seals": "no"}`), 0o600)).Required()

	list, err := catalog.ReadResponsesFile(path)
	gt.NoError(t, err).Required()
	gt.Array(t, list).Length(1)

	_, err = catalog.ReadResponsesFile(filepath.Join(t.TempDir(), "missing.json"))
	gt.Value(t, err).NotNil()
}
