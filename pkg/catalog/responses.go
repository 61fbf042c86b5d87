package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

// ReadResponsesFile reads interview answers keyed by question ID from a JSON,
// TOML or YAML file. A value is either the raw answer or a table with answer
// and notes keys.
//
//	{"wh.seals": "no", "wh.cctv": {"answer": "yes", "notes": "dock only"}}
func ReadResponsesFile(path string) ([]*model.Response, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read responses file", goerr.V("path", path))
	}
	return ParseResponses(path, data)
}

// ParseResponses decodes a responses document. The format is chosen by the
// extension of name.
func ParseResponses(name string, data []byte) ([]*model.Response, error) {
	raw := map[string]any{}
	if strings.ToLower(filepath.Ext(name)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, goerr.Wrap(err, "failed to parse JSON", goerr.V("path", name))
		}
	} else if err := decode(name, data, &raw); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	responses := make([]*model.Response, 0, len(raw))
	for _, id := range ids {
		resp := &model.Response{QuestionID: types.QuestionID(id)}

		value := raw[id]
		if entry, ok := value.(map[string]any); ok {
			value = entry["answer"]
			if notes, ok := entry["notes"].(string); ok {
				resp.Notes = notes
			}
		}

		answer, err := model.AnswerFromValue(value)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid answer",
				goerr.V("path", name),
				goerr.V(model.QuestionIDKey, id))
		}
		resp.Answer = answer
		responses = append(responses, resp)
	}

	return responses, nil
}
