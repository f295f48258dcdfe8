// Package registry loads the questionnaire definition from a local file.
// JSON and YAML forms are supported, selected by file extension.
package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/DonatoReis/lynx/internal/model"
)

// Load reads a questionnaire definition from path. The file may be JSON
// (.json) or YAML (.yaml/.yml). Duplicate question ids are tolerated but
// logged; branch targets resolve to the first occurrence.
func Load(path string) (*model.Questionnaire, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read %s", path)
	}

	var q model.Questionnaire
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &q); err != nil {
			return nil, eris.Wrapf(err, "registry: parse yaml %s", path)
		}
	default:
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, eris.Wrapf(err, "registry: parse json %s", path)
		}
	}

	if err := validate(q); err != nil {
		return nil, err
	}

	zap.L().Info("questionnaire loaded",
		zap.String("path", path),
		zap.Int("questions", len(q.Questions)),
	)
	return &q, nil
}

func validate(q model.Questionnaire) error {
	seen := make(map[string]struct{}, len(q.Questions))
	for i, question := range q.Questions {
		if question.ID == "" {
			return eris.Errorf("registry: question %d has no id", i)
		}
		if question.Text == "" {
			return eris.Errorf("registry: question %q has no text", question.ID)
		}
		if _, dup := seen[question.ID]; dup {
			zap.L().Warn("duplicate question id, branch targets resolve to the first occurrence",
				zap.String("id", question.ID),
			)
		}
		seen[question.ID] = struct{}{}

		for answer, target := range question.Branching {
			if q.FindIndex(target) < 0 {
				zap.L().Warn("branch target not found, answer will fall through to next question",
					zap.String("question", question.ID),
					zap.String("answer", answer),
					zap.String("target", target),
				)
			}
		}
	}
	return nil
}
