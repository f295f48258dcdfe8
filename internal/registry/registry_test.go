package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "questionnaire.json", `{
		"questions": [
			{"id": "cor", "question": "Qual cor?", "branching": {"azul": "fim"}},
			{"id": "fim", "question": "Fim"}
		],
		"prompts": {"system_message": "especialista"}
	}`)

	q, err := Load(path)
	require.NoError(t, err)
	require.Len(t, q.Questions, 2)
	assert.Equal(t, "cor", q.Questions[0].ID)
	assert.Equal(t, "especialista", q.Prompts.SystemMessage)
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "questionnaire.yaml", `
questions:
  - id: tamanho
    question: Qual tamanho?
    options: [P, M, G]
  - id: fim
    question: Fim
prompts:
  welcome_message: Bem-vindo!
`)

	q, err := Load(path)
	require.NoError(t, err)
	require.Len(t, q.Questions, 2)
	assert.Equal(t, []string{"P", "M", "G"}, q.Questions[0].Options)
	assert.Equal(t, "Bem-vindo!", q.Prompts.Welcome)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestLoadRejectsQuestionWithoutID(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "bad.json", `{"questions": [{"question": "sem id"}]}`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no id")
}

func TestLoadRejectsQuestionWithoutText(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "bad.json", `{"questions": [{"id": "q1"}]}`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text")
}

func TestLoadToleratesDuplicateIDs(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "dup.json", `{"questions": [
		{"id": "q1", "question": "a"},
		{"id": "q1", "question": "b"}
	]}`)

	q, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, q.Questions, 2)
}

func TestLoadToleratesUnknownBranchTarget(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "branch.json", `{"questions": [
		{"id": "q1", "question": "a", "branching": {"sim": "ghost"}}
	]}`)

	q, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ghost", q.Questions[0].Branching["sim"])
}
