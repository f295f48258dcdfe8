// Package prompt renders the completion request from collected answers and
// extracted product records.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultTemplate is used when the questionnaire configures no template.
// Placeholders use brace syntax so templates written for earlier releases
// keep working.
const DefaultTemplate = `
Você é um especialista em produtos químicos e tratamento de superfícies metálicas. Utilize as informações fornecidas pelo cliente para recomendar os melhores produtos disponíveis.

{informacoes_cliente}

# Produtos Disponíveis:
{produtos}

# Formato de Saída:
- Resumo das necessidades do cliente.
- Produto(s) recomendado(s).
- Justificativa para cada recomendação.
- Conselho ou métrica adicional relevante para a consulta do cliente.

# Notes:
- Utilize linguagem técnica adequada ao nível de conhecimento do cliente.
- Apresente a resposta de forma clara, coesa e fluida, evitando o uso de formatação com asteriscos ou marcadores.
`

// DefaultSystemMessage is used when the questionnaire configures none.
const DefaultSystemMessage = "Você é um especialista em produtos químicos e tratamento de superfícies metálicas."

// MissingPlaceholderError reports a template placeholder with no value.
// A missing placeholder is a configuration error and fails the run.
type MissingPlaceholderError struct {
	Name string
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("prompt: no value for placeholder {%s}", e.Name)
}

var titleCaser = cases.Title(language.Und)

// ClientInfo renders the collected answers as a human-readable block, one
// "- Key: value" line per answer with underscores spaced out and
// title-cased. Keys are sorted for deterministic output.
func ClientInfo(answers map[string]string) string {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		label := titleCaser.String(strings.ReplaceAll(k, "_", " "))
		lines = append(lines, fmt.Sprintf("- %s: %s", label, answers[k]))
	}
	return strings.Join(lines, "\n")
}

// Render substitutes {name} placeholders in template from vars. Doubled
// braces escape literals. An unknown placeholder or unbalanced brace is an
// error, never silently blanked.
func Render(template string, vars map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); i++ {
		switch template[i] {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("prompt: unbalanced '{' at offset %d", i)
			}
			name := template[i+1 : i+1+end]
			value, ok := vars[name]
			if !ok {
				return "", &MissingPlaceholderError{Name: name}
			}
			b.WriteString(value)
			i += end + 1
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("prompt: unbalanced '}' at offset %d", i)
		default:
			b.WriteByte(template[i])
		}
	}
	return b.String(), nil
}

// Assemble builds the (system, user) message pair for the completion
// request. Empty template or system message falls back to the built-in
// defaults.
func Assemble(products []string, answers map[string]string, template, systemMessage string) (system, user string, err error) {
	if template == "" {
		template = DefaultTemplate
	}
	if systemMessage == "" {
		systemMessage = DefaultSystemMessage
	}

	vars := make(map[string]string, len(answers)+2)
	for k, v := range answers {
		vars[k] = v
	}
	vars["produtos"] = strings.Join(products, "\n")
	vars["informacoes_cliente"] = ClientInfo(answers)

	user, err = Render(template, vars)
	if err != nil {
		return "", "", err
	}
	return systemMessage, user, nil
}
