package analyze

import (
	"embed"
	"strings"

	"github.com/pkg/errors"
)

//go:embed prompts/*.txt
var promptFS embed.FS

const (
	systemPromptFile = "prompts/system_prompt.txt"
	userTemplateFile = "prompts/user_prompt_template.txt"
)

var userTemplatePlaceholders = []string{
	"{athlete_name}", "{activities_text}", "{body_composition_text}", "{sleep_text}", "{training_plan_section}",
}

// SystemPrompt returns the embedded coaching instructions.
func SystemPrompt() (string, error) {
	return loadPrompt(systemPromptFile)
}

// UserTemplate returns the embedded user prompt template.
func UserTemplate() (string, error) {
	return loadPrompt(userTemplateFile)
}

func loadPrompt(name string) (string, error) {
	raw, err := promptFS.ReadFile(name)
	if err != nil {
		return "", errors.Wrapf(err, "failed to load prompt %s", name)
	}
	content := string(raw)
	if strings.TrimSpace(content) == "" {
		return "", errors.Errorf("prompt %s is empty", name)
	}
	return content, nil
}

// ValidatePrompts checks the embedded prompts and returns every problem at
// once.
func ValidatePrompts() error {
	var problems []string

	if _, err := SystemPrompt(); err != nil {
		problems = append(problems, err.Error())
	}
	tmpl, err := UserTemplate()
	if err != nil {
		problems = append(problems, err.Error())
	} else {
		for _, ph := range userTemplatePlaceholders {
			if !strings.Contains(tmpl, ph) {
				problems = append(problems, "user template is missing placeholder "+ph)
			}
		}
	}

	if len(problems) > 0 {
		return errors.New("invalid prompt configuration:\n  - " + strings.Join(problems, "\n  - "))
	}
	return nil
}

func renderUserPrompt(tmpl string, fields map[string]string) string {
	out := tmpl
	for ph, val := range fields {
		out = strings.ReplaceAll(out, ph, val)
	}
	return out
}
