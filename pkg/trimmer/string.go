package trimmer

import (
	"fmt"
)

// TemplateString is template source kept as a plain string, e.g. in a
// config struct, and parsed on use.
type TemplateString string

func (t TemplateString) Validate() error {
	if _, err := Parse(string(t)); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}
	return nil
}

func (t TemplateString) Render(root Variable) (string, error) {
	tpl, err := Parse(string(t))
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}
	return tpl.Render(root)
}
