package supervisor

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// CommandTemplate renders the worker command for a session. The template sees
// a single field, .Session. A template without any action gets the session
// name appended as the last argument.
type CommandTemplate struct {
	raw  string
	tmpl *template.Template
}

// ParseCommandTemplate compiles a launch command template
func ParseCommandTemplate(raw string) (*CommandTemplate, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("launch command is required")
	}
	src := raw
	if !strings.Contains(src, "{{") {
		src += " {{.Session}}"
	}
	tmpl, err := template.New("launch").Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("invalid launch command template: %w", err)
	}
	return &CommandTemplate{raw: raw, tmpl: tmpl}, nil
}

// Render returns the command for session
func (c *CommandTemplate) Render(session string) (string, error) {
	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, struct{ Session string }{Session: session}); err != nil {
		return "", fmt.Errorf("render launch command: %w", err)
	}
	return buf.String(), nil
}

func (c *CommandTemplate) String() string {
	return c.raw
}
