package core

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// ExecuteTemplate renders content with data, usually a *SystemContext.
// Strings without template actions are returned unchanged.
func ExecuteTemplate(content string, data interface{}) (string, error) {
	if !strings.Contains(content, "{{") {
		return content, nil
	}

	// missingkey=zero allows optional variables (returning nil/zero), which works with Sprig's 'default'.
	// Use 'required' function from Sprig for mandatory variables.
	tmpl, err := template.New("brewstrap").Funcs(sprig.TxtFuncMap()).Option("missingkey=zero").Parse(content)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
