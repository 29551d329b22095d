// Package fragments holds the embedded challenge-page templates (browser
// channel) and CRes skeletons (app channel), one per fragment type.
package fragments

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/finsim/acs-emulator/flows"
)

//go:embed templates/*.html templates/*.json
var files embed.FS

// HTML returns the browser challenge page template for a fragment. Raw HTML
// scenarios and cancellations have no dedicated page; they render as
// single-select and failed respectively.
func HTML(fragment flows.Fragment) (string, error) {
	name := fragment
	switch fragment {
	case flows.FragmentHTML:
		name = flows.FragmentSingleSelect
	case flows.FragmentCancelled:
		name = flows.FragmentFailed
	}

	data, err := files.ReadFile(fmt.Sprintf("templates/cres_challenge_%s.html", name))
	if err != nil {
		return "", errors.Wrapf(err, "no HTML template for fragment %q", fragment)
	}
	return string(data), nil
}

// JSON returns a fresh copy of the CRes skeleton for a fragment.
func JSON(fragment flows.Fragment) (map[string]any, error) {
	data, err := files.ReadFile(fmt.Sprintf("templates/cres_challenge_%s.json", fragment))
	if err != nil {
		return nil, errors.Wrapf(err, "no CRes skeleton for fragment %q", fragment)
	}

	skeleton := map[string]any{}
	if err := json.Unmarshal(data, &skeleton); err != nil {
		return nil, errors.Wrapf(err, "CRes skeleton for %q is not valid JSON", fragment)
	}
	return skeleton, nil
}

// Substitute replaces @@name@@ placeholders in a template.
func Substitute(template string, values map[string]string) string {
	for name, value := range values {
		template = strings.ReplaceAll(template, "@@"+name+"@@", value)
	}
	return template
}
