// Package flows decides which challenge fragment a transaction sees next,
// from a preloaded wildcard-tiered scenario table.
package flows

import "strings"

// Fragment is the closed set of challenge fragment types. Every value has a
// template on both channels, so an unhandled type can never reach the
// renderer.
type Fragment int

const (
	FragmentSingleSelect Fragment = iota
	FragmentMultiSelect
	FragmentOTP
	FragmentOOB
	FragmentHTML
	FragmentFinal
	FragmentFailed
	FragmentCancelled
)

var fragmentNames = map[Fragment]string{
	FragmentSingleSelect: "single_select",
	FragmentMultiSelect:  "multi_select",
	FragmentOTP:          "otp",
	FragmentOOB:          "oob",
	FragmentHTML:         "html",
	FragmentFinal:        "final",
	FragmentFailed:       "failed",
	FragmentCancelled:    "cancelled",
}

func (f Fragment) String() string {
	if name, ok := fragmentNames[f]; ok {
		return name
	}
	return "single_select"
}

// ParseFragment maps a scenario-table value to a Fragment. Values beginning
// with "html" or "final" carry scenario suffixes and collapse onto their
// base type.
func ParseFragment(value string) (Fragment, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	for fragment, name := range fragmentNames {
		if value == name {
			return fragment, true
		}
	}
	switch {
	case strings.HasPrefix(value, "html"):
		return FragmentHTML, true
	case strings.HasPrefix(value, "final"):
		return FragmentFinal, true
	}
	return FragmentSingleSelect, false
}
