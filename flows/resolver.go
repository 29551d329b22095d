package flows

import (
	"strconv"
	"strings"
	"time"
)

const (
	// Wildcard marks a table key field that matches any input value.
	Wildcard = "*"

	// elapsedThresholdSeconds splits transactions into two time buckets;
	// scenarios can key on whether the challenge has been running longer
	// than this.
	elapsedThresholdSeconds = 10

	// correctEntrySentinel is the data-entry value treated as the right
	// answer in every scenario.
	correctEntrySentinel = "456"
)

// Resolver looks up the next challenge fragment for a scenario. The table
// is built once before serving traffic and never mutated afterwards.
type Resolver struct {
	table   map[string]Fragment
	nowTime func() time.Time
}

// ResolverOption modifies a Resolver at construction time.
type ResolverOption func(*Resolver)

// WithNowTime sets the clock (primarily for testing the elapsed-time
// bucket).
func WithNowTime(nowFunc func() time.Time) ResolverOption {
	return func(r *Resolver) {
		r.nowTime = nowFunc
	}
}

// NewResolver builds a Resolver over an already-loaded scenario table. The
// table is copied so callers cannot mutate it afterwards.
func NewResolver(table map[string]Fragment, options ...ResolverOption) *Resolver {
	owned := make(map[string]Fragment, len(table))
	for key, fragment := range table {
		owned[strings.ToLower(key)] = fragment
	}
	r := &Resolver{
		table:   owned,
		nowTime: time.Now,
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Resolve maps (scenario selector, player input, elapsed time) to the next
// fragment. Candidate keys are tried most-specific first and the first hit
// wins; aggregating multiple matches would pick the wrong scenario.
func (r *Resolver) Resolve(selector, dataEntry, htmlDataEntry string, oobContinue bool, createdAtEpochSeconds int64) Fragment {
	selector = strings.ToLower(selector)
	dataEntry = strings.ToLower(dataEntry)
	htmlDataEntry = strings.ToLower(htmlDataEntry)
	oob := strconv.FormatBool(oobContinue)
	exceeds := strconv.FormatBool(r.nowTime().Unix()-createdAtEpochSeconds > elapsedThresholdSeconds)

	keys := []string{
		joinKey(selector, dataEntry, htmlDataEntry, oob, exceeds),
		joinKey(selector, dataEntry, htmlDataEntry, oob, Wildcard),
		joinKey(selector, Wildcard, htmlDataEntry, oob, Wildcard),
		joinKey(selector, dataEntry, Wildcard, oob, Wildcard),
	}
	for _, key := range keys {
		if fragment, ok := r.table[key]; ok {
			return fragment
		}
	}

	return defaultFragment(dataEntry)
}

func joinKey(fields ...string) string {
	return strings.Join(fields, "_")
}

// defaultFragment is the fallback heuristic applied when no table entry
// matches: the submitted value itself names the next step.
func defaultFragment(dataEntry string) Fragment {
	switch {
	case dataEntry == "email" || dataEntry == "sms":
		return FragmentOTP
	case dataEntry == "multi":
		return FragmentMultiSelect
	case dataEntry == "oob":
		return FragmentOOB
	case dataEntry == "html":
		return FragmentHTML
	case strings.HasPrefix(dataEntry, "final") || dataEntry == correctEntrySentinel:
		return FragmentFinal
	default:
		return FragmentSingleSelect
	}
}
