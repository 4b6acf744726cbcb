// Package normalize provides canonical target identifiers. Every target
// comparison in the engine routes through this package; containment or
// substring matching is never treated as equality.
package normalize

import "strings"

// noise prefixes are monitoring artefacts, not real targets.
var noisePrefixes = []string{"19CLISTENER"}

// Normalizer maps raw target names onto canonical identifiers.
type Normalizer struct {
	aliases map[string]string
}

// New constructs a Normalizer with an explicit alias table. Alias keys are
// matched against the already upper-cased, trimmed form.
func New(aliases map[string]string) *Normalizer {
	canon := make(map[string]string, len(aliases))
	for from, to := range aliases {
		canon[strings.ToUpper(strings.TrimSpace(from))] = strings.ToUpper(strings.TrimSpace(to))
	}
	return &Normalizer{aliases: canon}
}

// Normalize returns the canonical form of a raw target name. ok is false for
// blank input and for listener noise entries.
func (n *Normalizer) Normalize(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}

	canonical := strings.ToUpper(trimmed)
	for _, prefix := range noisePrefixes {
		if strings.HasPrefix(canonical, prefix) {
			return "", false
		}
	}

	if alias, ok := n.aliases[canonical]; ok {
		canonical = alias
	}
	return canonical, true
}

// Equals normalizes both sides and requires exact canonical equality.
// "ABC" never equals "ABCN".
func (n *Normalizer) Equals(a, b string) bool {
	ca, okA := n.Normalize(a)
	cb, okB := n.Normalize(b)
	if !okA || !okB {
		return false
	}
	return ca == cb
}

// MatchesAlert reports whether an alert's canonical target matches the given
// raw target name under strict equality.
func (n *Normalizer) MatchesAlert(alertTarget, target string) bool {
	return n.Equals(alertTarget, target)
}
