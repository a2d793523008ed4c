// Package banks derives a display grouping name from raw account names.
//
// Aggregators hand back account names like "CHASE COLLEGE CHECKING (...1234)"
// or "Acme Credit Union - Savings"; the UI groups accounts under a short
// institution label instead. Matching is pure string heuristics, ordered so
// the most reliable signal (a known institution keyword) wins first.
package banks

import (
	"strings"
	"unicode"
)

// Institution is one entry of the ordered matching table. Keywords are
// matched case-insensitively as substrings. When SubKeywords also match,
// SubName is returned instead of Name (e.g. the business flavor of a bank).
type Institution struct {
	Name        string
	Keywords    []string
	SubKeywords []string
	SubName     string
	BaseName    string // returned when SubKeywords do not match; defaults to Name
}

// institutions is ordered; first match wins. Extend by adding rows, the
// matcher never changes.
var institutions = []Institution{
	{
		Name:        "Chase",
		Keywords:    []string{"chase", "jpmorgan", "jpm"},
		SubKeywords: []string{"business", "biz", "ink", "commercial"},
		SubName:     "Chase Business",
		BaseName:    "Chase Personal",
	},
	{
		Name:        "Bank of America",
		Keywords:    []string{"bank of america", "bofa", "bankamerica"},
		SubKeywords: []string{"business", "biz", "commercial"},
		SubName:     "Bank of America Business",
	},
	{
		Name:        "American Express",
		Keywords:    []string{"american express", "amex"},
		SubKeywords: []string{"business", "biz"},
		SubName:     "Amex Business",
	},
	{
		Name:     "Wells Fargo",
		Keywords: []string{"wells fargo", "wellsfargo"},
	},
	{
		Name:     "Capital One",
		Keywords: []string{"capital one", "capitalone"},
	},
	{
		Name:     "Citi",
		Keywords: []string{"citibank", "citigroup", "citi "},
	},
	{
		Name:     "Discover",
		Keywords: []string{"discover"},
	},
	{
		Name:     "US Bank",
		Keywords: []string{"us bank", "u.s. bank", "usbank"},
	},
	{
		Name:     "Ally",
		Keywords: []string{"ally bank", "ally "},
	},
	{
		Name:     "Fidelity",
		Keywords: []string{"fidelity"},
	},
	{
		Name:     "Vanguard",
		Keywords: []string{"vanguard"},
	},
	{
		Name:     "Charles Schwab",
		Keywords: []string{"schwab"},
	},
	{
		Name:     "SoFi",
		Keywords: []string{"sofi"},
	},
	{
		Name:     "Marcus",
		Keywords: []string{"marcus", "goldman"},
	},
}

// separators that split a grouping prefix from the rest of the name.
var separators = []string{" - ", " • ", " | ", " / "}

// accountTypeWords are trailing words that describe the account rather than
// the institution.
var accountTypeWords = map[string]bool{
	"checking":   true,
	"savings":    true,
	"credit":     true,
	"loan":       true,
	"brokerage":  true,
	"investment": true,
	"cash":       true,
	"prepaid":    true,
	"money":      true,
	"market":     true,
}

// Infer derives the display grouping name for a raw account name.
// Rules are tried in order; absence of a match falls through to the next
// rule, and the fallback is returned unchanged when nothing applies.
func Infer(rawName, fallback string) string {
	lower := strings.ToLower(rawName)

	// Rule 1: known institution keywords.
	for _, inst := range institutions {
		if !containsAny(lower, inst.Keywords) {
			continue
		}
		if len(inst.SubKeywords) > 0 && containsAny(lower, inst.SubKeywords) {
			return inst.SubName
		}
		if inst.BaseName != "" {
			return inst.BaseName
		}
		return inst.Name
	}

	// Rule 2: prefix before the first known separator.
	for _, sep := range separators {
		if idx := strings.Index(rawName, sep); idx >= 0 {
			if prefix := strings.TrimSpace(rawName[:idx]); prefix != "" {
				return prefix
			}
		}
	}

	// Rule 3: drop a trailing account-type word. Separator residue like a
	// lone dash is not a usable grouping name.
	words := strings.Fields(rawName)
	if len(words) > 1 && accountTypeWords[strings.ToLower(words[len(words)-1])] {
		if rest := strings.Join(words[:len(words)-1], " "); hasWordChars(rest) {
			return rest
		}
	}

	// Rule 4: nothing matched.
	return fallback
}

// hasWordChars reports whether s contains at least one letter or digit.
func hasWordChars(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
