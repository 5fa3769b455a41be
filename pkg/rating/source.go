package rating

import "strings"

// SourceType identifies how a recording was captured.
type SourceType string

const (
	SourceSBD      SourceType = "SBD"      // soundboard
	SourceMatrix   SourceType = "MATRIX"   // soundboard/audience blend
	SourceAUD      SourceType = "AUD"      // audience microphone
	SourceFM       SourceType = "FM"       // FM broadcast
	SourceRemaster SourceType = "REMASTER" // remastered transfer
	SourceUnknown  SourceType = "UNKNOWN"
)

// classifyRules are evaluated top to bottom; the first match wins. Order is
// load-bearing: a soundboard transfer described as a "broadcast" must
// classify as SBD, not FM.
var classifyRules = []struct {
	keywords []string
	source   SourceType
}{
	{[]string{"SBD", "SOUNDBOARD"}, SourceSBD},
	{[]string{"MATRIX"}, SourceMatrix},
	{[]string{"AUD", "AUDIENCE"}, SourceAUD},
	{[]string{"FM", "BROADCAST"}, SourceFM},
	{[]string{"REMASTER"}, SourceRemaster},
}

// ClassifySource infers the source type from a recording's free-text title
// and description. Always returns a value; unmatched text is UNKNOWN.
func ClassifySource(title, description string) SourceType {
	text := strings.ToUpper(title + " " + description)

	for _, rule := range classifyRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.source
			}
		}
	}
	return SourceUnknown
}

// SourceWeight returns the trust weight applied to ratings from a given
// source type. Types outside the table (UNKNOWN) get 0.5.
func SourceWeight(t SourceType) float64 {
	switch t {
	case SourceSBD:
		return 1.0
	case SourceMatrix:
		return 0.9
	case SourceAUD:
		return 0.7
	case SourceFM:
		return 0.8
	case SourceRemaster:
		return 1.0
	}
	return 0.5
}
