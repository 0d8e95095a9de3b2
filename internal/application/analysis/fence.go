package analysis

import "strings"

const (
	fenceJSON = "```json"
	fence     = "```"
)

// StripFences removes Markdown code-fence wrapping from a model answer.
// The rule is deliberately narrow and applied in this order, each at most
// once: leading "```json", leading "```", trailing "```". Matching is case
// sensitive, so "```JSON" keeps its tag.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, fenceJSON)
	s = strings.TrimPrefix(s, fence)
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}
