package client

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/menta2k/media-canvas/pkg/types"
)

var (
	blockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineComment   = regexp.MustCompile(`(?m)^\s*//.*$`)
	inlineComment = regexp.MustCompile(`(?m)//.*$`)
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// ParseAnalysis decodes a model answer into an AnalysisResult. Answers
// that carry no usable JSON yield a centred fallback rather than an error.
func ParseAnalysis(raw string) *types.AnalysisResult {
	raw = SanitizeJSON(raw)
	if !strings.HasPrefix(raw, "{") {
		return types.FallbackResult("model returned non-JSON response", "non-json")
	}

	var result types.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return types.FallbackResult("failed to parse model response", "parse-error")
	}

	if result.Primary.Label == "" && result.Primary.Confidence == 0 {
		if result.Primary.Cx == 0 && result.Primary.Cy == 0 && result.Primary.Box.Empty() {
			return types.FallbackResult("model returned an empty subject", "empty")
		}
	}
	return &result
}

// SanitizeJSON strips code fences, comments and trailing commas and keeps
// the outermost object.
func SanitizeJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.Trim(strings.TrimSpace(raw), "`")

	raw = blockComment.ReplaceAllString(raw, "")
	raw = lineComment.ReplaceAllString(raw, "")
	raw = inlineComment.ReplaceAllString(raw, "")
	raw = trailingComma.ReplaceAllString(raw, "$1")

	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
