package generate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"reviewrouter/internal/document"
)

// DefaultModel is used when neither the request nor the stored settings
// name a model.
const DefaultModel = "gemini-1.5-flash-latest"

// defaultBasePrompt backs generation when the page has no configured prompt
// text at all (only reachable through the service's internal paths; the
// public contract rejects missing prompts).
const defaultBasePrompt = "次のアンケート回答を参考に、100〜200文字程度の口コミを丁寧な日本語で作成してください。語尾や表現は自然で温かみのあるものにしてください。"

// maxSamples caps how many survey answers are folded into the prompt.
const maxSamples = 5

var promptKeyByTier = map[string]string{
	document.TierBeginner:     document.PromptPage1,
	document.TierIntermediate: document.PromptPage2,
	document.TierAdvanced:     document.PromptPage3,
}

var formKeyByPrompt = map[string]string{
	document.PromptPage1: "form1",
	document.PromptPage2: "form2",
	document.PromptPage3: "form3",
}

var promptLabels = map[string]string{
	document.PromptPage1: "生成ページ1（初級）",
	document.PromptPage2: "生成ページ2（中級）",
	document.PromptPage3: "生成ページ3（上級）",
}

// ResolvePromptKey picks the prompt page for a request: an explicit valid
// promptKey wins, then the promptKey interpreted as a tier, then the tier,
// then page1.
func ResolvePromptKey(promptKey, tier string) string {
	value := strings.ToLower(strings.TrimSpace(promptKey))
	tierValue := strings.ToLower(strings.TrimSpace(tier))

	if _, ok := promptLabels[value]; ok {
		return value
	}
	if mapped, ok := promptKeyByTier[value]; ok {
		return mapped
	}
	if mapped, ok := promptKeyByTier[tierValue]; ok {
		return mapped
	}
	return document.PromptPage1
}

// PromptLabel returns the human label for a prompt page, for error text.
func PromptLabel(promptKey string) string {
	if label, ok := promptLabels[promptKey]; ok {
		return label
	}
	return "生成ページ"
}

// FormKeyForPrompt maps a prompt page to its survey form key.
func FormKeyForPrompt(promptKey string) string {
	if key, ok := formKeyByPrompt[promptKey]; ok {
		return key
	}
	return "form1"
}

// BuildPrompt concatenates the configured template with formatted survey
// answer samples. String samples pass through verbatim; object samples are
// flattened to their non-empty values.
func BuildPrompt(base string, samples []any) string {
	prompt := strings.TrimSpace(base)
	if prompt == "" {
		prompt = defaultBasePrompt
	}

	var lines []string
	for i, sample := range samples {
		if i >= maxSamples {
			break
		}
		switch v := sample.(type) {
		case string:
			lines = append(lines, fmt.Sprintf("- サンプル%d: %s", len(lines)+1, v))
		case map[string]any:
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			var values []string
			for _, k := range keys {
				if s := fmt.Sprintf("%v", v[k]); s != "" && v[k] != nil {
					values = append(values, s)
				}
			}
			if len(values) > 0 {
				lines = append(lines, fmt.Sprintf("- サンプル%d: %s", len(lines)+1, strings.Join(values, " / ")))
			}
		}
	}

	return prompt + "\n\n参考データ:\n" + strings.Join(lines, "\n")
}

var spreadsheetIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/d/([a-zA-Z0-9-_]+)`),
	regexp.MustCompile(`id=([a-zA-Z0-9-_]+)`),
}

// SpreadsheetID extracts the document id from a Google Sheets URL, either
// the /d/<id> share form or an id= query parameter.
func SpreadsheetID(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return ""
	}
	for _, pattern := range spreadsheetIDPatterns {
		if match := pattern.FindStringSubmatch(trimmed); len(match) > 1 {
			return match[1]
		}
	}
	return ""
}
