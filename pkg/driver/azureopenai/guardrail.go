package azureopenai

import (
	"github.com/tidwall/gjson"

	"github.com/pario-ai/aigateway/pkg/models"
)

// filterTypes converts a content_filter_results object into per-category
// verdicts, keeping the document's category order.
func filterTypes(res gjson.Result) []models.FilterType {
	var out []models.FilterType
	res.ForEach(func(key, v gjson.Result) bool {
		ft := models.FilterType{
			Category: key.String(),
			Filtered: v.Get("filtered").Bool(),
		}
		if d := v.Get("detected"); d.Exists() {
			b := d.Bool()
			ft.Detected = &b
		}
		if s := v.Get("severity"); s.Exists() {
			str := s.String()
			ft.Severity = &str
		}
		if c := v.Get("citation"); c.IsObject() {
			ft.Citation = &models.Citation{URL: c.Get("URL").String(), License: c.Get("license").String()}
			if ft.Citation.URL == "" {
				ft.Citation.URL = c.Get("url").String()
			}
		}
		out = append(out, ft)
		return true
	})
	return out
}

// promptFilter extracts the filter results of a prompt_filter_results entry,
// which Azure names either content_filter_result or content_filter_results.
func promptFilter(entry gjson.Result) gjson.Result {
	if r := entry.Get("content_filter_result"); r.Exists() {
		return r
	}
	return entry.Get("content_filter_results")
}

func nonEmpty(r gjson.Result) bool {
	return r.IsObject() && len(r.Map()) > 0
}

// guardrail builds a guardrail annotation, or nil when neither side carries
// filter results.
func guardrail(completion, prompt gjson.Result) *models.Guardrail {
	var g models.Guardrail
	if nonEmpty(completion) {
		g.ContentFilter.Completion = &models.FilterTypes{Types: filterTypes(completion)}
	}
	if nonEmpty(prompt) {
		g.ContentFilter.Prompt = &models.FilterTypes{Types: filterTypes(prompt)}
	}
	if g.ContentFilter.Completion == nil && g.ContentFilter.Prompt == nil {
		return nil
	}
	return &g
}

func parseUsage(u gjson.Result) models.Usage {
	usage := models.Usage{
		PromptTokens: int(u.Get("prompt_tokens").Int()),
		TotalTokens:  int(u.Get("total_tokens").Int()),
	}
	if c := u.Get("completion_tokens"); c.Exists() && c.Type != gjson.Null {
		n := int(c.Int())
		usage.CompletionTokens = &n
	}
	return usage
}
