package azureopenai

import (
	"bufio"
	"io"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/pario-ai/aigateway/pkg/cost"
	"github.com/pario-ai/aigateway/pkg/driver"
	"github.com/pario-ai/aigateway/pkg/models"
)

// sseStream translates Azure chat completion chunks into normalized events.
type sseStream struct {
	reader *bufio.Reader
	body   io.ReadCloser
	model  string
	pricer driver.Pricer
	done   bool
}

func (s *sseStream) Next() (models.ChatStreamEvent, error) {
	for {
		if s.done {
			return models.ChatStreamEvent{}, io.EOF
		}
		line, err := s.reader.ReadString('\n')
		if err != nil && line == "" {
			s.done = true
			return models.ChatStreamEvent{}, io.EOF
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			s.done = true
			return models.ChatStreamEvent{}, io.EOF
		}
		if !gjson.Valid(data) {
			continue // skip malformed chunks
		}

		ev, ok := translate(gjson.Parse(data), s.model, s.pricer)
		if !ok {
			continue
		}
		if ev.Usage != nil {
			// Usage closes the stream.
			s.done = true
		}
		return ev, nil
	}
}

func (s *sseStream) Close() error {
	return s.body.Close()
}

// translate maps one chunk to at most one event. A chunk yields a message
// delta, a completion guardrail, a prompt guardrail, or the final usage, in
// that order of precedence.
func translate(chunk gjson.Result, model string, pricer driver.Pricer) (models.ChatStreamEvent, bool) {
	if choices := chunk.Get("choices"); len(choices.Array()) > 0 {
		choice := choices.Array()[0]
		delta := choice.Get("delta")
		role, content := delta.Get("role"), delta.Get("content")
		if present(role) || present(content) {
			msg := &models.StreamMessage{}
			if present(role) {
				s := role.String()
				msg.Role = &s
			}
			if present(content) {
				s := content.String()
				msg.Content = &s
			}
			return models.ChatStreamEvent{Message: msg}, true
		}
		if g := guardrail(choice.Get("content_filter_results"), gjson.Result{}); g != nil {
			return models.ChatStreamEvent{Guardrail: g}, true
		}
		return models.ChatStreamEvent{}, false
	}

	if g := guardrail(gjson.Result{}, promptFilter(chunk.Get("prompt_filter_results.0"))); g != nil {
		return models.ChatStreamEvent{Guardrail: g}, true
	}

	if u := chunk.Get("usage"); u.IsObject() {
		usage := parseUsage(u)
		return models.ChatStreamEvent{
			Usage: &usage,
			Cost:  pricer.Add(model, usage, cost.Text),
		}, true
	}
	return models.ChatStreamEvent{}, false
}

func present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}
