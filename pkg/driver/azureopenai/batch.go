package azureopenai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/pario-ai/aigateway/pkg/models"
)

func (c *Client) CreateBatch(ctx context.Context, req models.BatchRequest) (*models.BatchResponse, error) {
	body := []byte(`{}`)
	var err error
	for _, kv := range [][2]string{
		{"input_file_id", req.File.ID},
		{"endpoint", req.Endpoint.Name},
		{"completion_window", req.CompletionWindow.Name},
	} {
		if body, err = sjson.SetBytes(body, kv[0], kv[1]); err != nil {
			return nil, fmt.Errorf("azureopenai: build batch request: %w", err)
		}
	}
	data, err := c.doJSON(ctx, http.MethodPost, "/openai/batches", body, "File: "+req.File.ID)
	if err != nil {
		return nil, err
	}
	return c.buildBatch(ctx, gjson.ParseBytes(data))
}

func (c *Client) GetBatch(ctx context.Context, _ string, batchID string) (*models.BatchResponse, error) {
	data, err := c.doJSON(ctx, http.MethodGet, "/openai/batches/"+url.PathEscape(batchID), nil, "Batch: "+batchID)
	if err != nil {
		return nil, err
	}
	return c.buildBatch(ctx, gjson.ParseBytes(data))
}

func (c *Client) buildBatch(ctx context.Context, r gjson.Result) (*models.BatchResponse, error) {
	status := r.Get("status").String()
	resp := &models.BatchResponse{
		ID:               r.Get("id").String(),
		File:             models.BatchFile{ID: r.Get("input_file_id").String()},
		Status:           models.BatchStatus(status),
		CompletionWindow: models.NameRef{Name: r.Get("completion_window").String()},
		Endpoint:         models.BatchEndpoint(r.Get("endpoint").String()),
		RequestCounts: models.BatchRequestCounts{
			Total:     int(r.Get("request_counts.total").Int()),
			Completed: int(r.Get("request_counts.completed").Int()),
			Failed:    int(r.Get("request_counts.failed").Int()),
		},
		CreatedAt:    unixTime(r.Get("created_at")),
		InProgressAt: unixTime(r.Get("in_progress_at")),
		CompletedAt:  unixTime(r.Get("completed_at")),
		FailedAt:     unixTime(r.Get("failed_at")),
		ExpiredAt:    unixTime(r.Get("expired_at")),
		CancelledAt:  unixTime(r.Get("cancelled_at")),
	}

	for _, e := range r.Get("errors.data").Array() {
		be := models.BatchError{Code: e.Get("code").String(), Message: e.Get("message").String()}
		if l := e.Get("line"); present(l) {
			n := int(l.Int())
			be.Line = &n
		}
		resp.Errors = append(resp.Errors, be)
	}

	if status == models.BatchCompleted {
		if out := r.Get("output_file_id").String(); out != "" {
			content, err := c.fileContent(ctx, out)
			if err != nil {
				return nil, err
			}
			result, usage, err := batchResult(content)
			if err != nil {
				return nil, err
			}
			resp.Result = result
			resp.Usage = &usage
		}
	}
	return resp, nil
}

// batchResult decodes a JSONL output file, orders lines by custom_id, and
// returns the base64 encoded {"data": [...]} document with the summed usage.
func batchResult(content []byte) (*models.BatchResult, models.Usage, error) {
	var lines []gjson.Result
	for _, raw := range strings.Split(strings.TrimSpace(string(content)), "\n") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if !gjson.Valid(raw) {
			return nil, models.Usage{}, fmt.Errorf("azureopenai: error serializing the file result: invalid line")
		}
		lines = append(lines, gjson.Parse(raw))
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return customID(lines[i]) < customID(lines[j])
	})

	zero := 0
	total := models.Usage{CompletionTokens: &zero}
	doc := models.BatchData{Data: []models.BatchDataItem{}}
	for _, line := range lines {
		body := line.Get("response.body")
		choice := body.Get("choices.0")
		if !choice.Exists() {
			continue
		}
		usage := parseUsage(body.Get("usage"))
		total.Add(usage)

		item := models.BatchDataItem{
			Message: models.BatchMessage{
				Role:    choice.Get("message.role").String(),
				Content: choice.Get("message.content").String(),
			},
			Usage: usage,
		}
		if e := line.Get("error"); e.IsObject() {
			item.Error = &models.BatchError{Code: e.Get("code").String(), Message: e.Get("message").String()}
		}
		doc.Data = append(doc.Data, item)
	}

	encoded, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, models.Usage{}, fmt.Errorf("azureopenai: error serializing the file result: %w", err)
	}
	return &models.BatchResult{
		Type:    "base64",
		Content: base64.StdEncoding.EncodeToString(encoded),
	}, total, nil
}

func customID(r gjson.Result) int {
	n, err := strconv.Atoi(r.Get("custom_id").String())
	if err != nil {
		return 0
	}
	return n
}

func unixTime(r gjson.Result) *time.Time {
	if !present(r) {
		return nil
	}
	t := time.Unix(r.Int(), 0).UTC()
	return &t
}
