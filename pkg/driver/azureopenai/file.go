package azureopenai

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/pario-ai/aigateway/pkg/driver"
	"github.com/pario-ai/aigateway/pkg/models"
)

func (c *Client) CreateFile(ctx context.Context, f driver.FileUpload) (*models.FileResponse, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("purpose", f.Purpose); err != nil {
		return nil, fmt.Errorf("azureopenai: write purpose: %w", err)
	}
	part, err := w.CreateFormFile("file", f.Name)
	if err != nil {
		return nil, fmt.Errorf("azureopenai: create form file: %w", err)
	}
	if _, err := part.Write(f.Content); err != nil {
		return nil, fmt.Errorf("azureopenai: write file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("azureopenai: close form: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/openai/files", w.FormDataContentType(), buf.Bytes(), "File: "+f.Name)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var body bytes.Buffer
	if _, err := body.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("azureopenai: read response: %w", err)
	}
	return parseFile(gjson.ParseBytes(body.Bytes())), nil
}

func (c *Client) GetFile(ctx context.Context, _ string, fileID string) (*models.FileResponse, error) {
	data, err := c.doJSON(ctx, http.MethodGet, "/openai/files/"+url.PathEscape(fileID), nil, "File: "+fileID)
	if err != nil {
		return nil, err
	}
	return parseFile(gjson.ParseBytes(data)), nil
}

// fileContent downloads the raw content of a file.
func (c *Client) fileContent(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, "/openai/files/"+url.PathEscape(fileID)+"/content", "", nil, "File: "+fileID)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("azureopenai: read file content: %w", err)
	}
	return buf.Bytes(), nil
}

func parseFile(r gjson.Result) *models.FileResponse {
	name := r.Get("filename").String()
	return &models.FileResponse{
		ID:        r.Get("id").String(),
		Name:      name,
		Extension: models.FileExtension(strings.TrimPrefix(filepath.Ext(name), ".")),
		Purpose:   models.FilePurpose(r.Get("purpose").String()),
		Status:    models.FileStatus(r.Get("status").String()),
		Bytes:     r.Get("bytes").Int(),
		CreatedAt: time.Unix(r.Get("created_at").Int(), 0).UTC().Format(time.RFC3339),
	}
}
