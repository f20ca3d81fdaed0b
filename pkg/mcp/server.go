// Package mcp serves read-only quota, catalog and cost inspection tools over
// the Model Context Protocol (JSON-RPC 2.0 on stdio).
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/pario-ai/aigateway/pkg/catalog"
	"github.com/pario-ai/aigateway/pkg/driver"
	"github.com/pario-ai/aigateway/pkg/models"
	"github.com/pario-ai/aigateway/pkg/quota"
)

const maxLineSize = 1 << 20

// QuotaReader looks up the quotas of a tuple. *quota.Service satisfies it.
type QuotaReader interface {
	Retrieve(ctx context.Context, key quota.Key, enabled *bool) ([]models.Quota, error)
}

// Server answers MCP requests.
type Server struct {
	quotas  QuotaReader
	catalog catalog.Provider
	pricer  driver.Pricer
	logger  *slog.Logger
	version string
}

// New creates a Server. A nil pricer disables cost estimation.
func New(quotas QuotaReader, c catalog.Provider, pricer driver.Pricer, logger *slog.Logger, version string) *Server {
	if pricer == nil {
		pricer = driver.NoPricer{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{quotas: quotas, catalog: c, pricer: pricer, logger: logger, version: version}
}

// Run reads one request per line from r and writes one response per line
// to w until r is exhausted or ctx is done.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.write(w, Response{
				JSONRPC: jsonRPCVersion,
				Error:   &RPCError{Code: CodeParseError, Message: "parse error"},
			})
			continue
		}
		if resp := s.dispatch(ctx, &req); resp != nil {
			s.write(w, *resp)
		}
	}
	return scanner.Err()
}

func (s *Server) dispatch(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case "initialize":
		return s.reply(req, InitializeResult{
			ProtocolVersion: protocolVersion,
			ServerInfo:      ServerInfo{Name: "aigateway", Version: s.version},
			Capabilities:    map[string]any{"tools": map[string]any{}},
		})
	case "notifications/initialized":
		return nil
	case "tools/list":
		return s.reply(req, ToolsListResult{Tools: tools})
	case "tools/call":
		var params ToolCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return s.fail(req, CodeInvalidParams, "invalid params")
		}
		handler, ok := handlers[params.Name]
		if !ok {
			return s.reply(req, errorResult("unknown tool: "+params.Name))
		}
		return s.reply(req, handler(ctx, s, params.Arguments))
	default:
		return s.fail(req, CodeMethodNotFound, fmt.Sprintf("unknown method: %s", req.Method))
	}
}

func (s *Server) reply(req *Request, result any) *Response {
	return &Response{JSONRPC: jsonRPCVersion, ID: req.ID, Result: result}
}

func (s *Server) fail(req *Request, code int, msg string) *Response {
	return &Response{JSONRPC: jsonRPCVersion, ID: req.ID, Error: &RPCError{Code: code, Message: msg}}
}

func (s *Server) write(w io.Writer, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("mcp: marshal response", "error", err)
		return
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		s.logger.Error("mcp: write response", "error", err)
	}
}
