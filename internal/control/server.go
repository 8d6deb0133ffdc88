package control

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server holds the bridge tools and invokes them directly or over MCP.
type Server struct {
	name    string
	version string
	mu      sync.RWMutex
	tools   map[string]*registeredTool
}

// registeredTool holds tool metadata and handler for the registry.
type registeredTool struct {
	tool    *mcp.Tool
	handler mcp.ToolHandler
}

// NewServer creates a Server exposing target's operations as tools.
func NewServer(name, version string, target Target) *Server {
	s := &Server{
		name:    name,
		version: version,
		tools:   make(map[string]*registeredTool, 4),
	}

	registerBridgeTools(s, target)

	return s
}

// AddTool registers a tool with the server, replacing any tool of the same name.
func (s *Server) AddTool(tool *mcp.Tool, handler mcp.ToolHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools[tool.Name] = &registeredTool{
		tool:    tool,
		handler: handler,
	}
}

// Name returns the server name.
func (s *Server) Name() string {
	return s.name
}

// Version returns the server version.
func (s *Server) Version() string {
	return s.version
}

// ToolNames returns the registered tool names in sorted order.
func (s *Server) ToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Tool returns the metadata of a registered tool.
func (s *Server) Tool(name string) (*mcp.Tool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tools[name]
	if !ok {
		return nil, false
	}

	return t.tool, true
}

// CallTool executes a tool by name with the given input.
//
// Unknown tools and handler failures are reported as error results, never as
// a Go error, mirroring how MCP surfaces tool failures to clients.
func (s *Server) CallTool(ctx context.Context, name string, input map[string]any) (*mcp.CallToolResult, error) {
	s.mu.RLock()
	t, exists := s.tools[name]
	s.mu.RUnlock()

	if !exists {
		return ErrorResult("Tool not found: " + name), nil
	}

	inputBytes, err := json.Marshal(input)
	if err != nil {
		//nolint:nilerr // the failure is encoded in the result
		return ErrorResult("Failed to marshal input: " + err.Error()), nil
	}

	req := &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Name:      name,
			Arguments: inputBytes,
		},
	}

	result, err := t.handler(ctx, req)
	if err != nil {
		//nolint:nilerr // the failure is encoded in the result
		return ErrorResult("Tool execution failed: " + err.Error()), nil
	}

	if result == nil {
		return &mcp.CallToolResult{Content: []mcp.Content{}}, nil
	}

	return result, nil
}

// MCPServer builds an official MCP server carrying the registered tools.
func (s *Server) MCPServer() *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: s.name, Version: s.version}, nil)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tools {
		srv.AddTool(t.tool, t.handler)
	}

	return srv
}

// ServeStdio serves the tools over the process's stdin and stdout until ctx
// is done or the client disconnects.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.Serve(ctx, &mcp.StdioTransport{})
}

// Serve serves the tools over transport until ctx is done or the client disconnects.
func (s *Server) Serve(ctx context.Context, transport mcp.Transport) error {
	if err := s.MCPServer().Run(ctx, transport); err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}

	return nil
}

// objectSchema creates an object schema with the given properties, all required
// unless listed in optional.
func objectSchema(props map[string]*jsonschema.Schema, optional ...string) *jsonschema.Schema {
	required := make([]string, 0, len(props))

	for name := range props {
		if !slices.Contains(optional, name) {
			required = append(required, name)
		}
	}

	slices.Sort(required)

	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

// TextResult creates a CallToolResult with text content.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// ErrorResult creates a CallToolResult indicating an error.
func ErrorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: message},
		},
		IsError: true,
	}
}

// ParseArguments unmarshals CallToolRequest arguments into a map.
func ParseArguments(req *mcp.CallToolRequest) (map[string]any, error) {
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return make(map[string]any), nil
	}

	var args map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return nil, fmt.Errorf("failed to unmarshal arguments: %w", err)
	}

	return args, nil
}
