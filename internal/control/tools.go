package control

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/noderpc-go/internal/transcript"
)

// defaultTranscriptLimit is the number of entries the transcript tool returns
// when the caller does not ask for a specific count.
const defaultTranscriptLimit = 50

// Target is the part of a bridge the tools operate on.
type Target interface {
	ID() string
	Pid() int
	Disposed() bool
	Send(command string, argument any) error
	SendRaw(text string) error
	TranscriptTail(n int) []transcript.Entry
}

// Status is the payload returned by the status tool.
type Status struct {
	ID       string `json:"id"`
	Pid      int    `json:"pid"`
	Disposed bool   `json:"disposed"`
}

func registerBridgeTools(s *Server, target Target) {
	s.AddTool(&mcp.Tool{
		Name:        "send",
		Description: "Send a [command, argument] message to the child process as one JSON line.",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"command":  {Type: "string", Description: "Command name, the first array element."},
			"argument": {Description: "Any JSON value, the second array element."},
		}, "argument"),
	}, func(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := ParseArguments(req)
		if err != nil {
			return ErrorResult(err.Error()), nil
		}

		command, ok := args["command"].(string)
		if !ok || command == "" {
			return ErrorResult("command must be a non-empty string"), nil
		}

		if err := target.Send(command, args["argument"]); err != nil {
			return ErrorResult("send failed: " + err.Error()), nil
		}

		return TextResult("sent " + command), nil
	})

	s.AddTool(&mcp.Tool{
		Name:        "send_raw",
		Description: "Write a single pre-encoded line to the child process.",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"text": {Type: "string", Description: "The line to send, without a terminator."},
		}),
	}, func(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := ParseArguments(req)
		if err != nil {
			return ErrorResult(err.Error()), nil
		}

		text, ok := args["text"].(string)
		if !ok {
			return ErrorResult("text must be a string"), nil
		}

		if err := target.SendRaw(text); err != nil {
			return ErrorResult("send failed: " + err.Error()), nil
		}

		return TextResult(fmt.Sprintf("sent %d bytes", len(text))), nil
	})

	s.AddTool(&mcp.Tool{
		Name:        "transcript",
		Description: "Return the most recent transcript lines, prefixed INCOMING, OUTGOING or STDERR.",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"limit": {Type: "integer", Description: "Maximum number of lines to return."},
		}, "limit"),
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := ParseArguments(req)
		if err != nil {
			return ErrorResult(err.Error()), nil
		}

		limit := defaultTranscriptLimit
		if v, ok := args["limit"].(float64); ok && v > 0 {
			limit = int(v)
		}

		entries := target.TranscriptTail(limit)

		lines := make([]string, len(entries))
		for i, e := range entries {
			lines[i] = e.String()
		}

		return TextResult(strings.Join(lines, "\n")), nil
	})

	s.AddTool(&mcp.Tool{
		Name:        "status",
		Description: "Report the bridge ID, child PID and whether the bridge was disposed.",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{}),
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := json.Marshal(Status{
			ID:       target.ID(),
			Pid:      target.Pid(),
			Disposed: target.Disposed(),
		})
		if err != nil {
			return nil, err
		}

		return TextResult(string(data)), nil
	})
}
