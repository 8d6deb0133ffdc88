package noderpc

import (
	"github.com/wagiedev/noderpc-go/internal/control"
)

// ControlServer exposes a bridge's send, transcript and status operations as
// MCP tools.
type ControlServer = control.Server

// NewControlServer creates an MCP tool server operating on b.
//
// Example usage:
//
//	srv := noderpc.NewControlServer("noderpc", "1.0.0", b)
//	if err := srv.ServeStdio(ctx); err != nil {
//	    log.Fatal(err)
//	}
func NewControlServer(name, version string, b Bridge) *ControlServer {
	return control.NewServer(name, version, b)
}
