// Package control exposes a running bridge as a set of MCP tools.
//
// The tools let an MCP client send commands to the child, inspect the
// transcript and query the bridge's status. The same registry can be invoked
// directly with CallTool or served over stdio through the official MCP SDK.
package control
