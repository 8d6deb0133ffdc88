package noderpc

import "github.com/wagiedev/noderpc-go/internal/dispatch"

// Event is one of LaunchComplete, Message or Crashed.
type Event = dispatch.Event

// LaunchComplete is delivered once, before any other event.
type LaunchComplete = dispatch.LaunchComplete

// Message carries a stdout line that starts with '['.
type Message = dispatch.Message

// Crashed is delivered at most once, when the child's stdout ends before Dispose.
type Crashed = dispatch.Crashed

// Handler consumes events. It is never invoked concurrently.
type Handler = dispatch.Handler

// HandlerFuncs adapts optional callbacks to Handler.
type HandlerFuncs = dispatch.HandlerFuncs
