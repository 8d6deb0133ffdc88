package dispatch

// Event is one of LaunchComplete, Message or Crashed.
type Event interface {
	eventName() string
}

// LaunchComplete is delivered exactly once, after the child's stdio is bound
// and before any other event.
type LaunchComplete struct{}

// Message is delivered for each stdout line that starts with '['.
type Message struct {
	Line string
}

// Crashed is delivered at most once, when stdout ends while the bridge is still active.
type Crashed struct{}

func (LaunchComplete) eventName() string { return "launch_complete" }
func (Message) eventName() string        { return "message" }
func (Crashed) eventName() string        { return "crashed" }

// Name returns a short, stable identifier for the event type.
func Name(ev Event) string {
	if ev == nil {
		return ""
	}

	return ev.eventName()
}

// Handler consumes events on the dispatching goroutine.
type Handler interface {
	HandleEvent(ev Event)
}

// HandlerFuncs adapts three optional callbacks to Handler.
type HandlerFuncs struct {
	OnLaunchComplete func()
	OnMessage        func(line string)
	OnCrash          func()
}

// Compile-time verification that HandlerFuncs implements Handler.
var _ Handler = HandlerFuncs{}

// HandleEvent implements Handler.
func (h HandlerFuncs) HandleEvent(ev Event) {
	switch e := ev.(type) {
	case LaunchComplete:
		if h.OnLaunchComplete != nil {
			h.OnLaunchComplete()
		}
	case Message:
		if h.OnMessage != nil {
			h.OnMessage(e.Line)
		}
	case Crashed:
		if h.OnCrash != nil {
			h.OnCrash()
		}
	}
}
