package trace

import "sync/atomic"

// Switch decides whether calls are traced: an operator flag (on by default)
// AND the sink's own runtime signal. Only Enable and Disable change the flag.
type Switch struct {
	manual atomic.Bool
	sink   Sink
}

func NewSwitch(sink Sink) *Switch {
	if sink == nil {
		sink = Nop{}
	}
	s := &Switch{sink: sink}
	s.manual.Store(true)
	return s
}

func (s *Switch) Enable()  { s.manual.Store(true) }
func (s *Switch) Disable() { s.manual.Store(false) }

// Manual reports the operator flag alone.
func (s *Switch) Manual() bool { return s.manual.Load() }

// Enabled is Manual() && sink.RuntimeEnabled(). A sink that panics while
// answering counts as disabled.
func (s *Switch) Enabled() (on bool) {
	if !s.manual.Load() {
		return false
	}
	defer func() {
		if recover() != nil {
			on = false
		}
	}()
	return s.sink.RuntimeEnabled()
}
