package cachegate

// Fields is a minimal structured field map for logs.
type Fields map[string]any

// Logger is a tiny leveled logger. Provide an adapter around logging stack
// (see log/zap, log/logrus, log/slog, log/zerolog).
// If Logger is nil in Options, logging is disabled.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}

// named stamps every entry with the client name.
type named struct {
	l    Logger
	name string
}

func withName(l Logger, name string) Logger {
	if l == nil {
		return NopLogger{}
	}
	if name == "" {
		return l
	}
	return named{l: l, name: name}
}

func (n named) with(f Fields) Fields {
	out := make(Fields, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	out["client"] = n.name
	return out
}

func (n named) Debug(msg string, f Fields) { n.l.Debug(msg, n.with(f)) }
func (n named) Info(msg string, f Fields)  { n.l.Info(msg, n.with(f)) }
func (n named) Warn(msg string, f Fields)  { n.l.Warn(msg, n.with(f)) }
func (n named) Error(msg string, f Fields) { n.l.Error(msg, n.with(f)) }
