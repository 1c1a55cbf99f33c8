package bebopffi

// Fields is a minimal structured field map for logs.
type Fields map[string]any

// Logger is the leveled logger the engine writes to. Adapters for zap,
// logrus, zerolog and log/slog live under log/.
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
