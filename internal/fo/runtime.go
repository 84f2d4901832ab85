package fo

import (
	"time"

	"github.com/google/uuid"
)

// Clock, IDGenerator and Logger are the service's view of the process it
// runs in. Tests swap in stubs from internal/testutil.

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator issues batch and scan session IDs.
type IDGenerator interface {
	New() string
}

type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }

// Logger takes slog-style alternating key/value args.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type NopLogger struct{}

func NewNopLogger() *NopLogger { return &NopLogger{} }

func (*NopLogger) Debug(string, ...any) {}
func (*NopLogger) Info(string, ...any)  {}
func (*NopLogger) Warn(string, ...any)  {}
func (*NopLogger) Error(string, ...any) {}

// Path is an absolute path that FilesystemManager.Resolve has confirmed
// exists. Scan roots are Paths so a scan never starts from a typo.
type Path struct {
	abs   string
	isDir bool
}

func NewPath(abs string, isDir bool) *Path {
	return &Path{abs: abs, isDir: isDir}
}

func (p *Path) String() string { return p.abs }

func (p *Path) IsDir() bool { return p.isDir }
