package hooking

import (
	"log"
)

// A LogHook is a hook that is resonsible for recording information from the
// simulation into a logger.
type LogHook interface {
	Hook
}

// LogHookBase proovides the common logic for all LogHooks.
type LogHookBase struct {
	*log.Logger
}

// NewLogHookBase wraps a logger. A nil logger discards everything.
func NewLogHookBase(logger *log.Logger) LogHookBase {
	if logger == nil {
		logger = log.New(discard{}, "", 0)
	}

	return LogHookBase{Logger: logger}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) {
	return len(p), nil
}
