package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the process-wide line logger. Request logs, audit events and
// internal-error detail all funnel through this single writer, so tests can
// capture everything by redirecting one output.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stdout, "", 0)
	})
	return logger
}

// LogRequest emits one JSON object per line. Entries are flat string-keyed
// maps; nested values are fine as long as they marshal.
func LogRequest(entry map[string]any) {
	line, err := json.Marshal(entry)
	if err != nil {
		Logger().Println(`{"level":"error","msg":"request log entry not marshalable"}`)
		return
	}
	Logger().Println(string(line))
}
