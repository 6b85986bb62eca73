package fetch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

const logTimestamp = "2006-01-02 15:04:05"

// appendLog records formatted text under a run header. Failures are logged
// and otherwise ignored.
func (f *Fetcher) appendLog(formatted string) {
	if f.logPath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(f.logPath), 0o755); err != nil {
		log.Warn().Err(err).Str("path", f.logPath).Msg("fetch log dir")
		return
	}
	fh, err := os.OpenFile(f.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Warn().Err(err).Str("path", f.logPath).Msg("open fetch log")
		return
	}
	defer fh.Close()
	if _, err := fmt.Fprintf(fh, "\n=== Run at %s ===\n%s\n", time.Now().Format(logTimestamp), formatted); err != nil {
		log.Warn().Err(err).Str("path", f.logPath).Msg("write fetch log")
	}
}
