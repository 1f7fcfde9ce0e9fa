package diag

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Diagnostics carries one session's scoped logger and its counters for
// recoverable events. Components that can degrade gracefully receive it
// by pointer; there is no global instance.
type Diagnostics struct {
	Log zerolog.Logger

	ProxyRebuilds   int
	BuildRayMisses  int
	MoveRayMisses   int
	RejectedCommits int
	SnapRejects     int
	DtClamps        int
}

func New(w io.Writer, level zerolog.Level) *Diagnostics {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).Level(level).With().Timestamp().Str("app", "coilsim").Logger()
	return &Diagnostics{Log: logger}
}

// Nop returns a diagnostics sink that still counts but never writes.
func Nop() *Diagnostics {
	return &Diagnostics{Log: zerolog.Nop()}
}

// ParseLevel maps a level name to a zerolog level. The COILSIM_LOG_LEVEL
// environment variable overrides the argument when set. Unknown names
// select info.
func ParseLevel(s string) zerolog.Level {
	if env := os.Getenv("COILSIM_LOG_LEVEL"); env != "" {
		s = env
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off", "none", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Snapshot returns the counters as a name-to-count map for end-of-run
// reporting.
func (d *Diagnostics) Snapshot() map[string]int {
	return map[string]int{
		"proxy_rebuilds":   d.ProxyRebuilds,
		"build_ray_misses": d.BuildRayMisses,
		"move_ray_misses":  d.MoveRayMisses,
		"rejected_commits": d.RejectedCommits,
		"snap_rejects":     d.SnapRejects,
		"dt_clamps":        d.DtClamps,
	}
}
