package logs

import (
	"context"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/reusee/lazyphy/cmds"
	"github.com/reusee/lazyphy/modes"
	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

// level set on the command line, overriding the configured one
var flagLevel *slog.Level

func init() {
	for name, level := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		cmds.Define("-log-"+name, cmds.Func(func() {
			flagLevel = &level
		}).Desc("set log level to "+name))
	}
}

type Logger = *slog.Logger

func (Module) Logger(
	writer Writer,
	config Config,
	mode modes.Mode,
) Logger {
	level := new(slog.LevelVar)
	level.Set(config.Level)
	if flagLevel != nil {
		level.Set(*flagLevel)
	}
	options := &slog.HandlerOptions{
		Level: level,
	}

	var handlers []slog.Handler
	var terminal slog.Handler
	if !runningAsService() {
		switch config.Format {
		case FormatJSON:
			terminal = slog.NewJSONHandler(writer, options)
		default:
			terminal = slog.NewTextHandler(writer, options)
		}
		handlers = append(handlers, terminal)
	}

	if mode == modes.ModeProduction {
		journal, err := slogjournal.NewHandler(&slogjournal.Options{
			ReplaceGroup: func(key string) string {
				return toJournalKey(key)
			},
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a.Key = toJournalKey(a.Key)
				return a
			},
		})
		if err == nil {
			handlers = append(handlers, journal)
		} else if terminal != nil {
			record := slog.NewRecord(time.Now(), slog.LevelWarn, "no systemd journal", 0)
			record.Add("error", err)
			_ = terminal.Handle(context.Background(), record)
		}
	}

	return slog.New(&Handler{
		Handler: slogmulti.Fanout(handlers...),
	})
}

// journal field names are upper case letters, digits and underscores
func toJournalKey(str string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, strings.ToUpper(str))
}

func runningAsService() bool {
	content, err := os.ReadFile("/proc/self/cgroup")
	if err != nil {
		return false
	}
	for line := range strings.SplitSeq(strings.TrimSpace(string(content)), "\n") {
		parts := strings.SplitN(line, ":", 3)
		if len(parts) == 3 && strings.HasSuffix(path.Dir(parts[2]), ".service") {
			return true
		}
	}
	return false
}
