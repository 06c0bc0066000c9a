package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerFiltersByLevel(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		emit  func(*log.Logger)
		want  bool
	}{
		{"info at info", log.InfoLevel, func(l *log.Logger) { l.Info("x") }, true},
		{"debug at info", log.InfoLevel, func(l *log.Logger) { l.Debug("x") }, false},
		{"debug at debug", log.DebugLevel, func(l *log.Logger) { l.Debug("x") }, true},
		{"info at warn", log.WarnLevel, func(l *log.Logger) { l.Info("x") }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.want {
				t.Errorf("got output %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveLevel(t *testing.T) {
	tests := []struct {
		name           string
		verbose, quiet bool
		env            string
		want           log.Level
		wantErr        bool
	}{
		{"default", false, false, "", log.InfoLevel, false},
		{"verbose", true, false, "", log.DebugLevel, false},
		{"quiet", false, true, "", log.WarnLevel, false},
		{"verbose beats quiet", true, true, "", log.DebugLevel, false},
		{"env", false, false, "ERROR", log.ErrorLevel, false},
		{"flag beats env", false, true, "debug", log.WarnLevel, false},
		{"bad env", false, false, "loud", log.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveLevel(tt.verbose, tt.quiet, tt.env)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimer(t *testing.T) {
	var buf bytes.Buffer
	tm := startTimer(newLogger(&buf, log.DebugLevel))

	tm.mark("pipeline")
	tm.done("Rebuilt %s", "companies.csv")

	out := buf.String()
	for _, want := range []string{"pipeline", "took=", "Rebuilt companies.csv ("} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTimerMarksHiddenAtInfo(t *testing.T) {
	var buf bytes.Buffer
	tm := startTimer(newLogger(&buf, log.InfoLevel))
	tm.mark("pipeline")
	if buf.Len() != 0 {
		t.Errorf("mark logged at info level: %q", buf.String())
	}
}

func TestLoggerContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("empty context should give log.Default()")
	}

	var buf bytes.Buffer
	custom := newLogger(&buf, log.InfoLevel)
	ctx := withLogger(context.Background(), custom)
	if got := loggerFromContext(ctx); got != custom {
		t.Errorf("got %p, want %p", got, custom)
	}
}
