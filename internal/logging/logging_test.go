package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q)=%v, want %v", in, got, want)
		}
	}
}

func TestNew(t *testing.T) {
	for _, prod := range []bool{true, false} {
		log, err := New(prod, "debug")
		if err != nil {
			t.Fatalf("prod=%v: %v", prod, err)
		}
		if !log.Core().Enabled(zapcore.DebugLevel) {
			t.Fatalf("prod=%v: debug not enabled", prod)
		}
	}
}
