package logger

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":    zerolog.TraceLevel,
		"debug":    zerolog.DebugLevel,
		"info":     zerolog.InfoLevel,
		"warn":     zerolog.WarnLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"critical": zerolog.FatalLevel,
		"CRITICAL": zerolog.FatalLevel,
		" Debug ":  zerolog.DebugLevel,
		"bogus":    zerolog.InfoLevel,
		"":         zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestValidLevel(t *testing.T) {
	for _, s := range []string{"debug", "info", "warning", "error", "critical", " WARN "} {
		if !ValidLevel(s) {
			t.Errorf("ValidLevel(%q) = false", s)
		}
	}
	for _, s := range []string{"", "loud", "verbose"} {
		if ValidLevel(s) {
			t.Errorf("ValidLevel(%q) = true", s)
		}
	}
}

func TestSetLevel(t *testing.T) {
	SetLevel("error")
	if got := Get().GetLevel(); got != zerolog.ErrorLevel {
		t.Fatalf("level after SetLevel(error) = %v", got)
	}
	SetLevel("info")
	if got := Get().GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("level after SetLevel(info) = %v", got)
	}
}

func TestWithRequestContextFields(t *testing.T) {
	ctx := WithRequest(context.Background(), "req-1", "echo")
	if C(ctx) == nil {
		t.Fatal("C returned nil")
	}
	// blank values must not be stored
	blank := WithRequest(context.Background(), "", "")
	if blank != context.Background() {
		t.Fatal("blank fields should leave the context untouched")
	}
}
