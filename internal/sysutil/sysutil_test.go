package sysutil

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestSetLogLevel(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"  DeBuG  ", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tc := range tests {
		got := SetLogLevel(tc.in)
		if got != tc.want {
			t.Fatalf("SetLogLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
		if zerolog.GlobalLevel() != tc.want {
			t.Fatalf("global level after %q = %v, want %v", tc.in, zerolog.GlobalLevel(), tc.want)
		}
	}
}
