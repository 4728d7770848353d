package shared

import (
	"bytes"
	"errors"
	"testing"

	"github.com/charmbracelet/log"
)

func TestMask(t *testing.T) {
	tc := []struct {
		name   string
		secret string
		want   string
	}{
		{name: "empty", secret: "", want: "(unset)"},
		{name: "short", secret: "abc", want: "***"},
		{name: "long", secret: "supersecret", want: "*******cret"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mask(tt.secret); got != tt.want {
				t.Errorf("Mask() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetLogLevel(t *testing.T) {
	t.Run("valid level", func(t *testing.T) {
		logger := NewLogger(&bytes.Buffer{})
		if err := SetLogLevel(logger, "debug"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if logger.GetLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", logger.GetLevel())
		}
	})

	t.Run("empty level is a no-op", func(t *testing.T) {
		logger := NewLogger(&bytes.Buffer{})
		before := logger.GetLevel()
		if err := SetLogLevel(logger, ""); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if logger.GetLevel() != before {
			t.Errorf("expected level unchanged")
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		logger := NewLogger(&bytes.Buffer{})
		if err := SetLogLevel(logger, "loud"); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret(64)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	b, err := GenerateSecret(64)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 bytes, got %d", len(a))
	}
	if bytes.Equal(a, b) {
		t.Error("expected distinct secrets")
	}
}

func TestGenerateID(t *testing.T) {
	if GenerateID() == GenerateID() {
		t.Error("expected unique ids")
	}
}
