package shared

import (
	"context"
	"slices"
	"testing"
)

func TestBrowserCommand(t *testing.T) {
	orig := getRuntime
	t.Cleanup(func() { getRuntime = orig })

	tc := []struct {
		goos string
		want []string
	}{
		{goos: "darwin", want: []string{"open", "http://localhost:5005/"}},
		{goos: "linux", want: []string{"xdg-open", "http://localhost:5005/"}},
		{goos: "windows", want: []string{"cmd", "/c", "start", "http://localhost:5005/"}},
	}

	for _, tt := range tc {
		t.Run(tt.goos, func(t *testing.T) {
			getRuntime = func() string { return tt.goos }
			cmd, err := browserCommand(context.Background(), "http://localhost:5005/")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !slices.Equal(cmd.Args, tt.want) {
				t.Errorf("expected args %v, got %v", tt.want, cmd.Args)
			}
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		getRuntime = func() string { return "plan9" }
		if err := OpenBrowser(context.Background(), "http://localhost:5005/"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})
}
