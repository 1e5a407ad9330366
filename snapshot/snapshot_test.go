package snapshot

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"climate-dashboard/utils"
)

func newTestCapturer(bin string) *Capturer {
	logger := utils.Discard()
	return New(Options{ChromeBin: bin, Timeout: 5 * time.Second},
		&utils.RetryConfig{MaxAttempts: 1, Logger: logger}, logger)
}

func TestCaptureRejectsBadURL(t *testing.T) {
	c := newTestCapturer("")

	for _, target := range []string{"", "localhost:8501", "ftp://example.com/", "/relative", "http://"} {
		if _, err := c.Capture(context.Background(), target); !errors.Is(err, ErrBadURL) {
			t.Errorf("Capture(%q) error = %v; want ErrBadURL", target, err)
		}
	}
}

func TestCaptureFailsWithoutBrowser(t *testing.T) {
	c := newTestCapturer(filepath.Join(t.TempDir(), "no-such-chrome"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := c.Capture(ctx, "http://127.0.0.1:1/"); err == nil {
		t.Fatal("expected an error when the browser binary does not exist")
	}
}

func TestFindChromeBinaryOverride(t *testing.T) {
	if got := FindChromeBinary("/custom/chrome"); got != "/custom/chrome" {
		t.Errorf("FindChromeBinary override = %q", got)
	}
}

func TestAllocatorOptionsAddsExecPath(t *testing.T) {
	without := len(allocatorOptions(""))
	with := len(allocatorOptions("/usr/bin/chromium"))
	if with != without+1 {
		t.Errorf("options: got %d with binary, %d without", with, without)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	c := New(Options{Quality: 500}, &utils.RetryConfig{}, utils.Discard())
	if c.opts.Width != defaultWidth || c.opts.Height != defaultHeight || c.opts.Quality != defaultQuality || c.opts.Timeout != 60*time.Second {
		t.Errorf("defaults not applied: %+v", c.opts)
	}
}
