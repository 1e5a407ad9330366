// Package snapshot captures the served dashboard with a headless browser.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"climate-dashboard/utils"
)

const (
	defaultWidth   = 1440
	defaultHeight  = 900
	defaultQuality = 90

	// imagesLoaded is true once every chart <img> has finished loading.
	imagesLoaded = `Array.from(document.images).every(img => img.complete)`
)

// ErrBadURL is returned for targets that are not absolute http(s) URLs.
var ErrBadURL = errors.New("snapshot: url must be absolute http or https")

// Options configures the browser.
type Options struct {
	ChromeBin string
	Timeout   time.Duration
	Width     int
	Height    int
	Quality   int
}

// Capturer takes full-page screenshots.
type Capturer struct {
	opts   Options
	retry  *utils.RetryConfig
	logger *utils.Logger
}

// New creates a Capturer. Zero options take the defaults: 1440x900 viewport,
// quality 90 and a 60 second timeout per attempt.
func New(opts Options, retry *utils.RetryConfig, logger *utils.Logger) *Capturer {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = defaultHeight
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = defaultQuality
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Capturer{opts: opts, retry: retry, logger: logger}
}

// Capture loads target, waits for the charts and returns a PNG of the whole
// page.
func (c *Capturer) Capture(ctx context.Context, target string) ([]byte, error) {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBadURL, target)
	}

	bin := FindChromeBinary(c.opts.ChromeBin)
	if bin != "" {
		c.logger.Info("[snapshot] using browser binary: %s", bin)
	} else {
		c.logger.Warn("[snapshot] no browser binary found, relying on chromedp defaults")
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions(bin)...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...any) {}))
	defer cancelBrowser()

	var shot []byte
	err = c.retry.Do(ctx, "snapshot "+target, func(context.Context) error {
		tabCtx, cancel := chromedp.NewContext(browserCtx)
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.opts.Timeout)
		defer cancelTimeout()

		var ready bool
		return chromedp.Run(tabCtx,
			chromedp.EmulateViewport(int64(c.opts.Width), int64(c.opts.Height)),
			chromedp.Navigate(target),
			chromedp.WaitVisible("main", chromedp.ByQuery),
			chromedp.Poll(imagesLoaded, &ready, chromedp.WithPollingInterval(200*time.Millisecond)),
			chromedp.FullScreenshot(&shot, c.opts.Quality),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	c.logger.Info("[snapshot] captured %s (%d bytes)", target, len(shot))
	return shot, nil
}

// CaptureToFile writes the screenshot of target to path.
func (c *Capturer) CaptureToFile(ctx context.Context, target, path string) error {
	shot, err := c.Capture(ctx, target)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, shot, 0o644); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", path, err)
	}
	return nil
}

func allocatorOptions(bin string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	if bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}
	return opts
}

// FindChromeBinary returns override when set, else the first Chrome or
// Chromium found on PATH or in the usual install locations, else "".
func FindChromeBinary(override string) string {
	if override != "" {
		return override
	}

	for _, name := range []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	for _, p := range []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
