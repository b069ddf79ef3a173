package scraper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"stamps-catalog/config"
	"stamps-catalog/utils"
)

// Downloader fetches rendered listing pages with a headless browser.
// Every page opens a tab in one shared browser. Call Close when done to
// stop the browser.
type Downloader struct {
	logger  *utils.Logger
	retry   *utils.RetryConfig
	timeout time.Duration

	cancelAlloc context.CancelFunc
	browserCtx  context.Context
	cancelTab   context.CancelFunc

	startOnce sync.Once
	startErr  error
}

// NewDownloader prepares a headless browser allocator. The browser is
// launched by the first Download.
func NewDownloader(cfg *config.Config, logger *utils.Logger) *Downloader {
	chromeBin := cfg.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Debug("[downloader] Using browser binary: %q", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	browserCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	timeout := cfg.DownloadTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Downloader{
		logger:  logger,
		timeout: timeout,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		cancelAlloc: cancelAlloc,
		browserCtx:  browserCtx,
		cancelTab:   cancelTab,
	}
}

// Download navigates to pageURL and returns the outer HTML of the document
// once its body is ready.
func (d *Downloader) Download(ctx context.Context, pageURL string) ([]byte, error) {
	if err := d.start(); err != nil {
		return nil, err
	}

	var html string

	err := d.retry.Do(ctx, "download "+pageURL, func() error {
		tabCtx, cancel := chromedp.NewContext(d.browserCtx)
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, d.timeout)
		defer cancelTimeout()

		// Abort the tab when the caller gives up.
		stop := context.AfterFunc(ctx, cancel)
		defer stop()

		return chromedp.Run(tabCtx,
			chromedp.Navigate(pageURL),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("downloader: %w", err)
	}

	d.logger.Debug("[downloader] %s: %d bytes", pageURL, len(html))
	return []byte(html), nil
}

// start launches the browser once. Tabs created from browserCtx before it
// has run would each spawn a browser of their own.
func (d *Downloader) start() error {
	d.startOnce.Do(func() {
		if err := chromedp.Run(d.browserCtx); err != nil {
			d.startErr = fmt.Errorf("downloader: start browser: %w", err)
			return
		}
		d.logger.Debug("[downloader] Browser started")
	})
	return d.startErr
}

func (d *Downloader) Close() {
	d.cancelTab()
	d.cancelAlloc()
}

// findChromeBinary locates a Chrome/Chromium executable on the host.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
