package browser

import (
	"context"
	"fmt"
	"time"

	"cargo-tracker/internal/core/logger"
	"cargo-tracker/internal/core/proxy"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Options configures a browser session.
type Options struct {
	// Headless runs the browser without a visible UI.
	Headless bool
	// Timeout bounds the whole session, launch to close.
	Timeout time.Duration
	// ViewportWidth and ViewportHeight size the page viewport.
	ViewportWidth  int
	ViewportHeight int
	// Proxy optionally routes browser traffic through an outbound proxy.
	Proxy proxy.Settings
}

// DefaultOptions returns the options used when callers leave fields zero.
func DefaultOptions() Options {
	return Options{
		Headless:       true,
		Timeout:        120 * time.Second,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
	}
}

// Session owns one live browser instance and its single page.
// Close must be called on every exit path.
type Session struct {
	browser   *rod.Browser
	page      *rod.Page
	forwarder *proxy.ForwardingProxy
	cancel    context.CancelFunc
	logger    *zap.Logger
}

// Open launches a browser and opens a blank page.
func Open(ctx context.Context, opts Options) (*Session, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	if opts.ViewportWidth <= 0 {
		opts.ViewportWidth = DefaultOptions().ViewportWidth
	}
	if opts.ViewportHeight <= 0 {
		opts.ViewportHeight = DefaultOptions().ViewportHeight
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)

	log := logger.Named("browser")
	log.Debug("Launching browser",
		zap.Bool("headless", opts.Headless),
		zap.Bool("proxy_enabled", opts.Proxy.HasProxy()),
	)

	l := launcher.New().
		Context(ctx).
		Headless(opts.Headless).
		NoSandbox(true)

	var forwarder *proxy.ForwardingProxy
	if opts.Proxy.HasProxy() {
		if opts.Proxy.Username != "" && opts.Proxy.Password != "" {
			// Chromium cannot take proxy credentials on the command line, so
			// route through a local forwarder that injects them.
			fwd, err := proxy.NewForwardingProxy(opts.Proxy.FullURL())
			if err != nil {
				cancel()
				return nil, fmt.Errorf("failed to create proxy forwarder: %w", err)
			}
			addr, err := fwd.Start(ctx)
			if err != nil {
				cancel()
				return nil, fmt.Errorf("failed to start proxy forwarder: %w", err)
			}
			forwarder = fwd
			l = l.Proxy(addr)
		} else {
			l = l.Proxy(opts.Proxy.HostPort())
		}
	}

	u, err := l.Launch()
	if err != nil {
		stopForwarder(forwarder)
		cancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().Context(ctx).ControlURL(u)
	if err := b.Connect(); err != nil {
		stopForwarder(forwarder)
		cancel()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		b.Close()
		stopForwarder(forwarder)
		cancel()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.ViewportWidth,
		Height:            opts.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		b.Close()
		stopForwarder(forwarder)
		cancel()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}

	return &Session{
		browser:   b,
		page:      page,
		forwarder: forwarder,
		cancel:    cancel,
		logger:    log,
	}, nil
}

// Navigate loads the given URL and waits for the page to settle.
func (s *Session) Navigate(url string) error {
	s.logger.Debug("Navigating", zap.String("url", url))
	if err := s.page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := s.page.WaitLoad(); err != nil {
		return fmt.Errorf("page load failed for %s: %w", url, err)
	}
	return nil
}

// ClickMatching clicks the first element matched by the CSS selector whose
// text matches the regular expression.
func (s *Session) ClickMatching(selector, pattern string) error {
	el, err := s.page.ElementR(selector, pattern)
	if err != nil {
		return fmt.Errorf("no element %q matching %q: %w", selector, pattern, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click element matching %q: %w", pattern, err)
	}
	if err := s.page.WaitLoad(); err != nil {
		return fmt.Errorf("page load after click failed: %w", err)
	}
	return nil
}

// Fill types the value into the element matched by the CSS selector.
func (s *Session) Fill(selector, value string) error {
	el, err := s.page.Element(selector)
	if err != nil {
		return fmt.Errorf("no element for selector %q: %w", selector, err)
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("failed to fill %q: %w", selector, err)
	}
	return nil
}

// Submit presses Enter on the element matched by the CSS selector.
func (s *Session) Submit(selector string) error {
	el, err := s.page.Element(selector)
	if err != nil {
		return fmt.Errorf("no element for selector %q: %w", selector, err)
	}
	if err := el.Type(input.Enter); err != nil {
		return fmt.Errorf("failed to submit %q: %w", selector, err)
	}
	if err := s.page.WaitLoad(); err != nil {
		return fmt.Errorf("page load after submit failed: %w", err)
	}
	return nil
}

// Text returns the visible text of the current page body.
func (s *Session) Text() (string, error) {
	el, err := s.page.Element("body")
	if err != nil {
		return "", fmt.Errorf("failed to locate page body: %w", err)
	}
	text, err := el.Text()
	if err != nil {
		return "", fmt.Errorf("failed to read page text: %w", err)
	}
	return text, nil
}

// URL returns the current page URL, or empty when unavailable.
func (s *Session) URL() string {
	info, err := s.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Close shuts down the page, browser and any proxy forwarder. Safe to call
// more than once.
func (s *Session) Close() {
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			s.logger.Debug("Browser close", zap.Error(err))
		}
		s.browser = nil
	}
	stopForwarder(s.forwarder)
	s.forwarder = nil
	if s.cancel != nil {
		s.cancel()
	}
}

func stopForwarder(fwd *proxy.ForwardingProxy) {
	if fwd != nil {
		fwd.Stop()
	}
}
