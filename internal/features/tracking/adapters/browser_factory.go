package adapter

import (
	"context"
	"time"

	"cargo-tracker/internal/core/browser"
	"cargo-tracker/internal/core/config"
	"cargo-tracker/internal/core/proxy"
	"cargo-tracker/internal/features/tracking/ports"
)

// BrowserSessionFactory opens rod-backed browser sessions for the extraction
// agent. It implements ports.SessionFactory.
type BrowserSessionFactory struct {
	opts browser.Options
}

// NewBrowserSessionFactory builds a factory from the tracking and proxy
// configuration.
func NewBrowserSessionFactory(tracking config.TrackingConfig, proxyCfg config.ProxyConfig) *BrowserSessionFactory {
	opts := browser.DefaultOptions()
	if tracking.BrowserTimeoutSeconds > 0 {
		opts.Timeout = time.Duration(tracking.BrowserTimeoutSeconds) * time.Second
	}
	opts.Proxy = proxy.Settings{
		Enabled:  proxyCfg.Enabled,
		Hostname: proxyCfg.Hostname,
		Port:     proxyCfg.Port,
		Username: proxyCfg.Username,
		Password: proxyCfg.Password,
	}
	return &BrowserSessionFactory{opts: opts}
}

// Open launches a browser session. The returned close function is safe to
// call on every exit path.
func (f *BrowserSessionFactory) Open(ctx context.Context, headless bool) (ports.PageDriver, func(), error) {
	opts := f.opts
	opts.Headless = headless

	session, err := browser.Open(ctx, opts)
	if err != nil {
		return nil, func() {}, err
	}
	return session, session.Close, nil
}
