package metadata

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"partybot/internal/config"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// CookieFetcher loads url in a browser and returns the cookies it was given.
type CookieFetcher func(ctx context.Context, url string) ([]*proto.NetworkCookie, error)

// CookieOption configures BrowserCookies.
type CookieOption func(*BrowserCookies)

// WithCookieFetcher replaces the headless browser.
func WithCookieFetcher(fetch CookieFetcher) CookieOption {
	return func(c *BrowserCookies) {
		c.fetch = fetch
	}
}

// WithCookieDir sets where cookie files are written. It defaults to the
// system temp dir.
func WithCookieDir(dir string) CookieOption {
	return func(c *BrowserCookies) {
		c.dir = dir
	}
}

// BrowserCookies keeps a Netscape cookie file for yt-dlp, refreshed from a
// headless browser once it is older than the TTL.
type BrowserCookies struct {
	url    string
	ttl    time.Duration
	dir    string
	fetch  CookieFetcher
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	path      string
	fetchedAt time.Time
}

// NewBrowserCookies creates an empty cookie cache; nothing is fetched until
// File is called.
func NewBrowserCookies(settings config.YouTubeSettings, logger *zap.Logger, opts ...CookieOption) *BrowserCookies {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &BrowserCookies{
		url:    settings.CookieURL,
		ttl:    settings.CookieTTL,
		fetch:  fetchWithBrowser,
		logger: logger,
		now:    time.Now,
	}
	if c.url == "" {
		c.url = "https://www.youtube.com"
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// File returns the path of a fresh cookie file.
func (c *BrowserCookies) File(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.validLocked() {
		return c.path, nil
	}

	cookies, err := c.fetch(ctx, c.url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch cookies from %s: %w", c.url, err)
	}

	f, err := os.CreateTemp(c.dir, "cookies-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create cookie file: %w", err)
	}
	if err := writeNetscape(f, cookies); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write cookie file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write cookie file: %w", err)
	}

	c.removeLocked()
	c.path = f.Name()
	c.fetchedAt = c.now()
	c.logger.Info("cookies refreshed", zap.Int("cookies", len(cookies)), zap.String("file", c.path))
	return c.path, nil
}

// Valid reports whether the current cookie file can still be used.
func (c *BrowserCookies) Valid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validLocked()
}

func (c *BrowserCookies) validLocked() bool {
	if c.path == "" {
		return false
	}
	return c.ttl <= 0 || c.now().Sub(c.fetchedAt) < c.ttl
}

// Invalidate drops the cookie file so the next File call fetches again.
func (c *BrowserCookies) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked()
}

// Close removes the cookie file.
func (c *BrowserCookies) Close() error {
	c.Invalidate()
	return nil
}

func (c *BrowserCookies) removeLocked() {
	if c.path == "" {
		return
	}
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		c.logger.Warn("failed to remove cookie file", zap.String("file", c.path), zap.Error(err))
	}
	c.path = ""
	c.fetchedAt = time.Time{}
}

// writeNetscape writes cookies in the format yt-dlp reads with --cookies.
func writeNetscape(w io.Writer, cookies []*proto.NetworkCookie) error {
	var b strings.Builder
	b.WriteString("# Netscape HTTP Cookie File\n")
	for _, ck := range cookies {
		if ck == nil || ck.Name == "" {
			continue
		}
		var expires int64
		if ck.Expires > 0 {
			expires = ck.Expires.Time().Unix()
		}
		fmt.Fprintf(&b, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			ck.Domain,
			netscapeBool(strings.HasPrefix(ck.Domain, ".")),
			ck.Path,
			netscapeBool(ck.Secure),
			expires,
			ck.Name,
			ck.Value,
		)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func netscapeBool(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

// fetchWithBrowser visits url in a headless Chromium.
func fetchWithBrowser(ctx context.Context, url string) ([]*proto.NetworkCookie, error) {
	l := launcher.New().Context(ctx).Headless(true)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	defer l.Cleanup()
	defer l.Kill()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", url, err)
	}

	return browser.GetCookies()
}
