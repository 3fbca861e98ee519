package metadata

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"partybot/internal/config"
	"partybot/internal/game"

	"go.uber.org/zap"
)

const resolveTimeout = 30 * time.Second

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ResolverOption configures a YTDLPResolver.
type ResolverOption func(*YTDLPResolver)

// WithRunner replaces process execution.
func WithRunner(run Runner) ResolverOption {
	return func(r *YTDLPResolver) {
		r.run = run
	}
}

type cookieSource interface {
	File(ctx context.Context) (string, error)
	Invalidate()
}

// YTDLPResolver finds a playable audio stream for a song with yt-dlp's
// YouTube search.
type YTDLPResolver struct {
	path    string
	cookies cookieSource
	run     Runner
	logger  *zap.Logger
}

var _ game.URLResolver = (*YTDLPResolver)(nil)

// NewYTDLPResolver creates a resolver. cookies may be nil.
func NewYTDLPResolver(settings config.YouTubeSettings, cookies *BrowserCookies, logger *zap.Logger, opts ...ResolverOption) *YTDLPResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &YTDLPResolver{
		path:   settings.YTDLPPath,
		run:    runCommand,
		logger: logger,
	}
	if r.path == "" {
		r.path = "yt-dlp"
	}
	if cookies != nil {
		r.cookies = cookies
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolvePlayableURL searches for "<title> <artists> lyrics" and returns the
// best audio stream of the first hit.
func (r *YTDLPResolver) ResolvePlayableURL(ctx context.Context, title string, artists []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()

	query := searchQuery(title, artists)
	args := []string{"--quiet", "--no-playlist", "--format", "bestaudio/best", "--get-url"}

	withCookies := false
	if r.cookies != nil {
		file, err := r.cookies.File(ctx)
		if err != nil {
			r.logger.Warn("resolving without cookies", zap.Error(err))
		} else {
			args = append(args, "--cookies", file)
			withCookies = true
		}
	}
	args = append(args, "ytsearch1:"+query)

	out, err := r.run(ctx, r.path, args...)
	if err != nil {
		if withCookies {
			// stale cookies are the usual cause; fetch new ones next time
			r.cookies.Invalidate()
		}
		return "", fmt.Errorf("yt-dlp failed for %q: %w", query, err)
	}

	url := firstURL(out)
	if url == "" {
		return "", fmt.Errorf("%w for %q", ErrNoResults, query)
	}
	r.logger.Debug("resolved song", zap.String("query", query))
	return url, nil
}

func searchQuery(title string, artists []string) string {
	parts := append([]string{strings.TrimSpace(title)}, artists...)
	parts = append(parts, "lyrics")
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func firstURL(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			return line
		}
	}
	return ""
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		return out, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
	}
	return out, err
}
