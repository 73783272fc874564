package nuget

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	neturl "net/url"
	"os"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/refasm/pkg/domain/interfaces"
	"github.com/m-mizutani/refasm/pkg/domain/model"
	"github.com/m-mizutani/refasm/pkg/domain/types"
	"go.bug.st/downloader/v2"
)

// DefaultFeedURL is the package download endpoint of the NuGet v2 API
const DefaultFeedURL = "https://www.nuget.org/api/v2/package"

type config struct {
	feedURL      string
	token        string
	timeout      time.Duration
	pollInterval time.Duration
	httpClient   *http.Client
}

// Option is a functional option for Client configuration
type Option func(*config)

// WithFeedURL sets the package download endpoint
func WithFeedURL(url string) Option {
	return func(c *config) {
		c.feedURL = url
	}
}

// WithToken sets a bearer token sent with every request
func WithToken(token string) Option {
	return func(c *config) {
		c.token = token
	}
}

// WithTimeout sets the overall HTTP request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithPollInterval sets how often download progress is logged
func WithPollInterval(d time.Duration) Option {
	return func(c *config) {
		c.pollInterval = d
	}
}

// WithHTTPClient replaces the HTTP client. Redirects are followed according to its CheckRedirect.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.httpClient = client
	}
}

type client struct {
	cfg config
}

// NewClient creates a NuGet package registry client
func NewClient(opts ...Option) interfaces.PackageRegistry {
	cfg := config{
		feedURL:      DefaultFeedURL,
		pollInterval: time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: cfg.timeout}
	}
	cfg.feedURL = strings.TrimRight(cfg.feedURL, "/")
	if cfg.token != "" {
		base := cfg.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		var host string
		if u, err := neturl.Parse(cfg.feedURL); err == nil {
			host = u.Host
		}
		authClient := *cfg.httpClient
		authClient.Transport = &bearerTransport{base: base, token: cfg.token, host: host}
		cfg.httpClient = &authClient
	}

	return &client{cfg: cfg}
}

// PackageURL returns <feed>/<package id>/<version>
func (c *client) PackageURL(ref *model.PackageRef) string {
	return c.cfg.feedURL + "/" + ref.PackageID() + "/" + ref.Version
}

// Download streams the package archive into dst, replacing any existing file
func (c *client) Download(ctx context.Context, ref *model.PackageRef, dst string) (int64, error) {
	logger := ctxlog.From(ctx)
	url := c.PackageURL(ref)

	// A leftover archive from an earlier run must not be taken as complete
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, goerr.Wrap(err, "failed to remove stale archive", goerr.V("path", dst))
	}

	logger.Debug("Requesting package", "url", url, "dst", dst)

	d, err := downloader.DownloadWithConfigAndContext(ctx, dst, url, downloader.Config{
		HttpClient: *c.cfg.httpClient,
	})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to request package", goerr.V("url", url))
	}

	// The transfer size comes from the HEAD request. A HEAD answer that
	// declares an empty body (405 replies often do) makes the downloader
	// skip the copy, so the package is fetched with a plain GET instead.
	if d.Size() == 0 {
		_ = d.Close()
		_ = os.Remove(dst)
		logger.Debug("HEAD reported an empty package, retrying with GET", "url", url)
		return c.get(ctx, url, dst)
	}

	if !isSuccess(d.Resp.StatusCode) {
		_ = d.Close()
		_ = os.Remove(dst)
		return 0, goerr.Wrap(types.ErrUnexpectedStatus, "package download failed",
			goerr.V("url", url),
			goerr.V("status", d.Resp.StatusCode),
		)
	}

	size := d.Size()
	err = d.RunAndPoll(func(current int64) {
		logger.Debug("Downloading package",
			"package", ref.PackageID(),
			"downloaded_bytes", current,
			"total_bytes", size,
		)
	}, c.cfg.pollInterval)
	if err != nil {
		_ = os.Remove(dst)
		return 0, goerr.Wrap(err, "failed to download package", goerr.V("url", url), goerr.V("dst", dst))
	}

	if want := d.Resp.ContentLength; want >= 0 && d.Completed() != want {
		_ = os.Remove(dst)
		return 0, goerr.New("package download incomplete",
			goerr.V("url", url),
			goerr.V("downloaded_bytes", d.Completed()),
			goerr.V("content_length", want),
		)
	}

	return d.Completed(), nil
}

// get downloads url into dst with a single GET request
func (c *client) get(ctx context.Context, url, dst string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to create download request", goerr.V("url", url))
	}

	resp, err := c.cfg.httpClient.Do(req)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to request package", goerr.V("url", url))
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return 0, goerr.Wrap(types.ErrUnexpectedStatus, "package download failed",
			goerr.V("url", url),
			goerr.V("status", resp.StatusCode),
		)
	}

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to create archive file", goerr.V("path", dst))
	}

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return 0, goerr.Wrap(err, "failed to download package", goerr.V("url", url), goerr.V("dst", dst))
	}
	if err := f.Close(); err != nil {
		return 0, goerr.Wrap(err, "failed to close archive file", goerr.V("path", dst))
	}

	if resp.ContentLength >= 0 && n != resp.ContentLength {
		_ = os.Remove(dst)
		return 0, goerr.New("package download incomplete",
			goerr.V("url", url),
			goerr.V("downloaded_bytes", n),
			goerr.V("content_length", resp.ContentLength),
		)
	}

	return n, nil
}

// bearerTransport adds the feed token to requests for the feed host,
// including the HEAD request. Redirects to other hosts go without it.
type bearerTransport struct {
	base  http.RoundTripper
	token string
	host  string
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Host != t.host {
		return t.base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(req)
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
