package client

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/matzehuels/twill/pkg/cache"
	"github.com/matzehuels/twill/pkg/deserialize"
	"github.com/matzehuels/twill/pkg/errors"
	"github.com/matzehuels/twill/pkg/httputil"
	"github.com/matzehuels/twill/pkg/jsonapi"
	"github.com/matzehuels/twill/pkg/observability"
)

// Defaults applied by Options.SetDefaults.
const (
	DefaultTimeout    = 10 * time.Second
	DefaultAttempts   = 3
	DefaultRetryDelay = time.Second

	// maxBodySize bounds a response body read into memory.
	maxBodySize = 64 << 20
)

// RequestIDHeader carries a per-request UUID.
const RequestIDHeader = "X-Request-ID"

// Options configures a Client.
type Options struct {
	// URL is the API origin, e.g. "https://cms.example.com".
	URL string
	// Token is sent as a bearer token when set.
	Token string
	// UserAgent is sent when set.
	UserAgent string
	// Prefix and Version are appended to URL: URL + Prefix + "/" + Version.
	Prefix  string
	Version string

	// Cache stores raw responses. Nil disables caching.
	Cache cache.Cache
	// Keyer builds cache keys. Defaults to a keyer scoped to the token.
	Keyer cache.Keyer
	// CacheTTL is the lifetime of cached responses.
	CacheTTL time.Duration
	// Refresh bypasses cache reads; responses are still written.
	Refresh bool

	// Attempts and RetryDelay control retries of transient failures.
	Attempts   int
	RetryDelay time.Duration

	Logger     *log.Logger
	HTTPClient *http.Client
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.Cache == nil {
		o.Cache = cache.NewNullCache()
	}
	if o.Keyer == nil {
		o.Keyer = cache.NewDefaultKeyer()
		if o.Token != "" {
			o.Keyer = cache.NewScopedKeyer(o.Keyer, cache.TokenScope(o.Token))
		}
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = cache.TTLHTTP
	}
	if o.Attempts == 0 {
		o.Attempts = DefaultAttempts
	}
	if o.RetryDelay == 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
}

// Validate checks the connection settings.
func (o Options) Validate() error {
	if err := errors.ValidateURL(o.URL); err != nil {
		return err
	}
	if o.Version != "" && strings.Contains(o.Version, "/") {
		return errors.New(errors.ErrCodeInvalidConfig, "version must not contain '/': %q", o.Version)
	}
	return nil
}

// Client provides JSON:API access to one API.
// It handles caching, retry logic, and common request headers.
// A Client is safe for concurrent use.
type Client struct {
	base     *url.URL
	http     *http.Client
	cache    cache.Cache
	keyer    cache.Keyer
	ttl      time.Duration
	refresh  bool
	attempts int
	delay    time.Duration
	headers  map[string]string
	logger   *log.Logger
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.SetDefaults()

	raw := strings.TrimRight(opts.URL, "/") + opts.Prefix
	if opts.Version != "" {
		raw += "/" + opts.Version
	}
	base, err := url.Parse(raw + "/")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse base URL")
	}

	headers := map[string]string{"Accept": jsonapi.MediaType}
	if opts.Token != "" {
		headers["Authorization"] = "Bearer " + opts.Token
	}
	if opts.UserAgent != "" {
		headers["User-Agent"] = opts.UserAgent
	}

	return &Client{
		base:     base,
		http:     opts.HTTPClient,
		cache:    opts.Cache,
		keyer:    opts.Keyer,
		ttl:      opts.CacheTTL,
		refresh:  opts.Refresh,
		attempts: opts.Attempts,
		delay:    opts.RetryDelay,
		headers:  headers,
		logger:   opts.Logger,
	}, nil
}

// BaseURL returns URL + Prefix + "/" + Version.
func (c *Client) BaseURL() string {
	return strings.TrimSuffix(c.base.String(), "/")
}

// Headers returns a copy of the default request headers.
func (c *Client) Headers() map[string]string {
	return maps.Clone(c.headers)
}

// Get returns a query for path. Relative paths resolve against the base URL;
// absolute URLs, such as links taken from a document, are used as is.
func (c *Client) Get(path string) *Query {
	q := &Query{client: c}
	if err := errors.ValidatePath(path); err != nil {
		q.err = err
		return q
	}
	q.target, q.err = c.resolve(path)
	return q
}

// Find returns a query for the collection of resource.
func (c *Client) Find(resource string) *Query {
	if err := errors.ValidateMemberName(resource); err != nil {
		return &Query{client: c, err: err}
	}
	return c.Get(resource)
}

// FindOne returns a query for one resource by id.
func (c *Client) FindOne(resource, id string) *Query {
	if err := errors.ValidateMemberName(resource); err != nil {
		return &Query{client: c, err: err}
	}
	if err := errors.ValidateResourceID(id); err != nil {
		return &Query{client: c, err: err}
	}
	return c.Get(resource + "/" + url.PathEscape(id))
}

// FindRelated returns a query for the related link of relationship name on
// raw, or nil when the link is missing.
func (c *Client) FindRelated(name string, raw *jsonapi.RawResource) *Query {
	if raw == nil {
		return nil
	}
	return c.link(raw.Relationships[name].Links.Related())
}

// FindRelationship returns a query for the self link of relationship name on
// raw, or nil when the link is missing.
func (c *Client) FindRelationship(name string, raw *jsonapi.RawResource) *Query {
	if raw == nil {
		return nil
	}
	return c.link(raw.Relationships[name].Links.Self())
}

// RelatedOf returns a query for the related link of relationship name on a
// materialized resource. The links are only present when the document was
// transformed with relationship links enabled; nil otherwise.
func (c *Client) RelatedOf(r jsonapi.Resource, name string) *Query {
	links, _ := r[name+deserialize.LinksSuffix].(jsonapi.Links)
	return c.link(links.Related())
}

// Next returns a query for the next page of doc, or nil on the last page.
func (c *Client) Next(doc *jsonapi.Document) *Query {
	if doc == nil {
		return nil
	}
	return c.link(doc.Links["next"])
}

func (c *Client) link(href string) *Query {
	if href == "" {
		return nil
	}
	return c.Get(href)
}

func (c *Client) resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "parse path %q", path)
	}
	if ref.IsAbs() {
		return ref, nil
	}
	// "/posts" resolves against the host root, "posts" against the base URL.
	return c.base.ResolveReference(ref), nil
}

// fetch returns the body at rawURL, from the cache when possible.
func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	key := c.keyer.HTTPKey(c.base.Host, rawURL)
	if !c.refresh {
		if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
			c.logger.Debug("cache hit", "url", rawURL)
			return data, nil
		} else if err != nil {
			c.logger.Warn("cache read failed", "error", err)
		}
	}

	var body []byte
	err := httputil.Retry(ctx, c.attempts, c.delay, func() error {
		b, err := c.doRequest(ctx, rawURL)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		var re *httputil.RetryableError
		if stderrors.As(err, &re) {
			return nil, re.Err
		}
		return nil, err
	}

	if err := c.cache.Set(ctx, key, body, c.ttl); err != nil {
		c.logger.Warn("cache write failed", "error", err)
	}
	return body, nil
}

func (c *Client) doRequest(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, http.MethodGet, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, host, path, err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", rawURL))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	hooks.OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))
	c.logger.Debug("api request",
		"url", rawURL,
		"status", resp.StatusCode,
		"request_id", reqID,
		"duration", time.Since(start))
	if err != nil {
		return nil, httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "read %s", rawURL))
	}

	if err := checkStatus(resp, body, rawURL); err != nil {
		return nil, err
	}
	return body, nil
}

func checkStatus(resp *http.Response, body []byte, rawURL string) error {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return nil
	}
	msg := fmt.Sprintf("GET %s: status %d", rawURL, code)
	if detail := apiErrors(body); detail != "" {
		msg += ": " + detail
	}

	switch {
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "%s", msg)
	case code == http.StatusUnauthorized:
		return errors.New(errors.ErrCodeUnauthorized, "%s", msg)
	case code == http.StatusForbidden:
		return errors.New(errors.ErrCodeForbidden, "%s", msg)
	case code == http.StatusTooManyRequests:
		after := httputil.ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		return &httputil.RetryableError{
			Err:   &errors.RateLimitedError{RetryAfter: int(after / time.Second), Message: msg},
			After: after,
		}
	case code >= 500:
		return httputil.Retryable(errors.New(errors.ErrCodeNetwork, "%s", msg))
	default:
		return errors.New(errors.ErrCodeAPI, "%s", msg)
	}
}

// apiErrors extracts the messages of a JSON:API errors array from body.
func apiErrors(body []byte) string {
	var doc struct {
		Errors []jsonapi.ErrorObject `json:"errors"`
	}
	if err := json.Unmarshal(body, &doc); err != nil || len(doc.Errors) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(doc.Errors))
	for _, e := range doc.Errors {
		msgs = append(msgs, e.String())
	}
	return strings.Join(msgs, "; ")
}
