// Package pmxt is a client for the pmxt server, a local process that
// normalizes prediction-market exchanges behind one HTTP API.
//
// An Exchange proxies every call to the server. Unless disabled, New makes
// sure a server is running first and picks up the port and access token it
// recorded in its lock file.
package pmxt

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/pmxt-go/pkg/cache"
	"github.com/mselser95/pmxt-go/pkg/sidecar"
	"github.com/mselser95/pmxt-go/pkg/types"
)

// Exchange names understood by the server.
const (
	ExchangePolymarket = "polymarket"
	ExchangeKalshi     = "kalshi"
	ExchangeKalshiDemo = "kalshi-demo"
	ExchangeLimitless  = "limitless"
	ExchangeProbable   = "probable"
	ExchangeBaozi      = "baozi"
	ExchangeMyriad     = "myriad"
)

const (
	// DefaultRequestTimeout bounds a single sidecar call.
	DefaultRequestTimeout = 30 * time.Second

	tokenAttempts   = 5
	tokenRetryDelay = 100 * time.Millisecond
)

const installHint = "Please ensure 'pmxtjs' is installed: npm install -g pmxtjs\n" +
	"Or start the server manually: pmxt-server"

// Exchange is a handle to one exchange through the pmxt server.
type Exchange struct {
	name        string
	baseURL     string
	accessToken string
	creds       Credentials
	httpClient  *http.Client
	supervisor  *sidecar.Supervisor
	cache       cache.Cache
	ownsCache   bool
	logger      *zap.Logger

	mu      sync.RWMutex
	markets map[string]*types.UnifiedMarket
	loaded  bool
}

type options struct {
	baseURL     string
	creds       Credentials
	logger      *zap.Logger
	httpClient  *http.Client
	timeout     time.Duration
	supervisor  *sidecar.Supervisor
	autoStart   bool
	cache       cache.Cache
	accessToken string
}

// Option configures an Exchange.
type Option func(*options)

// WithBaseURL sets the server URL used before a lock file is found, or
// always when auto-start is off.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithCredentials sets the credentials forwarded to the server.
func WithCredentials(c Credentials) Option {
	return func(o *options) { o.creds = c }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHTTPClient replaces the HTTP client. WithTimeout is ignored when set.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithSupervisor uses s instead of a default Supervisor.
func WithSupervisor(s *sidecar.Supervisor) Option {
	return func(o *options) { o.supervisor = s }
}

// WithAutoStart controls whether New ensures the server is running.
// It defaults to true.
func WithAutoStart(on bool) Option {
	return func(o *options) { o.autoStart = on }
}

// WithCache sets the cache used for capability maps. The caller keeps
// ownership; Close does not close it.
func WithCache(c cache.Cache) Option {
	return func(o *options) { o.cache = c }
}

// WithAccessToken sets the access token instead of reading it from the
// lock file.
func WithAccessToken(token string) Option {
	return func(o *options) { o.accessToken = token }
}

// New creates a handle for the named exchange. With auto-start on, a
// server that cannot be started aborts construction.
func New(ctx context.Context, exchange string, opts ...Option) (*Exchange, error) {
	name := strings.ToLower(strings.TrimSpace(exchange))
	if name == "" {
		return nil, fmt.Errorf("exchange name cannot be empty")
	}

	o := &options{
		baseURL:   sidecar.DefaultBaseURL,
		autoStart: true,
		timeout:   DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if err := o.creds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", err)
	}

	e := &Exchange{
		name:        name,
		baseURL:     strings.TrimRight(o.baseURL, "/"),
		accessToken: o.accessToken,
		creds:       o.creds,
		httpClient:  o.httpClient,
		supervisor:  o.supervisor,
		cache:       o.cache,
		logger:      o.logger.With(zap.String("exchange", name)),
		markets:     make(map[string]*types.UnifiedMarket),
	}

	if e.httpClient == nil {
		e.httpClient = &http.Client{Timeout: o.timeout}
	}

	if e.cache == nil {
		c, err := cache.NewRistrettoCache(cache.DefaultRistrettoConfig(o.logger))
		if err != nil {
			return nil, fmt.Errorf("create capability cache: %w", err)
		}
		e.cache = c
		e.ownsCache = true
	}

	if o.autoStart {
		if err := e.startServer(ctx); err != nil {
			e.Close()
			return nil, err
		}
	}

	if e.accessToken == "" {
		e.accessToken = e.discoverAccessToken(ctx, o.autoStart)
	}

	e.logger.Debug("exchange-created",
		zap.String("base-url", e.baseURL),
		zap.Bool("auto-start", o.autoStart),
		zap.Bool("has-token", e.accessToken != ""),
		zap.Bool("has-credentials", !o.creds.IsZero()))

	return e, nil
}

// NewPolymarket creates a Polymarket handle.
func NewPolymarket(ctx context.Context, opts ...Option) (*Exchange, error) {
	return New(ctx, ExchangePolymarket, opts...)
}

// NewKalshi creates a Kalshi handle.
func NewKalshi(ctx context.Context, opts ...Option) (*Exchange, error) {
	return New(ctx, ExchangeKalshi, opts...)
}

// NewKalshiDemo creates a handle for the Kalshi demo environment.
func NewKalshiDemo(ctx context.Context, opts ...Option) (*Exchange, error) {
	return New(ctx, ExchangeKalshiDemo, opts...)
}

// NewLimitless creates a Limitless handle.
func NewLimitless(ctx context.Context, opts ...Option) (*Exchange, error) {
	return New(ctx, ExchangeLimitless, opts...)
}

// NewProbable creates a Probable handle.
func NewProbable(ctx context.Context, opts ...Option) (*Exchange, error) {
	return New(ctx, ExchangeProbable, opts...)
}

// NewBaozi creates a Baozi handle.
func NewBaozi(ctx context.Context, opts ...Option) (*Exchange, error) {
	return New(ctx, ExchangeBaozi, opts...)
}

// NewMyriad creates a Myriad handle.
func NewMyriad(ctx context.Context, opts ...Option) (*Exchange, error) {
	return New(ctx, ExchangeMyriad, opts...)
}

// Name returns the lower-cased exchange name.
func (e *Exchange) Name() string {
	return e.name
}

// BaseURL returns the server URL requests are sent to.
func (e *Exchange) BaseURL() string {
	return e.baseURL
}

// Supervisor returns the Supervisor in use, or nil when auto-start was off
// and none was given.
func (e *Exchange) Supervisor() *sidecar.Supervisor {
	return e.supervisor
}

// Close releases the capability cache when the handle created it. The
// server keeps running.
func (e *Exchange) Close() {
	if e.ownsCache && e.cache != nil {
		e.cache.Close()
	}
}

func (e *Exchange) startServer(ctx context.Context) error {
	if e.supervisor == nil {
		s, err := sidecar.New(&sidecar.Config{
			BaseURL: e.baseURL,
			Logger:  e.logger,
		})
		if err != nil {
			return fmt.Errorf("create supervisor: %w", err)
		}
		e.supervisor = s
	}

	if err := e.supervisor.EnsureRunning(ctx); err != nil {
		return fmt.Errorf("failed to start pmxt server: %w\n\n%s", err, installHint)
	}

	// The server may have bound another port than the one configured.
	e.baseURL = strings.TrimRight(e.supervisor.BaseURL(), "/")
	return nil
}

// discoverAccessToken reads the token from the lock file. Without a
// supervisor a default one is built for the read only; it never launches.
func (e *Exchange) discoverAccessToken(ctx context.Context, autoStarted bool) string {
	sup := e.supervisor
	if sup == nil {
		s, err := sidecar.New(&sidecar.Config{
			BaseURL: e.baseURL,
			Logger:  e.logger,
		})
		if err != nil {
			e.logger.Debug("access-token-lookup-skipped", zap.Error(err))
			return ""
		}
		sup = s
	}

	// A freshly launched server may write its lock file shortly after it
	// starts answering /health.
	attempts := 1
	if autoStarted {
		attempts = tokenAttempts
	}
	token := e.readAccessToken(ctx, sup, attempts)
	if token == "" && autoStarted {
		e.logger.Warn("access-token-not-found",
			zap.String("lock-path", sup.LockPath()))
	}
	return token
}

func (e *Exchange) readAccessToken(ctx context.Context, sup *sidecar.Supervisor, attempts int) string {
	for attempt := 0; attempt < attempts; attempt++ {
		if info, ok := sup.ServerInfo(); ok && info.AccessToken != "" {
			return info.AccessToken
		}
		if attempt == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ""
		case <-time.After(tokenRetryDelay):
		}
	}
	return ""
}
