package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/calcws/calcws-go/pkg/interfaces"
	"github.com/calcws/calcws-go/protocols/tcp"
	"github.com/calcws/calcws-go/protocols/websocket"
	"github.com/calcws/calcws-go/utils"
)

// Config is the client configuration, loaded via viper in cmd.
type Config struct {
	Endpoint     string        `mapstructure:"endpoint"`      // ws(s):// URL, or host:port for tcp
	Transport    string        `mapstructure:"transport"`     // websocket | tcp
	SetupTimeout time.Duration `mapstructure:"setup_timeout"` // bounds the dial and each exchange
	MaxAttempts  int           `mapstructure:"max_attempts"`
	BackoffUnit  time.Duration `mapstructure:"backoff_unit"` // base of the 2^attempt backoff

	Logging struct {
		Level   string   `mapstructure:"level"`
		Outputs []string `mapstructure:"outputs"`
	} `mapstructure:"logging"`
}

func (c *Config) applyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "ws://localhost:8765"
	}
	if c.Transport == "" {
		c.Transport = "websocket"
	}
	if c.SetupTimeout <= 0 {
		c.SetupTimeout = 10 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BackoffUnit <= 0 {
		c.BackoffUnit = time.Second
	}
}

// ConnState is the client's connection state.
type ConnState string

const (
	StateUnknown      ConnState = "unknown"
	StateConnecting   ConnState = "connecting"
	StateIdle         ConnState = "idle"
	StateDisconnected ConnState = "disconnected"
)

// Status is a snapshot of the client's connection state.
type Status struct {
	State            ConnState
	ConnectionStatus string
}

// Client performs the add RPC against a single long-lived duplex
// connection. It owns at most one live transport at a time, renews it
// transparently, and retries transport faults with exponential backoff.
// Calls on one Client are serialized internally; one exchange is in
// flight at a time.
type Client struct {
	config     Config
	transport  interfaces.TransportProtocol
	state      ConnState
	stateMutex sync.RWMutex
	callMutex  sync.Mutex
	logger     *slog.Logger
}

func NewClient(cfg Config, log *slog.Logger) (*Client, error) {
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}
	cfg.applyDefaults()

	return &Client{
		config: cfg,
		state:  StateUnknown,
		logger: log,
	}, nil
}

// NewProtocol 根据配置创建对应的协议实例
func NewProtocol(config Config) (interfaces.TransportProtocol, error) {
	switch config.Transport {
	case "websocket":
		return websocket.NewWebSocketProtocol(websocket.Config{
			Endpoint:     config.Endpoint,
			SetupTimeout: config.SetupTimeout,
		})
	case "tcp":
		return tcp.NewTCPProtocol(tcp.Config{
			Endpoint:     config.Endpoint,
			SetupTimeout: config.SetupTimeout,
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProtocol, config.Transport)
	}
}

// Connect eagerly establishes the connection. Optional: Add connects on
// demand; this exists so an interactive session can fail fast on startup.
func (c *Client) Connect(ctx context.Context) error {
	c.callMutex.Lock()
	defer c.callMutex.Unlock()
	return c.ensureActive(ctx)
}

// connect replaces the transport with a freshly dialed one. Does not
// retry — the retry policy lives in Add. Callers hold callMutex.
func (c *Client) connect(ctx context.Context) error {
	c.setState(StateConnecting)
	c.logger.Info("Connecting to server",
		"endpoint", c.config.Endpoint,
		"transport", c.config.Transport)

	transport, err := NewProtocol(c.config)
	if err != nil {
		c.setState(StateUnknown)
		return err
	}

	if err := transport.Connect(ctx); err != nil {
		c.setState(StateUnknown)
		c.logger.Error("Failed to connect to server", "error", err)
		return err
	}

	c.transport = transport
	c.setState(StateIdle)
	c.logger.Info("Connected to server successfully")
	return nil
}

// ensureActive is a no-op while the current handle is live; otherwise it
// replaces the handle with a fresh connection. Callers hold callMutex.
func (c *Client) ensureActive(ctx context.Context) error {
	if c.transport != nil && c.transport.Alive() {
		return nil
	}
	if c.transport != nil {
		c.logger.Warn("Connection lost or not open, reconnecting")
		c.discardTransport()
	}
	return c.connect(ctx)
}

// discardTransport closes and drops the current handle so the next
// attempt dials a new one. Callers hold callMutex.
func (c *Client) discardTransport() {
	if c.transport == nil {
		return
	}
	if err := c.transport.Close(); err != nil {
		c.logger.Debug("Error closing stale connection", "error", err)
	}
	c.transport = nil
	c.setState(StateDisconnected)
}

// Add asks the peer to add a and b over the persistent connection.
// Transport faults are retried up to MaxAttempts with 2^attempt backoff;
// protocol and server faults terminate the call immediately.
func (c *Client) Add(ctx context.Context, a, b float64) (float64, error) {
	if err := validateOperand(a); err != nil {
		return 0, err
	}
	if err := validateOperand(b); err != nil {
		return 0, err
	}

	payload, err := encodeAddRequest(a, b)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	c.callMutex.Lock()
	defer c.callMutex.Unlock()

	backoff := utils.NewExponentialBackoff(c.config.BackoffUnit, 0)
	var lastErr error

	for attempt := 0; attempt < c.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := backoff.NextDelay()
			c.logger.Debug("Backing off before retry", "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				c.discardTransport()
				return 0, fmt.Errorf("call canceled: %w", ctx.Err())
			}
		}

		result, err := c.attempt(ctx, payload)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			c.discardTransport()
			return 0, fmt.Errorf("call canceled: %w", ctx.Err())
		}
		if !errors.Is(err, ErrConnectionFailed) {
			c.logger.Error("Non-retryable error", "error", err)
			return 0, err
		}

		lastErr = err
		c.logger.Warn("Attempt failed", "attempt", attempt+1, "error", err)
		c.discardTransport()
	}

	// The loop records a transient error on every failed attempt, so the
	// nil case is unreachable; keep the fallback explicit anyway.
	if lastErr == nil {
		return 0, fmt.Errorf("%w after %d attempts", ErrConnectionFailed, c.config.MaxAttempts)
	}
	return 0, fmt.Errorf("%w after %d attempts: %v", ErrConnectionFailed, c.config.MaxAttempts, lastErr)
}

// attempt performs one complete exchange: ensure a live handle, send the
// request, await exactly one response, all bounded by SetupTimeout.
func (c *Client) attempt(ctx context.Context, payload []byte) (float64, error) {
	if err := c.ensureActive(ctx); err != nil {
		return 0, err
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.config.SetupTimeout)
	defer cancel()

	c.logger.Debug("Sending request", "payload", string(payload))
	if err := c.transport.Send(payload, interfaces.MsgText); err != nil {
		return 0, fmt.Errorf("%w: send: %v", ErrConnectionFailed, err)
	}

	select {
	case msg, ok := <-c.transport.Receive():
		if !ok {
			return 0, fmt.Errorf("%w: connection closed while awaiting response", ErrConnectionFailed)
		}
		c.logger.Debug("Received response", "payload", string(msg.Payload))
		return decodeResponse(msg.Payload)
	case <-attemptCtx.Done():
		return 0, fmt.Errorf("%w: no response within %s", ErrConnectionFailed, c.config.SetupTimeout)
	}
}

// GetStatus 获取当前状态
func (c *Client) GetStatus() Status {
	c.stateMutex.RLock()
	defer c.stateMutex.RUnlock()

	connStatus := "disconnected"
	if c.transport != nil && c.transport.Alive() {
		connStatus = "connected"
	}

	return Status{
		State:            c.state,
		ConnectionStatus: connStatus,
	}
}

// GetState 获取当前连接状态
func (c *Client) GetState() ConnState {
	c.stateMutex.RLock()
	defer c.stateMutex.RUnlock()
	return c.state
}

func (c *Client) setState(newState ConnState) {
	c.stateMutex.Lock()
	defer c.stateMutex.Unlock()

	if c.state != newState {
		c.logger.Info("State changed", "from", c.state, "to", newState)
		c.state = newState
	}
}

// Close shuts down the current connection if present. Safe to call more
// than once; subsequent calls are no-ops.
func (c *Client) Close() error {
	c.callMutex.Lock()
	defer c.callMutex.Unlock()

	if c.transport == nil {
		return nil
	}

	c.logger.Info("Closing client connection")
	err := c.transport.Close()
	c.transport = nil
	c.setState(StateDisconnected)
	if err != nil {
		c.logger.Error("Failed to close connection", "error", err)
		return err
	}
	c.logger.Info("Client closed successfully")
	return nil
}
