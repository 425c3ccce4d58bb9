// Package webhook delivers the end-of-job notification.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptrace"
	"sync"
	"time"

	"github.com/use-agent/courtsched/config"
	"github.com/use-agent/courtsched/models"
)

// SignatureHeader carries "sha256=<hex>" when a secret is configured.
const SignatureHeader = "X-Courtsched-Signature"

var errPoolTimeout = errors.New("webhook: timed out waiting for a connection")

// Notifier posts job notifications to a single endpoint. One attempt per
// notification; failures are returned, never retried.
type Notifier struct {
	url    string
	secret string
	pool   time.Duration
	client *http.Client
}

// NewNotifier builds a notifier whose transport enforces the connect, read,
// write and pool timeouts of cfg.
func NewNotifier(cfg config.NotifyConfig) *Notifier {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return &deadlineConn{Conn: conn, read: cfg.ReadTimeout, write: cfg.WriteTimeout}, nil
		},
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		ExpectContinueTimeout: time.Second,
		MaxIdleConns:          4,
		IdleConnTimeout:       90 * time.Second,
	}

	return &Notifier{
		url:    cfg.URL,
		secret: cfg.Secret,
		pool:   cfg.PoolTimeout + cfg.ConnectTimeout,
		client: &http.Client{Transport: transport},
	}
}

// Enabled reports whether an endpoint is configured.
func (n *Notifier) Enabled() bool { return n.url != "" }

// Notify sends one notification. Without a configured endpoint it logs and
// returns nil. Errors are *models.Error with code ErrCodeNotification.
func (n *Notifier) Notify(ctx context.Context, msg *models.Notification) error {
	if !n.Enabled() {
		slog.Info("notification skipped: no endpoint configured", "job_id", msg.JobID, "status", msg.Status)
		return nil
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return models.NewError(models.ErrCodeNotification, "marshal notification", err)
	}

	ctx, release := n.boundPoolWait(ctx)
	defer release()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return models.NewError(models.ErrCodeNotification, "create notification request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Courtsched-Webhook/1.0")
	if n.secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(n.secret, body))
	}

	start := time.Now()
	resp, err := n.client.Do(req)
	if err != nil {
		if cause := context.Cause(ctx); errors.Is(cause, errPoolTimeout) {
			err = cause
		}
		return models.NewError(models.ErrCodeNotification, "deliver notification", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.NewError(models.ErrCodeNotification,
			fmt.Sprintf("endpoint returned status %d", resp.StatusCode), nil)
	}

	slog.Info("notification delivered",
		"job_id", msg.JobID,
		"status", msg.Status,
		"elapsed", time.Since(start),
	)
	return nil
}

// boundPoolWait cancels the request when no connection, pooled or freshly
// dialled, is obtained within the pool timeout.
func (n *Notifier) boundPoolWait(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(ctx)
	if n.pool <= 0 {
		return ctx, func() { cancel(nil) }
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	stop := func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}
	trace := &httptrace.ClientTrace{
		GetConn: func(string) {
			mu.Lock()
			timer = time.AfterFunc(n.pool, func() { cancel(errPoolTimeout) })
			mu.Unlock()
		},
		GotConn: func(httptrace.GotConnInfo) { stop() },
	}
	return httptrace.WithClientTrace(ctx, trace), func() {
		stop()
		cancel(nil)
	}
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// deadlineConn refreshes a per-operation deadline before every read and
// write, so a stalled peer fails the request instead of hanging it.
type deadlineConn struct {
	net.Conn
	read  time.Duration
	write time.Duration
}

func (c *deadlineConn) Read(b []byte) (int, error) {
	if c.read > 0 {
		_ = c.Conn.SetReadDeadline(time.Now().Add(c.read))
	}
	return c.Conn.Read(b)
}

func (c *deadlineConn) Write(b []byte) (int, error) {
	if c.write > 0 {
		_ = c.Conn.SetWriteDeadline(time.Now().Add(c.write))
	}
	return c.Conn.Write(b)
}
