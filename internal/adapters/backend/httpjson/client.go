// Package httpjson ships metric batches to the ingestion endpoint as
// gzipped JSON requests.
package httpjson

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/mkraev/metricflow/internal/domain"
	"github.com/mkraev/metricflow/internal/misc"
	"github.com/mkraev/metricflow/internal/ports"
)

// Client posts batches to POST <base>/ingest. Transient failures retry on a
// bounded backoff; the emitter core above it never retries.
type Client struct {
	key  string
	base *url.URL
	hc   *http.Client
}

var _ ports.BackendClient = (*Client)(nil)

var (
	gzipWriterPool = sync.Pool{
		New: func() any {
			return gzip.NewWriter(io.Discard)
		},
	}
	bufferPool = misc.NewPool[*bytes.Buffer](func() *bytes.Buffer {
		return new(bytes.Buffer)
	})
)

// New normalizes the base address and returns a ready Client. An empty key
// disables the body hash header.
func New(serverAddr string, hc *http.Client, key string) (*Client, error) {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	u, err := url.Parse(normalizeBase(serverAddr))
	if err != nil {
		return nil, err
	}
	return &Client{base: u, hc: hc, key: strings.TrimSpace(key)}, nil
}

func normalizeBase(s string) string {
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return strings.TrimRight(s, "/")
	}
	return "http://" + strings.TrimRight(s, "/")
}

func (c *Client) endpoint(path string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

// SendBatch posts one batch. Called with at most the emitter's batch cap of
// records and never with zero.
func (c *Client) SendBatch(ctx context.Context, namespace string, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	return c.doGzJSON(ctx, "/ingest", domain.Batch{Namespace: namespace, Records: records})
}

func (c *Client) doGzJSON(ctx context.Context, path string, payload any) (retErr error) {
	plain, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	var hashHeader string
	if c.key != "" {
		hashHeader = misc.SumSHA256(plain, c.key)
	}

	gzBody, release, err := gzipBytes(plain)
	if err != nil {
		return err
	}
	defer release()

	resp, err := c.sendWithRetry(ctx, func() (*http.Request, error) {
		return c.newGzJSONRequest(ctx, path, gzBody, hashHeader)
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close response body: %w", cerr)
		}
	}()

	if err := drainAndDiscard(resp); err != nil {
		return err
	}
	return checkHTTPStatus(resp)
}

type httpStatusError struct {
	code int
	msg  string
}

func (e *httpStatusError) Error() string {
	return e.msg
}

func isRetryableHTTP(err error) bool {
	if err == nil {
		return false
	}
	var se *httpStatusError
	if errors.As(err, &se) {
		switch se.code {
		case http.StatusBadGateway, http.StatusServiceUnavailable,
			http.StatusGatewayTimeout, http.StatusTooManyRequests:
			return true
		default:
			return false
		}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

func gzipBytes(src []byte) (body []byte, release func(), err error) {
	buf := bufferPool.Get()
	zw := gzipWriterPool.Get().(*gzip.Writer)
	zw.Reset(buf)

	putBack := func() {
		gzipWriterPool.Put(zw)
		bufferPool.Put(buf)
	}
	if _, err := zw.Write(src); err != nil {
		_ = zw.Close()
		putBack()
		return nil, nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		putBack()
		return nil, nil, fmt.Errorf("gzip close: %w", err)
	}
	gzipWriterPool.Put(zw)
	return buf.Bytes(), func() { bufferPool.Put(buf) }, nil
}

func (c *Client) newGzJSONRequest(ctx context.Context, path string, body []byte, hashHeader string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	if hashHeader != "" {
		req.Header.Set("HashSHA256", hashHeader)
	}
	return req, nil
}

func (c *Client) sendWithRetry(ctx context.Context, mkReq func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	op := func() error {
		req, err := mkReq()
		if err != nil {
			return err
		}
		r, err := c.hc.Do(req)
		resp = r
		return err
	}
	if err := misc.Retry(ctx, misc.DefaultBackoff, isRetryableHTTP, op); err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	return resp, nil
}

func drainAndDiscard(resp *http.Response) error {
	var r io.Reader = resp.Body
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Encoding")), "gzip") {
		gr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("bad gzip: %w", err)
		}
		defer func() {
			_ = gr.Close()
		}()
		r = gr
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return fmt.Errorf("drain body: %w", err)
	}
	return nil
}

func checkHTTPStatus(resp *http.Response) error {
	if resp.StatusCode != http.StatusOK {
		return &httpStatusError{code: resp.StatusCode, msg: fmt.Sprintf("server status: %s", resp.Status)}
	}
	return nil
}
