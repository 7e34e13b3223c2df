package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	ConnectTimeout = 3000 * time.Millisecond
	ReadTimeout    = 5000 * time.Millisecond
)

type Status int

const (
	StatusSent Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSent:
		return "sent"
	case StatusSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Request is one payload addressed to a collector endpoint.
type Request struct {
	Address string
	AppName string
	Target  string
	Payload []byte
}

type Client struct {
	httpClient *http.Client
}

func NewClient() *Client {
	dialer := &net.Dialer{
		Timeout:   ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   ConnectTimeout,
		ResponseHeaderTimeout: ReadTimeout,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   2,
	}
	return &Client{
		httpClient: &http.Client{Transport: tr},
	}
}

// Send pushes the payload to req.Address. An empty target or payload is
// skipped without contacting the collector. There is no retry.
func (c *Client) Send(ctx context.Context, req Request) (Status, error) {
	if req.Target == "" || len(req.Payload) == 0 {
		logrus.WithField("target", req.Target).Trace("nothing to deliver")
		return StatusSkipped, nil
	}

	ctx, cancel := context.WithTimeout(ctx, ConnectTimeout+ReadTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.Address, bytes.NewReader(req.Payload))
	if err != nil {
		return StatusFailed, fmt.Errorf("could not build request: %w", err)
	}
	httpReq.Header.Set("accept", "*/*")
	httpReq.Header.Set("connection", "Keep-Alive")
	httpReq.Header.Set("appName", req.AppName)
	httpReq.Header.Set("targetName", req.Target)

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return StatusFailed, fmt.Errorf("request to %s failed: %w", req.Address, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return StatusFailed, fmt.Errorf("could not read response: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"target": req.Target,
		"status": res.StatusCode,
	}).Tracef("collector response: %s", body)

	if res.StatusCode >= http.StatusBadRequest {
		return StatusFailed, fmt.Errorf("collector returned status: %s", res.Status)
	}
	return StatusSent, nil
}

// CloseIdleConnections releases pooled connections.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}
