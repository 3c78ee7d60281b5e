package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type Connection interface {
	Request(ctx context.Context, endpoint *url.URL) (*http.Response, error)
}

type ClientHost struct {
	client *http.Client
	scheme string
	host   string
}

type Client struct {
	Connection Connection
	ApiKey     string
}

func (conn *ClientHost) Request(ctx context.Context, endpoint *url.URL) (*http.Response, error) {
	endpoint.Scheme = conn.scheme
	endpoint.Host = conn.host

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("error building request for %s: %w", endpoint.Path, err)
	}

	res, err := conn.client.Do(req)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		res.Body.Close()
		return nil, fmt.Errorf("unexpected status %d from %s", res.StatusCode, conn.host)
	}

	return res, nil
}

func ClientFactory(host string, apiKey string, timeout time.Duration) *Client {
	return ClientFactoryWithScheme("https", host, apiKey, timeout)
}

// ClientFactoryWithScheme is used when the host is not served over https, ie a local test server
func ClientFactoryWithScheme(scheme, host, apiKey string, timeout time.Duration) *Client {
	client := &http.Client{
		Timeout: timeout,
	}

	clientHost := &ClientHost{
		client: client,
		scheme: scheme,
		host:   host,
	}

	return &Client{
		Connection: clientHost,
		ApiKey:     apiKey,
	}
}
