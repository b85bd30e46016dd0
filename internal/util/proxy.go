package util

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// NewProxyFunc returns the transport proxy for outbound collaborators.
// An empty proxy falls back to the HTTP(S)_PROXY environment variables.
func NewProxyFunc(proxy string) (func(*http.Request) (*url.URL, error), error) {
	if proxy == "" {
		return http.ProxyFromEnvironment, nil
	}

	u, err := url.Parse(proxy)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("proxy url %q needs a scheme and host", proxy)
	}
	return http.ProxyURL(u), nil
}

// NewHTTPClient builds a client with the given timeout and proxy.
func NewHTTPClient(timeout time.Duration, proxy string) (*http.Client, error) {
	proxyFunc, err := NewProxyFunc(proxy)
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &http.Transport{Proxy: proxyFunc},
	}, nil
}
