package utils

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

func IsValidURL(s string) bool {
	if s == "" {
		return false
	}
	if !strings.Contains(s, "://") {
		host, port, err := net.SplitHostPort(s)
		return err == nil && host != "" && port != ""
	}
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// ValidateURL normalizes s into host:port when a port is given, otherwise
// into a url with an http(s) scheme.
func ValidateURL(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("url is empty")
	}

	if !strings.Contains(s, "://") {
		if host, port, err := net.SplitHostPort(s); err == nil && host != "" && port != "" {
			return s, nil
		}
		s = "http://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %s", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host")
	}
	if u.Port() != "" {
		return u.Host, nil
	}
	return fmt.Sprintf("%s://%s", u.Scheme, u.Host), nil
}
