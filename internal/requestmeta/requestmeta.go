// Package requestmeta captures where a request came from: the caller's
// network address and its declared client label (User-Agent). Security and
// activity audit events record both.
package requestmeta

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

// Origin is the network origin of a caller.
type Origin struct {
	IPAddress   string
	ClientLabel string
}

type contextKeyOrigin struct{}

// FromRequest reads the origin of r.
func FromRequest(r *http.Request) Origin {
	return Origin{
		IPAddress:   ClientIPFromRequest(r),
		ClientLabel: r.Header.Get("User-Agent"),
	}
}

// WithOrigin stores o in ctx for services further down the call chain.
func WithOrigin(ctx context.Context, o Origin) context.Context {
	return context.WithValue(ctx, contextKeyOrigin{}, o)
}

// FromContext returns the origin stored by WithOrigin, or the zero Origin.
func FromContext(ctx context.Context) Origin {
	if o, ok := ctx.Value(contextKeyOrigin{}).(Origin); ok {
		return o
	}
	return Origin{}
}

// ClientIPFromRequest extracts the real client IP from the request, handling proxies and load balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...);
	// the first one is the original client
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	if r.RemoteAddr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Client is a parsed client label.
type Client struct {
	Browser string
	OS      string
	Bot     bool
}

// ParseClient parses a User-Agent style label. An empty label yields the
// zero Client.
func ParseClient(label string) Client {
	if strings.TrimSpace(label) == "" {
		return Client{}
	}
	ua := useragent.New(label)
	name, version := ua.Browser()
	browser := name
	if version != "" {
		browser = name + " " + version
	}
	return Client{
		Browser: browser,
		OS:      ua.OS(),
		Bot:     ua.Bot(),
	}
}
