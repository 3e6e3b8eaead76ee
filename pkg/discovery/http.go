package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	gocache "github.com/patrickmn/go-cache"
	"github.com/tidwall/gjson"

	"github.com/plexushq/plexus-registry-server/internal/httpclient"
)

const (
	// DefaultCacheTTL bounds how long a discovery response is served from
	// cache before the catalog is asked again.
	DefaultCacheTTL = 30 * time.Second

	// DefaultMaxTries caps retry attempts per catalog call.
	DefaultMaxTries = 3

	catalogPath = "/v1/catalog/services"
)

// HTTPBackend talks to a Consul-like service catalog over JSON:
//
//	PUT    /v1/catalog/services        register an instance
//	GET    /v1/catalog/services/{name} list instances of a service
//	DELETE /v1/catalog/services/{id}   remove an instance
//
// Transient failures are retried with exponential backoff inside the
// caller's deadline. Discovery responses are cached with a TTL so bursts of
// lookups for the same service do not hammer the catalog.
type HTTPBackend struct {
	endpoint string
	client   httpclient.Client
	cache    *gocache.Cache
	maxTries uint
}

var _ Backend = (*HTTPBackend)(nil)

// HTTPBackendOption configures an HTTPBackend.
type HTTPBackendOption func(*HTTPBackend)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client httpclient.Client) HTTPBackendOption {
	return func(b *HTTPBackend) {
		if client != nil {
			b.client = client
		}
	}
}

// WithCacheTTL sets the discovery cache TTL. A negative TTL disables the
// cache; zero keeps DefaultCacheTTL.
func WithCacheTTL(ttl time.Duration) HTTPBackendOption {
	return func(b *HTTPBackend) {
		switch {
		case ttl < 0:
			b.cache = nil
		case ttl > 0:
			b.cache = gocache.New(ttl, 2*ttl)
		}
	}
}

// WithMaxTries caps how many attempts each catalog call gets.
func WithMaxTries(tries uint) HTTPBackendOption {
	return func(b *HTTPBackend) {
		if tries > 0 {
			b.maxTries = tries
		}
	}
}

// NewHTTPBackend creates a backend for the catalog at endpoint, e.g.
// "http://consul.infra:8500".
func NewHTTPBackend(endpoint string, opts ...HTTPBackendOption) *HTTPBackend {
	b := &HTTPBackend{
		endpoint: endpoint,
		client:   httpclient.NewDefaultClient(0),
		cache:    gocache.New(DefaultCacheTTL, 2*DefaultCacheTTL),
		maxTries: DefaultMaxTries,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register publishes the instance to the catalog and returns the catalog's
// identifier for it. Registering invalidates any cached discovery result for
// the same service name.
func (b *HTTPBackend) Register(ctx context.Context, info ServiceInfo) (*Registration, error) {
	payload, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("encode service info: %w", err)
	}

	data, err := b.doRetry(ctx, http.MethodPut, b.endpoint+catalogPath, payload)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", info.Name, err)
	}

	if b.cache != nil {
		b.cache.Delete(info.Name)
	}

	id := gjson.GetBytes(data, "id").String()
	if id == "" {
		id = gjson.GetBytes(data, "service_id").String()
	}
	return &Registration{ID: id}, nil
}

// Discover lists the instances of a service. A 404 from the catalog is a
// clean miss: empty slice, nil error.
func (b *HTTPBackend) Discover(ctx context.Context, serviceName string) ([]InstanceMetadata, error) {
	if b.cache != nil {
		if cached, ok := b.cache.Get(serviceName); ok {
			if instances, ok := cached.([]InstanceMetadata); ok {
				return instances, nil
			}
		}
	}

	data, err := b.doRetry(ctx, http.MethodGet, b.endpoint+catalogPath+"/"+url.PathEscape(serviceName), nil)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return []InstanceMetadata{}, nil
		}
		return nil, fmt.Errorf("discover %s: %w", serviceName, err)
	}

	instances := parseInstances(data)
	if b.cache != nil {
		b.cache.Set(serviceName, instances, gocache.DefaultExpiration)
	}
	return instances, nil
}

// Deregister removes an instance by its catalog identifier. A 404 means the
// instance is already gone and is not an error. Cached discovery results are
// keyed by name, not id, so they age out by TTL instead.
func (b *HTTPBackend) Deregister(ctx context.Context, externalID string) error {
	_, err := b.doRetry(ctx, http.MethodDelete, b.endpoint+catalogPath+"/"+url.PathEscape(externalID), nil)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("deregister %s: %w", externalID, err)
	}
	return nil
}

// doRetry runs one catalog call with bounded exponential backoff. Client
// errors other than 429 are permanent; everything else is worth another try
// until the attempt cap or the caller's deadline is hit.
func (b *HTTPBackend) doRetry(ctx context.Context, method, callURL string, body []byte) ([]byte, error) {
	operation := func() ([]byte, error) {
		data, err := b.client.Do(ctx, method, callURL, body)
		if err != nil {
			var httpErr *httpclient.HTTPError
			if errors.As(err, &httpErr) && !retryableStatus(httpErr.StatusCode) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return data, nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 100 * time.Millisecond
	expo.MaxInterval = 2 * time.Second

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(b.maxTries),
	)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// parseInstances reads catalog responses without insisting on one exact
// schema. The catalog may return a bare array or wrap it in "instances" or
// "services"; ids and names come under a few different keys.
func parseInstances(data []byte) []InstanceMetadata {
	root := gjson.ParseBytes(data)
	entries := root
	if !root.IsArray() {
		entries = root.Get("instances")
		if !entries.IsArray() {
			entries = root.Get("services")
		}
		if !entries.IsArray() {
			return []InstanceMetadata{}
		}
	}

	out := make([]InstanceMetadata, 0, len(entries.Array()))
	entries.ForEach(func(_, entry gjson.Result) bool {
		inst := InstanceMetadata{
			ServiceID: firstString(entry, "service_id", "id"),
			Name:      firstString(entry, "service_name", "name"),
			Address:   entry.Get("address").String(),
			Port:      int(entry.Get("port").Int()),
			Realm:     entry.Get("realm").String(),
		}
		entry.Get("tags").ForEach(func(_, tag gjson.Result) bool {
			inst.Tags = append(inst.Tags, tag.String())
			return true
		})
		meta := entry.Get("meta")
		if !meta.Exists() {
			meta = entry.Get("metadata")
		}
		if meta.IsObject() {
			inst.Meta = make(map[string]string)
			meta.ForEach(func(key, value gjson.Result) bool {
				inst.Meta[key.String()] = value.String()
				return true
			})
		}
		out = append(out, inst)
		return true
	})
	return out
}

func firstString(entry gjson.Result, keys ...string) string {
	for _, key := range keys {
		if v := entry.Get(key); v.Exists() {
			return v.String()
		}
	}
	return ""
}
