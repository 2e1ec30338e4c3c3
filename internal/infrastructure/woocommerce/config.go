package woocommerce

import (
	"errors"
	"strings"
	"time"
)

// APIPath is the REST namespace of the WooCommerce v3 API.
const APIPath = "/wp-json/wc/v3/"

// Errors for WooCommerce configuration
var (
	ErrConfigMissingBaseURL        = errors.New("woocommerce: base url is required")
	ErrConfigMissingConsumerKey    = errors.New("woocommerce: consumer key is required")
	ErrConfigMissingConsumerSecret = errors.New("woocommerce: consumer secret is required")
)

// Config holds the store connection settings
type Config struct {
	// BaseURL is the shop root, e.g. https://shop.example.com
	BaseURL string
	// ConsumerKey and ConsumerSecret are the REST API credentials
	ConsumerKey    string
	ConsumerSecret string
	// QueryStringAuth sends credentials as query parameters instead of basic auth.
	// Stores served over plain HTTP or behind proxies that strip Authorization need it.
	QueryStringAuth bool
	// Timeout is the per-request HTTP timeout
	Timeout time.Duration
}

// Validate checks required fields and fills defaults
func (c *Config) Validate() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.ConsumerKey == "" {
		return ErrConfigMissingConsumerKey
	}
	if c.ConsumerSecret == "" {
		return ErrConfigMissingConsumerSecret
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}

// endpoint returns the absolute URL of an API resource
func (c *Config) endpoint(resource string) string {
	return c.BaseURL + APIPath + strings.TrimLeft(resource, "/")
}
