// Package geocode resolves postal addresses to coordinates through a
// Nominatim-compatible search endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/allergozyme/internal/client/models"
	"github.com/dmitrijs2005/allergozyme/internal/common"
	"github.com/dmitrijs2005/allergozyme/internal/logging"
	"golang.org/x/time/rate"
)

const DefaultEndpoint = "https://nominatim.openstreetmap.org/search"

// Options configures a Client. Zero values pick the defaults.
type Options struct {
	Endpoint      string
	UserAgent     string
	RatePerSecond float64
	HTTPClient    *http.Client
}

// Client sends one search request per call, paced by a rate limiter.
type Client struct {
	endpoint  string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	logger    logging.Logger
}

func New(opts Options, logger logging.Logger) *Client {
	c := &Client{
		endpoint:  opts.Endpoint,
		userAgent: opts.UserAgent,
		http:      opts.HTTPClient,
		limiter:   rate.NewLimiter(rate.Inf, 1),
		logger:    logger.With("component", "geocode"),
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if opts.RatePerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}
	return c
}

type place struct {
	Lat any `json:"lat"`
	Lon any `json:"lon"`
}

func networkError() error { return common.Network("geocoding error") }

// Geocode returns the coordinates of the best match for address.
func (c *Client) Geocode(ctx context.Context, address string) (models.Coordinates, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.Coordinates{}, networkError()
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("geocode endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("geocode request: %w", err)
	}
	req.Header.Set("Accept-Language", "fr")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn(ctx, "geocoding request failed", "error", err)
		return models.Coordinates{}, networkError()
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn(ctx, "geocoding provider returned an error", "status", resp.StatusCode)
		_, _ = io.Copy(io.Discard, resp.Body)
		return models.Coordinates{}, networkError()
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		c.logger.Warn(ctx, "malformed geocoding response", "error", err)
		return models.Coordinates{}, networkError()
	}
	if len(places) == 0 {
		return models.Coordinates{}, common.NotFound("address not found")
	}

	lat, okLat := models.ToFloat(places[0].Lat)
	lng, okLng := models.ToFloat(places[0].Lon)
	if !okLat || !okLng {
		return models.Coordinates{}, networkError()
	}
	return models.Coordinates{Lat: lat, Lng: lng}, nil
}
