// Package search implements the place-search collaborator: a thin client
// for a Nominatim-compatible geocoding endpoint. Results only ever drive the
// view, never the sketch collection.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mapsketch/mapsketch/internal/config"
)

// ErrEmptyQuery is returned for a blank search query.
var ErrEmptyQuery = errors.New("empty search query")

// Place is one candidate result: a display name plus a point and, when the
// provider has one, a bounding box to fit the view to.
type Place struct {
	Name        string      `json:"name"`
	Lat         float64     `json:"lat"`
	Lon         float64     `json:"lon"`
	BoundingBox *[4]float64 `json:"bbox,omitempty"` // south, north, west, east
}

// Client queries a Nominatim-compatible search endpoint.
type Client struct {
	endpoint string
	limit    int
	http     *http.Client
}

// New builds a search client from configuration.
func New(cfg config.Search) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		limit:    cfg.Limit,
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// nominatimPlace is the provider wire format; coordinates arrive as strings.
type nominatimPlace struct {
	DisplayName string   `json:"display_name"`
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	BoundingBox []string `json:"boundingbox"`
}

// Search returns the ordered candidate places for a free-text query.
func (c *Client) Search(ctx context.Context, query string) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(c.limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "mapsketch")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request: unexpected status %d", resp.StatusCode)
	}

	var raw []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	places := make([]Place, 0, len(raw))
	for _, r := range raw {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lonErr != nil {
			log.Debug().Str("name", r.DisplayName).Msg("Skipping search result with bad coordinates")
			continue
		}

		place := Place{Name: r.DisplayName, Lat: lat, Lon: lon}

		if len(r.BoundingBox) == 4 {
			var bbox [4]float64
			ok := true
			for i, s := range r.BoundingBox {
				v, err := strconv.ParseFloat(s, 64)
				if err != nil {
					ok = false
					break
				}
				bbox[i] = v
			}
			if ok {
				place.BoundingBox = &bbox
			}
		}

		places = append(places, place)
	}

	return places, nil
}
