// Package catalog checks submitted tracks against the music catalog.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/neomorfeo/curator/internal/domain"
)

// Compile-time checks: both catalogs implement domain.Catalog.
var (
	_ domain.Catalog = (*Client)(nil)
	_ domain.Catalog = AllowAll{}
)

// AllowAll accepts every track. It is used when no catalog URL is configured.
type AllowAll struct{}

func (AllowAll) CheckTrack(context.Context, string, string) error { return nil }

// trackResponse is the subset of the catalog's track document we read.
type trackResponse struct {
	ID       string `json:"id"`
	ArtistID string `json:"artist_id"`
}

// Client looks tracks up over the catalog's HTTP API at
// GET {baseURL}/tracks/{trackID}.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a catalog client. A zero timeout means 5 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// CheckTrack returns nil when trackID exists and belongs to artistID.
func (c *Client) CheckTrack(ctx context.Context, trackID, artistID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tracks/"+url.PathEscape(trackID), nil)
	if err != nil {
		return fmt.Errorf("building catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrTrackNotFound, trackID)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: catalog returned %s", domain.ErrCatalogUnavailable, resp.Status)
	}

	var track trackResponse
	if err := json.NewDecoder(resp.Body).Decode(&track); err != nil {
		return fmt.Errorf("%w: decoding track: %v", domain.ErrCatalogUnavailable, err)
	}

	if track.ArtistID != artistID {
		return fmt.Errorf("%w: track %s belongs to %s", domain.ErrArtistMismatch, trackID, track.ArtistID)
	}
	return nil
}
