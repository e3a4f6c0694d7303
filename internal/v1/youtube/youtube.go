// Package youtube resolves a user-submitted URL into the queue-ready
// metadata the room engine needs: a canonical video ID, a title, and a
// thumbnail URL. Nothing here touches media itself — only the public
// oEmbed endpoint, which returns a small JSON document.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/listenroom/backend/internal/v1/metrics"
	"github.com/listenroom/backend/internal/v1/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
)

const (
	fetchTimeout = 8 * time.Second
	oEmbedURL    = "https://www.youtube.com/oembed"
)

// videoIdPattern matches the 11-character alphabet YouTube uses for video
// IDs, used both to validate an extracted ID and to pass through a bare ID
// submitted without any URL wrapper.
var videoIdPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// Resolver extracts a video ID from a submitted URL and fetches its
// metadata. The coordinator depends on this interface so tests can fake
// network behavior without a real oEmbed round trip.
type Resolver interface {
	ExtractID(raw string) (string, error)
	FetchMetadata(ctx context.Context, videoId string) types.TrackMetadata
}

// Client is the production Resolver: a circuit-breaker-guarded oEmbed
// fetcher with an 8s timeout and a fallback title when the fetch fails.
type Client struct {
	http *http.Client
	cb   *gobreaker.CircuitBreaker
}

// NewClient builds a production YouTube Resolver.
func NewClient() *Client {
	st := gobreaker.Settings{
		Name:        "youtube-oembed",
		MaxRequests: 3,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		OnStateChange: func(name string, from, to gobreaker.State) {
			var stateVal float64
			switch to {
			case gobreaker.StateClosed:
				stateVal = 0
			case gobreaker.StateOpen:
				stateVal = 1
			case gobreaker.StateHalfOpen:
				stateVal = 2
			}
			metrics.CircuitBreakerState.WithLabelValues("youtube-oembed").Set(stateVal)
		},
	}

	return &Client{
		http: &http.Client{Timeout: fetchTimeout},
		cb:   gobreaker.NewCircuitBreaker(st),
	}
}

// ExtractID pulls an 11-character video ID out of any recognized YouTube
// URL shape (youtu.be, youtube.com watch/embed/shorts/v, music.youtube.com
// watch), or validates and passes through a bare 11-character ID. Returns
// an error for anything else, which the coordinator turns into an in-band
// room:error.
func (c *Client) ExtractID(raw string) (string, error) {
	return ExtractID(raw)
}

// ExtractID is the free-standing form used by both Client and tests.
func ExtractID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("empty url")
	}

	if videoIdPattern.MatchString(trimmed) {
		return trimmed, nil
	}

	candidate := trimmed
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")

	var id string
	switch host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")

	case "youtube.com":
		switch {
		case strings.HasPrefix(u.Path, "/watch"):
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/embed/"):
			id = strings.TrimPrefix(u.Path, "/embed/")
		case strings.HasPrefix(u.Path, "/shorts/"):
			id = strings.TrimPrefix(u.Path, "/shorts/")
		case strings.HasPrefix(u.Path, "/v/"):
			id = strings.TrimPrefix(u.Path, "/v/")
		}

	case "music.youtube.com":
		if strings.HasPrefix(u.Path, "/watch") {
			id = u.Query().Get("v")
		}
	}

	id = strings.TrimSuffix(id, "/")
	if id == "" || !videoIdPattern.MatchString(id) {
		return "", fmt.Errorf("unrecognized youtube url: %s", raw)
	}

	return id, nil
}

// oEmbedResponse is the subset of YouTube's oEmbed JSON document used here.
type oEmbedResponse struct {
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// FetchMetadata fetches title and thumbnail for videoId. A failed fetch —
// network error, non-2xx, breaker open — degrades to a fallback title
// rather than erroring: metadata fetch failure is non-fatal per spec.
func (c *Client) FetchMetadata(ctx context.Context, videoId string) types.TrackMetadata {
	timer := prometheus.NewTimer(metrics.YoutubeResolveDuration)
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.fetch(ctx, videoId)
	})

	if err != nil {
		return fallbackMetadata(videoId)
	}

	return result.(types.TrackMetadata)
}

func (c *Client) fetch(ctx context.Context, videoId string) (types.TrackMetadata, error) {
	watchURL := fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoId)
	reqURL := fmt.Sprintf("%s?url=%s&format=json", oEmbedURL, url.QueryEscape(watchURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return types.TrackMetadata{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return types.TrackMetadata{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.TrackMetadata{}, fmt.Errorf("oembed returned status %d", resp.StatusCode)
	}

	var body oEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return types.TrackMetadata{}, fmt.Errorf("decoding oembed response: %w", err)
	}
	if body.Title == "" {
		return types.TrackMetadata{}, fmt.Errorf("oembed response missing title")
	}

	return types.TrackMetadata{
		YoutubeId: videoId,
		Title:     body.Title,
		Thumbnail: thumbnailURL(videoId),
	}, nil
}

// fallbackMetadata is used whenever the oEmbed fetch degrades, so the
// track still has a usable title instead of blocking the queue add.
func fallbackMetadata(videoId string) types.TrackMetadata {
	return types.TrackMetadata{
		YoutubeId: videoId,
		Title:     "Unknown Track",
		Thumbnail: thumbnailURL(videoId),
	}
}

// thumbnailURL is always derived from the video ID, never taken from the
// oEmbed response: the server never fetches or proxies thumbnail bytes.
func thumbnailURL(videoId string) string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/mqdefault.jpg", videoId)
}
