package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const defaultPlacesURL = "https://maps.googleapis.com/maps/api/place/textsearch/json"

// PlacesProvider backs the picker's search box with the Google Places Text
// Search API. It becomes ready once Start has verified the API key.
type PlacesProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	ready      *Readiness
}

// PlacesOption customises a PlacesProvider.
type PlacesOption func(*PlacesProvider)

// WithPlacesURL overrides the Text Search endpoint.
func WithPlacesURL(u string) PlacesOption {
	return func(p *PlacesProvider) { p.baseURL = u }
}

// WithPlacesHTTPClient swaps the HTTP client.
func WithPlacesHTTPClient(hc *http.Client) PlacesOption {
	return func(p *PlacesProvider) {
		if hc != nil {
			p.httpClient = hc
		}
	}
}

// NewPlacesProvider constructs a provider. Call Start to resolve readiness.
func NewPlacesProvider(apiKey string, logger *slog.Logger, opts ...PlacesOption) *PlacesProvider {
	if logger == nil {
		logger = slog.Default()
	}
	p := &PlacesProvider{
		apiKey:     apiKey,
		baseURL:    defaultPlacesURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		ready:      NewReadiness(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start probes the API once in the background and resolves readiness.
func (p *PlacesProvider) Start(ctx context.Context) {
	go func() {
		err := p.probe(ctx)
		if err != nil {
			p.logger.Warn("places provider unavailable", slog.Any("error", err))
		}
		p.ready.Resolve(err)
	}()
}

// Ready implements MapProvider.
func (p *PlacesProvider) Ready(ctx context.Context) error {
	return p.ready.Wait(ctx)
}

type placesResponse struct {
	Results []struct {
		Name             string `json:"name"`
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location Point `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// Search implements Searcher and returns the first matching place.
func (p *PlacesProvider) Search(ctx context.Context, query string) (Point, error) {
	res, err := p.textSearch(ctx, query)
	if err != nil {
		return Point{}, err
	}
	if len(res.Results) == 0 {
		return Point{}, ErrNoPlace
	}
	pt := res.Results[0].Geometry.Location
	if !pt.Valid() {
		return Point{}, ErrInvalidPoint
	}
	p.logger.Debug("place resolved", slog.String("query", query), slog.String("name", res.Results[0].Name))
	return pt, nil
}

func (p *PlacesProvider) probe(ctx context.Context) error {
	if p.apiKey == "" {
		return errors.New("location: google maps api key not set")
	}
	_, err := p.textSearch(ctx, "Tiruchirappalli")
	if errors.Is(err, ErrNoPlace) {
		return nil
	}
	return err
}

func (p *PlacesProvider) textSearch(ctx context.Context, query string) (*placesResponse, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("key", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("location: call places api: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("location: places api status %d: %s", resp.StatusCode, string(body))
	}

	var result placesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("location: parse places response: %w", err)
	}
	switch result.Status {
	case "OK":
		return &result, nil
	case "ZERO_RESULTS":
		return nil, ErrNoPlace
	default:
		return nil, fmt.Errorf("location: places api %s: %s", result.Status, result.ErrorMessage)
	}
}
