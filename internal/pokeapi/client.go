// Package pokeapi draws random creatures from PokeAPI for a board.
package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"memgame/internal/game"
	"memgame/internal/logger"
	"memgame/internal/metrics"
)

const (
	DefaultBaseURL      = "https://pokeapi.co/api/v2"
	DefaultCatalogLimit = 1500
	DefaultConcurrency  = 8
	DefaultTimeout      = 15 * time.Second
	DefaultPlaceholder  = "/static/placeholder.svg"
)

var (
	// ErrNetwork marks a failed request or a non-200 response.
	ErrNetwork = errors.New("pokeapi: network failure")
	// ErrMissingAsset marks a detail record without official artwork.
	ErrMissingAsset = errors.New("pokeapi: missing artwork")
)

// Options configures a Client. Zero values take the defaults above.
type Options struct {
	BaseURL      string
	CatalogLimit int
	Concurrency  int
	Placeholder  string
	HTTPClient   *http.Client
	Metrics      *metrics.Metrics
	Rand         *rand.Rand
}

// Client fetches the catalog listing and per-creature details.
type Client struct {
	baseURL      string
	catalogLimit int
	concurrency  int
	placeholder  string
	http         *http.Client
	metrics      *metrics.Metrics
	log          *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewClient builds a client from opts.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		catalogLimit: opts.CatalogLimit,
		concurrency:  opts.Concurrency,
		placeholder:  opts.Placeholder,
		http:         opts.HTTPClient,
		metrics:      opts.Metrics,
		rng:          opts.Rand,
		log:          logger.With("component", "pokeapi"),
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.catalogLimit <= 0 {
		c.catalogLimit = DefaultCatalogLimit
	}
	if c.concurrency <= 0 {
		c.concurrency = DefaultConcurrency
	}
	if c.placeholder == "" {
		c.placeholder = DefaultPlaceholder
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: DefaultTimeout}
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return c
}

type namedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type catalogResponse struct {
	Count   int             `json:"count"`
	Results []namedResource `json:"results"`
}

type detailResponse struct {
	Name    string `json:"name"`
	Sprites struct {
		Other map[string]struct {
			FrontDefault *string `json:"front_default"`
		} `json:"other"`
	} `json:"sprites"`
}

const artworkKey = "official-artwork"

// FetchItems returns up to count distinct creatures. It never fails: a broken
// catalog request yields no items and a broken detail lookup yields the
// placeholder image for that creature.
func (c *Client) FetchItems(ctx context.Context, count int) []game.Item {
	if count <= 0 {
		return nil
	}
	catalog, err := c.fetchCatalog(ctx)
	if err != nil {
		c.metrics.FetchFailed(metrics.FailureCatalog)
		c.log.Error("fetch catalog", "err", err)
		return nil
	}
	picked := c.sample(catalog, count)

	items := make([]game.Item, len(picked))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, entry := range picked {
		g.Go(func() error {
			items[i] = c.resolve(gctx, entry)
			return nil
		})
	}
	_ = g.Wait()
	return items
}

// resolve looks up artwork for one entry, substituting the placeholder on failure.
func (c *Client) resolve(ctx context.Context, entry namedResource) game.Item {
	item := game.Item{Name: entry.Name, Image: c.placeholder}
	image, name, err := c.fetchArtwork(ctx, entry.URL)
	switch {
	case errors.Is(err, ErrMissingAsset):
		c.metrics.FetchFailed(metrics.FailureAsset)
		c.log.Warn("using placeholder", "creature", entry.Name, "err", err)
	case err != nil:
		c.metrics.FetchFailed(metrics.FailureDetail)
		c.log.Warn("using placeholder", "creature", entry.Name, "err", err)
	default:
		item.Image = image
	}
	if name != "" {
		item.Name = name
	}
	return item
}

func (c *Client) fetchCatalog(ctx context.Context) ([]namedResource, error) {
	u := c.baseURL + "/pokemon?" + url.Values{"limit": {strconv.Itoa(c.catalogLimit)}}.Encode()
	var resp catalogResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	out := make([]namedResource, 0, len(resp.Results))
	seen := make(map[string]struct{}, len(resp.Results))
	for _, r := range resp.Results {
		if r.Name == "" || r.URL == "" {
			continue
		}
		if _, dup := seen[r.Name]; dup {
			continue
		}
		seen[r.Name] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}

// fetchArtwork returns the official artwork URL and canonical name for a detail URL.
func (c *Client) fetchArtwork(ctx context.Context, detailURL string) (string, string, error) {
	var resp detailResponse
	if err := c.getJSON(ctx, detailURL, &resp); err != nil {
		return "", "", fmt.Errorf("detail: %w", err)
	}
	art, ok := resp.Sprites.Other[artworkKey]
	if !ok || art.FrontDefault == nil || *art.FrontDefault == "" {
		return "", resp.Name, fmt.Errorf("%s: %w", resp.Name, ErrMissingAsset)
	}
	return *art.FrontDefault, resp.Name, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %s", ErrNetwork, rawURL, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrNetwork, rawURL, err)
	}
	return nil
}

// sample picks count distinct entries uniformly with a partial Fisher-Yates.
func (c *Client) sample(catalog []namedResource, count int) []namedResource {
	if count > len(catalog) {
		count = len(catalog)
	}
	pool := make([]namedResource, len(catalog))
	copy(pool, catalog)
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	for i := 0; i < count; i++ {
		j := i + c.rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:count]
}
