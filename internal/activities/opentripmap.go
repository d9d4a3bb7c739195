// Package activities looks up live points of interest for an itinerary.
package activities

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vinayprograms/agentkit/logging"
	"golang.org/x/time/rate"

	"github.com/vinayprograms/planner/internal/metrics"
	"github.com/vinayprograms/planner/internal/planning"
)

// DefaultBaseURL is the OpenTripMap places API root.
const DefaultBaseURL = "https://api.opentripmap.com/0.1/en/places"

// Unavailable reasons.
const (
	ReasonNoCredential = "no_credential"
	ReasonGeocode      = "geocode_failed"
	ReasonNoLocation   = "no_coordinates"
	ReasonSearch       = "search_failed"
	ReasonEmpty        = "no_results"
	ReasonRateLimited  = "rate_limited"
)

// Config controls the OpenTripMap client.
type Config struct {
	APIKeyEnv         string
	BaseURL           string
	Radius            int
	DetailLimit       int
	GeocodeTimeout    time.Duration
	SearchTimeout     time.Duration
	DetailTimeout     time.Duration
	CacheSize         int
	CacheTTL          time.Duration
	RequestsPerSecond float64
}

// DefaultConfig mirrors the free-tier friendly defaults.
func DefaultConfig() Config {
	return Config{
		APIKeyEnv:         "OPENTRIPMAP_API_KEY",
		BaseURL:           DefaultBaseURL,
		Radius:            10000,
		DetailLimit:       6,
		GeocodeTimeout:    8 * time.Second,
		SearchTimeout:     12 * time.Second,
		DetailTimeout:     8 * time.Second,
		CacheSize:         128,
		CacheTTL:          30 * time.Minute,
		RequestsPerSecond: 5,
	}
}

var styleKinds = map[planning.TravelStyle]string{
	planning.StyleAdventure: "hiking,active,beaches,water,parks",
	planning.StyleRelaxed:   "gardens,parks,spa,tea,cafes",
	planning.StyleCultural:  "museums,historic,monuments,theatres,galleries,architecture",
	planning.StyleFood:      "restaurants,foods,cafes,marketplaces",
	planning.StyleBalanced:  "sights,interesting_places,architecture,restaurants,parks",
}

// KindsFor returns the OpenTripMap kinds filter for style.
func KindsFor(style planning.TravelStyle) string {
	if k, ok := styleKinds[style]; ok {
		return k
	}
	return styleKinds[planning.StyleBalanced]
}

// kindRules is checked in order; the first rule sharing a kind wins.
var kindRules = []struct {
	kinds    []string
	category planning.Category
}{
	{[]string{"museums", "museum"}, planning.CategoryMuseum},
	{[]string{"theatres", "theatre"}, planning.CategoryArts},
	{[]string{"historic", "monuments"}, planning.CategoryHistory},
	{[]string{"restaurants", "foods", "marketplaces"}, planning.CategoryFood},
	{[]string{"hiking", "active", "trails"}, planning.CategoryHiking},
	{[]string{"water"}, planning.CategoryWaterSports},
	{[]string{"parks", "gardens", "beaches"}, planning.CategoryParks},
}

// CategoryFor maps a comma-separated kinds string to a category.
func CategoryFor(kinds string) planning.Category {
	set := make(map[string]bool)
	for _, k := range strings.Split(kinds, ",") {
		set[k] = true
	}
	for _, rule := range kindRules {
		for _, k := range rule.kinds {
			if set[k] {
				return rule.category
			}
		}
	}
	return planning.CategorySightseeing
}

type cacheEntry struct {
	activities []planning.Activity
	storedAt   time.Time
}

// Client is a planning.ActivitySource backed by OpenTripMap.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	cache   *lru.Cache[string, cacheEntry]
	metrics *metrics.Metrics
	logger  *logging.Logger
	getenv  func(string) string
	now     func() time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithMetrics attaches collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(cl *Client) { cl.metrics = m }
}

// WithGetenv replaces the environment lookup used for the API key.
func WithGetenv(fn func(string) string) Option {
	return func(cl *Client) { cl.getenv = fn }
}

// New creates a client. Zero config fields take DefaultConfig values.
func New(cfg Config, opts ...Option) *Client {
	def := DefaultConfig()
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = def.APIKeyEnv
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Radius <= 0 {
		cfg.Radius = def.Radius
	}
	switch {
	case cfg.DetailLimit == 0:
		cfg.DetailLimit = def.DetailLimit
	case cfg.DetailLimit < 0:
		cfg.DetailLimit = 0
	}
	if cfg.GeocodeTimeout <= 0 {
		cfg.GeocodeTimeout = def.GeocodeTimeout
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = def.SearchTimeout
	}
	if cfg.DetailTimeout <= 0 {
		cfg.DetailTimeout = def.DetailTimeout
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = def.CacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	cache, _ := lru.New[string, cacheEntry](cfg.CacheSize)

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{},
		limiter: rate.NewLimiter(limit, 1),
		cache:   cache,
		logger:  logging.New().WithComponent("activities"),
		getenv:  os.Getenv,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Activities implements planning.ActivitySource. It never returns an error;
// any failure yields an unavailable result with a reason.
func (c *Client) Activities(ctx context.Context, q planning.ActivityQuery) planning.ActivityResult {
	apiKey := strings.TrimSpace(c.getenv(c.cfg.APIKeyEnv))
	if apiKey == "" {
		c.metrics.ObserveActivityLookup(ReasonNoCredential)
		return planning.Unavailable(ReasonNoCredential)
	}

	key := cacheKey(q)
	if entry, ok := c.cache.Get(key); ok {
		if c.now().Sub(entry.storedAt) < c.cfg.CacheTTL {
			c.metrics.ObserveActivityLookup("cache_hit")
			return planning.ActivityResult{Activities: append([]planning.Activity(nil), entry.activities...)}
		}
		c.cache.Remove(key)
	}

	res := c.lookup(ctx, apiKey, q)
	if res.Unavailable {
		c.metrics.ObserveActivityLookup(res.Reason)
		return res
	}
	c.metrics.ObserveActivityLookup("ok")
	c.cache.Add(key, cacheEntry{activities: res.Activities, storedAt: c.now()})
	return planning.ActivityResult{Activities: append([]planning.Activity(nil), res.Activities...)}
}

func (c *Client) lookup(ctx context.Context, apiKey string, q planning.ActivityQuery) planning.ActivityResult {
	var geo struct {
		Lon *float64 `json:"lon"`
		Lat *float64 `json:"lat"`
	}
	geoURL := c.cfg.BaseURL + "/geoname?" + url.Values{
		"name":   {q.Destination},
		"apikey": {apiKey},
	}.Encode()
	if err := c.getJSON(ctx, geoURL, c.cfg.GeocodeTimeout, &geo); err != nil {
		return c.fail(q, ReasonGeocode, err)
	}
	if geo.Lon == nil || geo.Lat == nil {
		return c.fail(q, ReasonNoLocation, nil)
	}

	var search struct {
		Features []struct {
			Properties struct {
				Name  string `json:"name"`
				Kinds string `json:"kinds"`
				XID   string `json:"xid"`
			} `json:"properties"`
		} `json:"features"`
	}
	searchURL := c.cfg.BaseURL + "/radius?" + url.Values{
		"radius": {strconv.Itoa(c.cfg.Radius)},
		"lon":    {formatCoord(*geo.Lon)},
		"lat":    {formatCoord(*geo.Lat)},
		"kinds":  {KindsFor(q.Style)},
		"limit":  {strconv.Itoa(min(max(q.Limit, 3), 30))},
		"apikey": {apiKey},
	}.Encode()
	if err := c.getJSON(ctx, searchURL, c.cfg.SearchTimeout, &search); err != nil {
		return c.fail(q, ReasonSearch, err)
	}

	results := make([]planning.Activity, 0, len(search.Features))
	for _, f := range search.Features {
		props := f.Properties
		name := props.Name
		if name == "" {
			name = "Point of Interest"
		}
		category := CategoryFor(props.Kinds)
		description := fmt.Sprintf("A %s in %s.", strings.ToLower(string(category)), q.Destination)
		if props.XID != "" && len(results) < c.cfg.DetailLimit {
			if snippet := c.firstSentence(ctx, apiKey, props.XID); snippet != "" {
				description = snippet
			}
		}
		results = append(results, planning.Activity{Name: name, Description: description, Category: category})
		if q.Limit > 0 && len(results) >= q.Limit {
			break
		}
	}
	if len(results) == 0 {
		return planning.Unavailable(ReasonEmpty)
	}
	return planning.ActivityResult{Activities: results}
}

// firstSentence fetches the detail record for xid and returns the first
// sentence of its Wikipedia extract. Errors yield "".
func (c *Client) firstSentence(ctx context.Context, apiKey, xid string) string {
	var detail struct {
		WikipediaExtracts struct {
			Text string `json:"text"`
		} `json:"wikipedia_extracts"`
	}
	detailURL := c.cfg.BaseURL + "/xid/" + url.PathEscape(xid) + "?" + url.Values{"apikey": {apiKey}}.Encode()
	if err := c.getJSON(ctx, detailURL, c.cfg.DetailTimeout, &detail); err != nil {
		c.logger.Debug("activity detail lookup failed", map[string]interface{}{"xid": xid, "error": err.Error()})
		return ""
	}
	text := strings.TrimSpace(detail.WikipediaExtracts.Text)
	if text == "" {
		return ""
	}
	first, _, _ := strings.Cut(text, ". ")
	return strings.TrimSpace(first)
}

func (c *Client) getJSON(ctx context.Context, rawURL string, timeout time.Duration, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", ReasonRateLimited, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) fail(q planning.ActivityQuery, reason string, err error) planning.ActivityResult {
	fields := map[string]interface{}{
		"destination": q.Destination,
		"style":       string(q.Style),
		"reason":      reason,
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	c.logger.Warn("activity lookup unavailable", fields)
	return planning.Unavailable(reason)
}

func cacheKey(q planning.ActivityQuery) string {
	return strings.ToLower(strings.TrimSpace(q.Destination)) + "|" + string(q.Style) + "|" + strconv.Itoa(q.Limit)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
