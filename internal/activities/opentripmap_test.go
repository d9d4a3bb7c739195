package activities

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinayprograms/planner/internal/metrics"
	"github.com/vinayprograms/planner/internal/planning"
)

func withKey(key string) Option {
	return WithGetenv(func(string) string { return key })
}

type fakeOTM struct {
	geo      string
	features []map[string]string
	details  map[string]string
	status   int

	radiusQuery atomic.Value
	hits        atomic.Int32
}

func (f *fakeOTM) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		assert.Equal(t, "secret", r.URL.Query().Get("apikey"))
		if f.status != 0 {
			w.WriteHeader(f.status)
			return
		}
		switch {
		case r.URL.Path == "/geoname":
			_, _ = w.Write([]byte(f.geo))
		case r.URL.Path == "/radius":
			f.radiusQuery.Store(r.URL.Query())
			features := make([]map[string]any, 0, len(f.features))
			for _, p := range f.features {
				features = append(features, map[string]any{"properties": p})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"features": features})
		case strings.HasPrefix(r.URL.Path, "/xid/"):
			xid := strings.TrimPrefix(r.URL.Path, "/xid/")
			text, ok := f.details[xid]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"wikipedia_extracts": map[string]string{"text": text}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newTestClient(t *testing.T, f *fakeOTM, opts ...Option) (*Client, *prometheus.Registry) {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	reg := prometheus.NewRegistry()
	base := []Option{withKey("secret"), WithMetrics(metrics.MustNew(reg)), WithHTTPClient(srv.Client())}
	return New(Config{BaseURL: srv.URL, RequestsPerSecond: -1}, append(base, opts...)...), reg
}

func lookupCount(t *testing.T, reg *prometheus.Registry, result string) float64 {
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() != "planner_activity_lookups_total" {
			continue
		}
		for _, m := range fam.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "result" && l.GetValue() == result {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestCategoryFor(t *testing.T) {
	tests := []struct {
		kinds string
		want  planning.Category
	}{
		{"museums,theatres", planning.CategoryMuseum},
		{"theatres,historic", planning.CategoryArts},
		{"monuments,foods", planning.CategoryHistory},
		{"marketplaces,trails", planning.CategoryFood},
		{"active,water", planning.CategoryHiking},
		{"water,beaches", planning.CategoryWaterSports},
		{"gardens", planning.CategoryParks},
		{"interesting_places", planning.CategorySightseeing},
		{"", planning.CategorySightseeing},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CategoryFor(tt.kinds), tt.kinds)
	}
}

func TestKindsFor_UnknownStyleUsesBalanced(t *testing.T) {
	assert.Equal(t, KindsFor(planning.StyleBalanced), KindsFor("sporty"))
	assert.Contains(t, KindsFor(planning.StyleCultural), "museums")
}

func TestActivities_NoCredential(t *testing.T) {
	f := &fakeOTM{}
	c, reg := newTestClient(t, f, withKey(""))

	res := c.Activities(context.Background(), planning.ActivityQuery{Destination: "Paris", Style: planning.StyleCultural, Limit: 6})

	assert.True(t, res.Unavailable)
	assert.Equal(t, ReasonNoCredential, res.Reason)
	assert.Empty(t, res.Activities)
	assert.Zero(t, f.hits.Load())
	assert.Equal(t, 1.0, lookupCount(t, reg, ReasonNoCredential))
}

func TestActivities_Success(t *testing.T) {
	f := &fakeOTM{
		geo: `{"lon": 2.35, "lat": 48.85}`,
		features: []map[string]string{
			{"name": "Louvre", "kinds": "museums,architecture", "xid": "L1"},
			{"name": "", "kinds": "historic", "xid": "H1"},
			{"name": "Jardin", "kinds": "gardens", "xid": ""},
		},
		details: map[string]string{"L1": "The Louvre is a museum. It is big."},
	}
	c, reg := newTestClient(t, f)

	res := c.Activities(context.Background(), planning.ActivityQuery{Destination: "Paris", Style: planning.StyleCultural, Limit: 40})
	assert.Equal(t, 1.0, lookupCount(t, reg, "ok"))

	require.False(t, res.Unavailable)
	require.Len(t, res.Activities, 3)
	assert.Equal(t, planning.Activity{Name: "Louvre", Description: "The Louvre is a museum", Category: planning.CategoryMuseum}, res.Activities[0])
	assert.Equal(t, "Point of Interest", res.Activities[1].Name)
	assert.Equal(t, "A history in Paris.", res.Activities[1].Description)
	assert.Equal(t, "A parks in Paris.", res.Activities[2].Description)

	q := f.radiusQuery.Load().(url.Values)
	assert.Equal(t, []string{"30"}, q["limit"])
	assert.Equal(t, []string{"10000"}, q["radius"])
	assert.Equal(t, []string{KindsFor(planning.StyleCultural)}, q["kinds"])
}

func TestActivities_StopsAtLimitAndCapsEnrichment(t *testing.T) {
	f := &fakeOTM{geo: `{"lon": 1, "lat": 1}`, details: map[string]string{}}
	for i := 0; i < 10; i++ {
		xid := string(rune('a' + i))
		f.features = append(f.features, map[string]string{"name": "P" + xid, "kinds": "sights", "xid": xid})
		f.details[xid] = "Detail " + xid + ". More."
	}
	c, _ := newTestClient(t, f)

	res := c.Activities(context.Background(), planning.ActivityQuery{Destination: "Oslo", Style: planning.StyleBalanced, Limit: 8})

	require.Len(t, res.Activities, 8)
	assert.Equal(t, "Detail f", res.Activities[5].Description)
	assert.Equal(t, "A sightseeing in Oslo.", res.Activities[6].Description)
}

func TestActivities_DegradePaths(t *testing.T) {
	tests := []struct {
		name   string
		fake   *fakeOTM
		reason string
	}{
		{"bad status", &fakeOTM{status: http.StatusForbidden}, ReasonGeocode},
		{"malformed geocode", &fakeOTM{geo: `not json`}, ReasonGeocode},
		{"missing coordinates", &fakeOTM{geo: `{"name":"x"}`}, ReasonNoLocation},
		{"no features", &fakeOTM{geo: `{"lon":1,"lat":2}`}, ReasonEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, tt.fake)
			res := c.Activities(context.Background(), planning.ActivityQuery{Destination: "Nowhere", Limit: 6})
			assert.True(t, res.Unavailable)
			assert.Equal(t, tt.reason, res.Reason)
		})
	}
}

func TestActivities_Cache(t *testing.T) {
	f := &fakeOTM{
		geo:      `{"lon": 1, "lat": 1}`,
		features: []map[string]string{{"name": "Spot", "kinds": "parks"}},
	}
	now := time.Unix(1000, 0)
	c, _ := newTestClient(t, f)
	c.now = func() time.Time { return now }

	q := planning.ActivityQuery{Destination: "Rome", Style: planning.StyleRelaxed, Limit: 6}
	first := c.Activities(context.Background(), q)
	hits := f.hits.Load()
	second := c.Activities(context.Background(), q)

	assert.Equal(t, first, second)
	assert.Equal(t, hits, f.hits.Load())

	now = now.Add(time.Hour)
	c.Activities(context.Background(), q)
	assert.Greater(t, f.hits.Load(), hits)
}

func TestActivities_ImplementsSource(t *testing.T) {
	var _ planning.ActivitySource = (*Client)(nil)
	builder := planning.NewBuilder(New(Config{}, withKey("")))
	res := builder.Itinerary(context.Background(), "Tokyo", 2, "food")
	assert.False(t, res.Live)
	assert.Equal(t, "Market Food Tour", res.Data.Days[0].Parts[0].Activity.Name)
}
