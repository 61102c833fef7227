// Package helpers provides a fake network of bikeshare operators for the
// integration tests.
package helpers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/stacklok/gbfs-client/pkg/gbfs"
	"github.com/stacklok/gbfs-client/pkg/systems"
)

// lastUpdated is the last_updated of every served document
const lastUpdated = 1700000000

// FakeStation is one station of a FakeOperator
type FakeStation struct {
	ID       string
	Name     string
	Capacity int
	Bikes    int
	Docks    int
	Renting  bool
}

// FakeOperator is one bikeshare system served by a FakeNetwork
type FakeOperator struct {
	SystemID    string
	Name        string
	Location    string
	CountryCode string
	Versions    []string
	Languages   []string
	Stations    []FakeStation
	// TTL is the ttl of the operator's feed documents
	TTL int
	// BrokenFeeds are served as a JSON document without a data object
	BrokenFeeds []string
}

// FakeNetwork serves a systems.csv registry plus the GBFS feeds of each operator
type FakeNetwork struct {
	server    *httptest.Server
	operators map[string]FakeOperator
	order     []string

	mu       sync.Mutex
	requests map[string]int
}

// NewFakeNetwork starts a server for operators. Call Close when done.
func NewFakeNetwork(operators ...FakeOperator) *FakeNetwork {
	n := &FakeNetwork{
		operators: make(map[string]FakeOperator, len(operators)),
		requests:  make(map[string]int),
	}
	for _, op := range operators {
		n.operators[op.SystemID] = op
		n.order = append(n.order, op.SystemID)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /systems.csv", n.serveRegistry)
	mux.HandleFunc("GET /{system}/gbfs.json", n.serveDiscovery)
	mux.HandleFunc("GET /{system}/{lang}/{feed}", n.serveFeed)

	n.server = httptest.NewServer(n.count(mux))
	n.server.Config.SetKeepAlivesEnabled(false)
	return n
}

// Close stops the server
func (n *FakeNetwork) Close() {
	n.server.Close()
}

// RegistryURL returns the URL of the systems.csv registry
func (n *FakeNetwork) RegistryURL() string {
	return n.server.URL + "/systems.csv"
}

// DiscoveryURL returns the auto-discovery URL of systemID
func (n *FakeNetwork) DiscoveryURL(systemID string) string {
	return fmt.Sprintf("%s/%s/gbfs.json", n.server.URL, systemID)
}

// Requests returns how many times path was requested
func (n *FakeNetwork) Requests(path string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.requests[path]
}

func (n *FakeNetwork) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n.mu.Lock()
		n.requests[r.URL.Path]++
		n.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (n *FakeNetwork) serveRegistry(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	_ = writer.Write([]string{
		systems.ColumnCountryCode, systems.ColumnName, systems.ColumnLocation, systems.ColumnSystemID,
		systems.ColumnURL, systems.ColumnAutoDiscoveryURL, systems.ColumnSupportedVersions,
	})
	for _, id := range n.order {
		op := n.operators[id]
		_ = writer.Write([]string{
			op.CountryCode, op.Name, op.Location, op.SystemID,
			"https://" + strings.ToLower(op.SystemID) + ".example.com",
			n.DiscoveryURL(op.SystemID),
			strings.Join(op.Versions, " ; "),
		})
	}
	writer.Flush()

	w.Header().Set("Content-Type", "text/csv")
	_, _ = w.Write(buf.Bytes())
}

func (n *FakeNetwork) serveDiscovery(w http.ResponseWriter, r *http.Request) {
	op, ok := n.operators[r.PathValue("system")]
	if !ok {
		http.NotFound(w, r)
		return
	}

	// Languages are written by hand to keep their order in the document.
	var data strings.Builder
	for i, lang := range op.Languages {
		if i > 0 {
			data.WriteString(",")
		}
		feeds := make([]gbfs.Feed, 0, 3)
		for _, name := range []string{gbfs.FeedSystemInformation, gbfs.FeedStationInformation, gbfs.FeedStationStatus} {
			feeds = append(feeds, gbfs.Feed{
				Name: name,
				URL:  fmt.Sprintf("%s/%s/%s/%s.json", n.server.URL, op.SystemID, lang, name),
			})
		}
		encoded, _ := json.Marshal(map[string]any{"feeds": feeds})
		_, _ = fmt.Fprintf(&data, "%q:%s", lang, encoded)
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{"last_updated":%d,"ttl":%d,"version":%q,"data":{%s}}`,
		lastUpdated, op.TTL, latest(op.Versions), data.String())
}

func (n *FakeNetwork) serveFeed(w http.ResponseWriter, r *http.Request) {
	op, ok := n.operators[r.PathValue("system")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	lang := r.PathValue("lang")
	name := strings.TrimSuffix(r.PathValue("feed"), ".json")

	w.Header().Set("Content-Type", "application/json")
	for _, broken := range op.BrokenFeeds {
		if broken == name {
			_, _ = w.Write([]byte(`{"last_updated":1700000000,"error":"maintenance"}`))
			return
		}
	}

	var data any
	switch name {
	case gbfs.FeedSystemInformation:
		data = map[string]any{
			"system_id": op.SystemID,
			"language":  lang,
			"name":      op.Name,
			"timezone":  "America/Montreal",
		}
	case gbfs.FeedStationInformation:
		stations := make([]map[string]any, 0, len(op.Stations))
		for _, s := range op.Stations {
			stations = append(stations, map[string]any{
				"station_id": s.ID,
				"name":       s.Name,
				"lat":        45.5,
				"lon":        -73.6,
				"capacity":   s.Capacity,
			})
		}
		data = map[string]any{"stations": stations}
	case gbfs.FeedStationStatus:
		stations := make([]map[string]any, 0, len(op.Stations))
		for _, s := range op.Stations {
			stations = append(stations, map[string]any{
				"station_id":          s.ID,
				"num_bikes_available": s.Bikes,
				"num_docks_available": s.Docks,
				"is_installed":        1,
				"is_renting":          boolInt(s.Renting),
				"is_returning":        1,
				"last_reported":       lastUpdated,
			})
		}
		data = map[string]any{"stations": stations}
	default:
		http.NotFound(w, r)
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"last_updated": lastUpdated,
		"ttl":          op.TTL,
		"data":         data,
	})
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func latest(versions []string) string {
	if len(versions) == 0 {
		return ""
	}
	return versions[len(versions)-1]
}
