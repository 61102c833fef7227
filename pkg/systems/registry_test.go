package systems

import (
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestRegistry(t *testing.T, logger logr.Logger) *Registry {
	t.Helper()

	f, err := os.Open("testdata/systems.csv")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	operators, err := ParseCSV(f)
	require.NoError(t, err)
	return newRegistry("testdata/systems.csv", operators, logger)
}

func systemIDs(operators []Operator) []string {
	ids := make([]string, 0, len(operators))
	for _, op := range operators {
		ids = append(ids, op.SystemID)
	}
	return ids
}

func TestRegistry_FindByCountryCode(t *testing.T) {
	t.Parallel()
	registry := loadTestRegistry(t, logr.Discard())

	tests := []struct {
		code     string
		expected []string
	}{
		{code: "ca", expected: []string{"Bixi_MTL", "bike_share_toronto"}},
		{code: "CA", expected: []string{"Bixi_MTL", "bike_share_toronto"}},
		{code: "us", expected: []string{"NYC"}},
		{code: "C", expected: []string{}},
		{code: "JP", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, systemIDs(registry.FindByCountryCode(tt.code)))
		})
	}
}

func TestRegistry_FindBySystemID(t *testing.T) {
	t.Parallel()
	registry := loadTestRegistry(t, logr.Discard())

	op, ok := registry.FindBySystemID("BIXI_MTL")
	require.True(t, ok)
	assert.Equal(t, "BIXI Montréal", op.Name)
	assert.Equal(t, "https://gbfs.velobixi.com/gbfs/gbfs.json", op.AutoDiscoveryURL)

	op, ok = registry.FindBySystemID("nyc")
	require.True(t, ok)
	assert.Equal(t, "Citi Bike", op.Name)

	_, ok = registry.FindBySystemID("bixi")
	assert.False(t, ok)
}

func TestRegistry_FindBySystemID_Duplicates(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		logs []string
	)
	logger := funcr.New(func(prefix, args string) {
		mu.Lock()
		defer mu.Unlock()
		logs = append(logs, args)
	}, funcr.Options{})

	operators := []Operator{
		{CountryCode: "CA", Name: "BIXI Montréal", SystemID: "bixi_mtl"},
		{CountryCode: "CA", Name: "BIXI Montréal (legacy)", SystemID: "Bixi_MTL"},
		{CountryCode: "CA", Name: "Bike Share Toronto", SystemID: "bike_share_toronto"},
	}
	registry := newRegistry("inline", operators, logger)

	op, ok := registry.FindBySystemID("BIXI_MTL")
	require.True(t, ok)
	assert.Equal(t, "BIXI Montréal", op.Name)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0], "Multiple systems found with the same ID")
	assert.Contains(t, logs[0], `"matches"=2`)
}

func TestRegistry_FindByName(t *testing.T) {
	t.Parallel()
	registry := loadTestRegistry(t, logr.Discard())

	expected := []string{"Bixi_MTL"}
	for _, query := range []string{"MONTRÉAL", "montreal", "Montréal", "bixi"} {
		assert.Equal(t, expected, systemIDs(registry.FindByName(query)), query)
	}

	assert.Equal(t, []string{"Paris"}, systemIDs(registry.FindByName("velib")))
	assert.Empty(t, registry.FindByName("bike share toronto lime"))
	assert.Empty(t, registry.FindByName(""))
}

func TestRegistry_FindByLocation(t *testing.T) {
	t.Parallel()
	registry := loadTestRegistry(t, logr.Discard())

	assert.Equal(t, []string{"Bixi_MTL"}, systemIDs(registry.FindByLocation("montreal")))
	assert.Equal(t, []string{"Bixi_MTL"}, systemIDs(registry.FindByLocation("MONTRÉAL, qc")))
	assert.Equal(t, []string{"bike_share_toronto"}, systemIDs(registry.FindByLocation("Toronto")))

	empty := registry.FindByLocation("")
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	assert.Empty(t, registry.FindByLocation("Reykjavík"))
}

func TestRegistry_EmptyQueriesMatchNothing(t *testing.T) {
	t.Parallel()

	operators, err := ParseCSV(strings.NewReader(`Country Code,Name,Location,System ID,URL,Auto-Discovery URL
CA,BIXI Montréal,"Montréal, QC",Bixi_MTL,https://www.bixi.com,https://gbfs.velobixi.com/gbfs/gbfs.json
,Orphan Bikes,,,https://orphan.example.com,https://orphan.example.com/gbfs.json
`))
	require.NoError(t, err)
	registry := newRegistry("inline", operators, logr.Discard())

	byCountry := registry.FindByCountryCode("")
	assert.NotNil(t, byCountry)
	assert.Empty(t, byCountry)

	_, ok := registry.FindBySystemID("")
	assert.False(t, ok)

	assert.Empty(t, registry.FindByLocation(""))
	assert.Empty(t, registry.FindByName(""))
}

func TestRegistry_AllAndLen(t *testing.T) {
	t.Parallel()
	registry := loadTestRegistry(t, logr.Discard())

	assert.Equal(t, 5, registry.Len())
	assert.Equal(t, "testdata/systems.csv", registry.Source())

	all := registry.All()
	require.Len(t, all, 5)
	assert.Equal(t, "BIXI Montréal", all[0].Name)
	assert.Same(t, &all[0], &registry.All()[0])
}

func TestRegistry_Filter(t *testing.T) {
	t.Parallel()
	registry := loadTestRegistry(t, logr.Discard())

	tests := []struct {
		name     string
		include  []string
		exclude  []string
		expected []string
	}{
		{
			name:     "no patterns",
			expected: []string{"Bixi_MTL", "bike_share_toronto", "NYC", "Paris", "lime_berlin"},
		},
		{
			name:     "include is case insensitive",
			include:  []string{"BIXI_*"},
			expected: []string{"Bixi_MTL"},
		},
		{
			name:     "include several",
			include:  []string{"bixi_*", "*_toronto"},
			expected: []string{"Bixi_MTL", "bike_share_toronto"},
		},
		{
			name:     "exclude",
			exclude:  []string{"*_*"},
			expected: []string{"NYC", "Paris"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			operators, err := registry.Filter(tt.include, tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, systemIDs(operators))
		})
	}

	_, err := registry.Filter([]string{"[bixi"}, nil)
	assert.Error(t, err)
}

func TestRegistry_Select(t *testing.T) {
	t.Parallel()
	registry := loadTestRegistry(t, logr.Discard())

	operators, err := registry.Select(Criteria{IncludeVersions: []string{"2.3"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"bike_share_toronto", "NYC"}, systemIDs(operators))

	operators, err = registry.Select(Criteria{IncludeVersions: []string{"2.2"}, ExcludeIDs: []string{"lime_*"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bixi_MTL"}, systemIDs(operators))

	operators, err = registry.Select(Criteria{MinVersion: "2.3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"bike_share_toronto", "NYC"}, systemIDs(operators))

	operators, err = registry.Select(Criteria{MinVersion: "3.0", IncludeIDs: []string{"*"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"NYC"}, systemIDs(operators))
}

func TestOperator_Versions(t *testing.T) {
	t.Parallel()
	registry := loadTestRegistry(t, logr.Discard())

	nyc, ok := registry.FindBySystemID("nyc")
	require.True(t, ok)
	assert.Equal(t, "3.0", nyc.LatestVersion())
	assert.True(t, nyc.SupportsAtLeast("2.3"))
	assert.False(t, nyc.SupportsAtLeast("3.1"))

	assert.Empty(t, Operator{}.LatestVersion())
	assert.False(t, Operator{}.SupportsAtLeast("1.0"))
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	t.Parallel()
	registry := loadTestRegistry(t, logr.Discard())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				_, _ = registry.FindBySystemID("bixi_mtl")
				_ = registry.FindByName(strings.ToUpper("montréal"))
			}
		}()
	}
	wg.Wait()
}
