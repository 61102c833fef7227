package systems_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/gbfs-client/pkg/httpclient"
	"github.com/stacklok/gbfs-client/pkg/httpclient/mocks"
	"github.com/stacklok/gbfs-client/pkg/systems"
)

const registryCSV = "Country Code,Name,Location,System ID,URL,Auto-Discovery URL,Validation Report\n" +
	"CA,BIXI Montréal,\"Montréal, QC\",Bixi_MTL,https://www.bixi.com,https://gbfs.velobixi.com/gbfs/gbfs.json,\n" +
	"CA,Bike Share Toronto,\"Toronto, ON\",bike_share_toronto,https://bikesharetoronto.com," +
	"https://tor.publicbikesystem.net/ube/gbfs/v1/,\n"

func TestInitialize_FromURL(t *testing.T) {
	t.Parallel()

	accept := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept <- r.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(registryCSV))
	}))
	server.Config.SetKeepAlivesEnabled(false)
	defer server.Close()

	registry, err := systems.Initialize(context.Background(),
		systems.WithSourceURL(server.URL+"/systems.csv"),
		systems.WithLogger(logr.Discard()),
	)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", <-accept)
	assert.Equal(t, 2, registry.Len())
	assert.Equal(t, server.URL+"/systems.csv", registry.Source())

	canadian := registry.FindByCountryCode("ca")
	require.Len(t, canadian, 2)

	op, ok := registry.FindBySystemID("BIXI_MTL")
	require.True(t, ok)
	assert.Equal(t, "Montréal, QC", op.Location)
}

func TestLoader_DefaultSource(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	client := mocks.NewMockClient(ctrl)
	client.EXPECT().Get(gomock.Any(), systems.DefaultSourceURL, gomock.Any()).Return([]byte(registryCSV), nil)

	loader := systems.NewLoader(systems.WithHTTPClient(client), systems.WithLogger(logr.Discard()))
	assert.Equal(t, systems.DefaultSourceURL, loader.Source())

	registry, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, registry.Len())
}

func TestLoader_FetchFailure(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	httpErr := httpclient.NewHTTPError(http.StatusNotFound, systems.DefaultSourceURL, "404 Not Found")
	client := mocks.NewMockClient(ctrl)
	client.EXPECT().Get(gomock.Any(), systems.DefaultSourceURL, gomock.Any()).Return(nil, httpErr)

	registry, err := systems.Initialize(context.Background(),
		systems.WithHTTPClient(client), systems.WithLogger(logr.Discard()))
	assert.Nil(t, registry)

	var fetchErr *systems.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, systems.DefaultSourceURL, fetchErr.Source)
	assert.Equal(t, http.StatusNotFound, httpclient.StatusCode(err))
}

func TestLoader_ParseFailure(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	client := mocks.NewMockClient(ctrl)
	client.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]byte("<!DOCTYPE html><html></html>\n"), nil)

	_, err := systems.Initialize(context.Background(),
		systems.WithHTTPClient(client), systems.WithLogger(logr.Discard()))

	var parseErr *systems.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 1, parseErr.Line)
}

func TestLoader_FromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "systems.csv")
	require.NoError(t, os.WriteFile(path, []byte(registryCSV), 0o600))

	// The file wins over the URL, so the mock must never be called.
	client := mocks.NewMockClient(gomock.NewController(t))

	registry, err := systems.Initialize(context.Background(),
		systems.WithHTTPClient(client),
		systems.WithSourceURL("https://example.com/systems.csv"),
		systems.WithSourceFile(path),
		systems.WithLogger(logr.Discard()),
	)
	require.NoError(t, err)
	assert.Equal(t, path, registry.Source())
	assert.Len(t, registry.FindByLocation("toronto"), 1)
}

func TestLoader_MissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing.csv")
	_, err := systems.Initialize(context.Background(),
		systems.WithSourceFile(path), systems.WithLogger(logr.Discard()))

	var fetchErr *systems.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, path, fetchErr.Source)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoader_Tracing(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	client := mocks.NewMockClient(ctrl)
	client.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return([]byte(registryCSV), nil)

	_, err := systems.Initialize(context.Background(),
		systems.WithHTTPClient(client),
		systems.WithLogger(logr.Discard()),
		systems.WithTracerProvider(tp),
	)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "systems.Load", spans[0].Name())
}
