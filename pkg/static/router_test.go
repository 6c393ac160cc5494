package static

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborfs/arborfs/internal/logger"
	"github.com/arborfs/arborfs/internal/ratelimiter"
	"github.com/arborfs/arborfs/pkg/metrics"
	"github.com/arborfs/arborfs/pkg/store/content"
	contentmemory "github.com/arborfs/arborfs/pkg/store/content/memory"
	"github.com/arborfs/arborfs/pkg/store/record"
	recordmemory "github.com/arborfs/arborfs/pkg/store/record/memory"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// newTestStores creates fresh in-memory record and content stores.
func newTestStores(t *testing.T) (record.Store, content.Store) {
	t.Helper()

	records, err := recordmemory.NewMemoryRecordStore(context.Background())
	require.NoError(t, err)

	objects, err := contentmemory.NewMemoryContentStore(context.Background())
	require.NoError(t, err)

	return records, objects
}

// newTestRouter builds a router over fresh stores with the given config.
func newTestRouter(t *testing.T, config Config) http.Handler {
	t.Helper()

	records, objects := newTestStores(t)
	limiter := ratelimiter.NewPerClient(config.RateLimit, config.RateBurst)
	return NewRouter(config, records, objects, limiter)
}

// writeAsset creates a file under root, making parent directories as needed.
func writeAsset(t *testing.T, root, name, payload string) {
	t.Helper()

	full := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(payload), 0o644))
}

func TestAssetDelivery(t *testing.T) {
	root := t.TempDir()
	writeAsset(t, root, "style.css", "body { color: red }")

	router := newTestRouter(t, Config{Root: root, CacheMaxAge: 60})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body { color: red }", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
	assert.Equal(t, "max-age=60", rec.Header().Get("Cache-Control"))
	assert.Equal(t, strconv.Itoa(len("body { color: red }")), rec.Header().Get("Content-Length"))
}

func TestAssetHead(t *testing.T) {
	root := t.TempDir()
	writeAsset(t, root, "page.html", "<html></html>")

	router := newTestRouter(t, Config{Root: root})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/static/page.html", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, strconv.Itoa(len("<html></html>")), rec.Header().Get("Content-Length"))
}

func TestAssetMissing(t *testing.T) {
	router := newTestRouter(t, Config{Root: t.TempDir()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/nope.txt", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssetDirectoryRejected(t *testing.T) {
	root := t.TempDir()
	writeAsset(t, root, filepath.Join("sub", "inner.txt"), "data")

	router := newTestRouter(t, Config{Root: root})

	for _, target := range []string{"/static/sub", "/static/"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, "target %q", target)
	}
}

func TestAssetTraversalContained(t *testing.T) {
	tmp := t.TempDir()
	root := filepath.Join(tmp, "assets")
	writeAsset(t, root, "inside.txt", "inside")
	writeAsset(t, root, filepath.Join("sub", "deep.txt"), "deep")

	// A sibling of the asset root that traversal must never reach.
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "outside.txt"), []byte("secret"), 0o644))

	router := newTestRouter(t, Config{Root: root})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/../outside.txt", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Dot segments that stay inside the root still resolve.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/sub/../inside.txt", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "inside", rec.Body.String())
}

func TestAssetUnknownExtension(t *testing.T) {
	root := t.TempDir()
	writeAsset(t, root, "data.qzx", "\x00\x01\x02")

	router := newTestRouter(t, Config{Root: root})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/data.qzx", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
}

func TestAssetMethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, Config{Root: t.TempDir()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/static/style.css", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, Config{Root: t.TempDir()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `{"status":"ok","checks":{"records":"ok","content":"ok"}}`, rec.Body.String())
}

// failingRecords wraps a record store with a healthcheck that always fails.
type failingRecords struct {
	record.Store
}

func (failingRecords) Healthcheck(ctx context.Context) error {
	return errors.New("backend unreachable")
}

func TestHealthzDegraded(t *testing.T) {
	records, objects := newTestStores(t)
	limiter := ratelimiter.NewPerClient(0, 0)
	router := NewRouter(Config{Root: t.TempDir()}, failingRecords{records}, objects, limiter)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"records":"backend unreachable","content":"ok"}}`, rec.Body.String())
}

func TestRateLimitPerClient(t *testing.T) {
	root := t.TempDir()
	writeAsset(t, root, "a.txt", "a")

	router := newTestRouter(t, Config{Root: root, RateLimit: 1, RateBurst: 1})

	// httptest requests share one default RemoteAddr, so they share a bucket.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/a.txt", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/a.txt", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// A different client gets its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/static/a.txt", nil)
	req.RemoteAddr = "10.9.8.7:4321"
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health probes bypass the limiter entirely.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	root := t.TempDir()

	// Without an initialized registry the endpoint is absent.
	router := newTestRouter(t, Config{Root: root})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	// With metrics enabled the router mounts the Prometheus handler.
	metrics.InitRegistry()
	m := metrics.NewFacadeMetrics()
	require.NotNil(t, m)
	m.RecordDenied("create_file")

	router = newTestRouter(t, Config{Root: root})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "arborfs_fs_permission_denials_total")
}
