package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/beluga/pkg/bookshelf"
	"github.com/ssargent/beluga/pkg/bytesx"
	"github.com/ssargent/beluga/pkg/dictfile"
	"github.com/ssargent/beluga/pkg/tree"
)

// writeBelFixture mirrors pkg/dictfile's test fixture writer: spec
// magic, metadata JSON, the entry tree's Deflate-framed nodes, and the
// 24-byte dual-root footer.
func writeBelFixture(t *testing.T, entries map[string]string) string {
	t.Helper()

	entryTree := tree.New(256, 256)
	for k, v := range entries {
		entryTree.Insert(k, []byte(v))
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "sample.bel")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	md := dictfile.Metadata{Version: "1", EntryNum: uint64(len(entries)), Author: "tester"}
	metaBuf, err := json.Marshal(md)
	require.NoError(t, err)

	_, err = f.Write(bytesx.U16(dictfile.SpecMagic))
	require.NoError(t, err)
	_, err = f.Write(bytesx.U32(uint32(len(metaBuf))))
	require.NoError(t, err)
	_, err = f.Write(metaBuf)
	require.NoError(t, err)

	var body bytes.Buffer
	w := tree.NewWriter(&body, uint64(6+len(metaBuf)))
	entryOffset, entrySize, err := entryTree.WriteTo(w)
	require.NoError(t, err)
	_, err = f.Write(body.Bytes())
	require.NoError(t, err)

	footer := append(bytesx.U64(entryOffset), bytesx.U32(entrySize)...)
	footer = append(footer, bytesx.U64(0)...)
	footer = append(footer, bytesx.U32(0)...)
	_, err = f.Write(footer)
	require.NoError(t, err)

	return path
}

// testMetrics is shared by every test server: NewMetrics registers its
// collectors with the default Prometheus registry, which rejects a
// second registration of the same metric names.
var testMetrics = NewMetrics()

func newTestServer(t *testing.T) (*Server, uint32) {
	t.Helper()
	path := writeBelFixture(t, map[string]string{
		"apple":  "<p>apple</p>",
		"banana": "<p>banana</p>",
	})

	shelf := bookshelf.New(1024 * 1024)
	handle, _, err := shelf.Add(path)
	require.NoError(t, err)

	config := ServerConfig{Bind: "127.0.0.1", Port: 8080, APIKey: "secret"}
	return NewServer(shelf, config, testMetrics), handle
}

func withHandle(r *http.Request, raw string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("handle", raw)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)

	s.handleHealth(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, decodeResponse(t, w).Success)
}

func TestHandleSearchEntryFound(t *testing.T) {
	s, handle := newTestServer(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/dictionaries/0/entry?name=apple", nil)
	r = withHandle(r, strconv.FormatUint(uint64(handle), 10))

	s.handleSearchEntry(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, decodeResponse(t, w).Success)
}

func TestHandleSearchEntryNotFound(t *testing.T) {
	s, handle := newTestServer(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/dictionaries/0/entry?name=missing", nil)
	r = withHandle(r, strconv.FormatUint(uint64(handle), 10))

	s.handleSearchEntry(w, r)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleSearch(t *testing.T) {
	s, handle := newTestServer(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/dictionaries/0/search?word=a&prefix_limit=5", nil)
	r = withHandle(r, strconv.FormatUint(uint64(handle), 10))

	s.handleSearch(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, decodeResponse(t, w).Success)
}

func TestHandleAddDictionaryMissingPath(t *testing.T) {
	s, _ := newTestServer(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/dictionaries", bytes.NewBufferString(`{}`))

	s.handleAddDictionary(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleResizeCache(t *testing.T) {
	s, _ := newTestServer(t)
	body, err := json.Marshal(ResizeCacheRequest{CapacityBytes: 2048})
	require.NoError(t, err)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/cache/resize", bytes.NewReader(body))

	s.handleResizeCache(w, r)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestHandleInvalidHandle(t *testing.T) {
	s, _ := newTestServer(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/dictionaries/nope/entry?name=apple", nil)
	r = withHandle(r, "nope")

	s.handleSearchEntry(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
