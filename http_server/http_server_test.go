package http_server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danthegoodman1/dfgrid/config"
	"github.com/danthegoodman1/dfgrid/datastore"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t *testing.T
	s *HTTPServer
}

func newTestServer(t *testing.T, withStore bool) *testServer {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Pager.MaxPageSize = 50
	deps := Deps{Config: cfg}
	if withStore {
		store, err := datastore.NewDiskDataStore(t.TempDir())
		require.NoError(t, err)
		deps.Store = store
	}
	return &testServer{t: t, s: NewHTTPServer(deps)}
}

func (ts *testServer) do(method, path, body string) (int, map[string]any) {
	ts.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	ts.s.Echo.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func (ts *testServer) session() string {
	ts.t.Helper()
	code, body := ts.do(http.MethodPost, "/sessions", "")
	require.Equal(ts.t, http.StatusCreated, code)
	sid, ok := body["sessionId"].(string)
	require.True(ts.t, ok)
	require.True(ts.t, strings.HasPrefix(sid, "ses_"))
	return sid
}

// load binds a two row frame to "people" and returns its id.
func (ts *testServer) load(sid string) string {
	ts.t.Helper()
	code, body := ts.do(http.MethodPost, "/sessions/"+sid+"/vars/people",
		`{"rows":[{"name":"ada","age":36},{"name":"bob","age":41}]}`)
	require.Equal(ts.t, http.StatusOK, code, body)
	require.Equal(ts.t, "people", body["variableName"])
	require.Equal(ts.t, float64(2), body["totalRows"])
	return body["dfId"].(string)
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, false)
	req := httptest.NewRequest(http.MethodGet, "/hc", nil)
	rec := httptest.NewRecorder()
	ts.s.Echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestUnknownSession(t *testing.T) {
	ts := newTestServer(t, false)
	code, body := ts.do(http.MethodGet, "/sessions/ses_missing/vars", "")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "Session not found: ses_missing", body["error"])

	code, _ = ts.do(http.MethodDelete, "/sessions/ses_missing", "")
	require.Equal(t, http.StatusNotFound, code)
}

func TestLoadAndDisplay(t *testing.T) {
	ts := newTestServer(t, false)
	sid := ts.session()

	code, body := ts.do(http.MethodPost, "/sessions/"+sid+"/vars/events?pageSize=1",
		`{"ndjson":"{\"kind\":\"a\",\"n\":1}\n\n{\"kind\":\"b\",\"n\":2.5}\n"}`)
	require.Equal(t, http.StatusOK, code)
	pageData := body["pageData"].([]any)
	require.Len(t, pageData, 1)
	require.Equal(t, map[string]any{"kind": "a", "n": float64(1)}, pageData[0])
	pagination := body["pagination"].(map[string]any)
	require.Equal(t, float64(2), pagination["totalPages"])
	columns := body["columns"].([]any)
	require.Equal(t, "float64", columns[1].(map[string]any)["dtype"])

	first := body["dfId"].(string)
	code, body = ts.do(http.MethodGet, "/sessions/"+sid+"/vars/events/display", "")
	require.Equal(t, http.StatusOK, code)
	require.NotEqual(t, first, body["dfId"])
	require.Equal(t, float64(25), body["pagination"].(map[string]any)["pageSize"])
	require.Equal(t, float64(0), body["pagination"].(map[string]any)["page"])
	require.Equal(t, map[string]any{"kind": "a", "n": float64(1)}, body["pageData"].([]any)[0])

	code, body = ts.do(http.MethodPost, "/sessions/"+sid+"/vars/clash", `{"rows":[{"__index__":1}]}`)
	require.Equal(t, http.StatusBadRequest, code)
	require.Contains(t, body["error"], "reserved column name")

	code, body = ts.do(http.MethodGet, "/sessions/"+sid+"/vars/nope/display", "")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "Variable not found: nope", body["error"])

	code, _ = ts.do(http.MethodPost, "/sessions/"+sid+"/vars/bad", `{}`)
	require.Equal(t, http.StatusBadRequest, code)
}

func TestPage(t *testing.T) {
	ts := newTestServer(t, false)
	sid := ts.session()
	id := ts.load(sid)

	code, body := ts.do(http.MethodGet, "/sessions/"+sid+"/frames/"+id+"/page?page=9&pageSize=1", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["success"])
	data := body["data"].([]any)
	require.Len(t, data, 1)
	require.Equal(t, float64(1), data[0].(map[string]any)["__index__"])
	require.Equal(t, map[string]any{"page": float64(1), "pageSize": float64(1), "totalRows": float64(2), "totalPages": float64(2)}, body["pagination"])

	code, body = ts.do(http.MethodGet, "/sessions/"+sid+"/frames/"+id+"/page?pageSize=1", "")
	require.Equal(t, http.StatusOK, code)
	data = body["data"].([]any)
	require.Len(t, data, 1)
	require.Equal(t, map[string]any{"__index__": float64(0), "name": "ada", "age": float64(36)}, data[0])
	require.Equal(t, float64(0), body["pagination"].(map[string]any)["page"])

	code, body = ts.do(http.MethodGet, "/sessions/"+sid+"/frames/"+id+"/page?pageSize=500", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, float64(50), body["pagination"].(map[string]any)["pageSize"])

	code, body = ts.do(http.MethodGet, "/sessions/"+sid+"/frames/nope/page", "")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, map[string]any{"success": false, "error": "DataFrame not found: nope"}, body)

	code, _ = ts.do(http.MethodGet, "/sessions/"+sid+"/frames/"+id+"/page?page=abc", "")
	require.Equal(t, http.StatusBadRequest, code)
}

func TestEdits(t *testing.T) {
	ts := newTestServer(t, false)
	sid := ts.session()
	id := ts.load(sid)
	frame := "/sessions/" + sid + "/frames/" + id

	code, body := ts.do(http.MethodPut, frame+"/cells", `{"rowIndex":0,"column":"age","value":"29.9"}`)
	require.Equal(t, http.StatusOK, code, body)
	require.Equal(t, true, body["success"])

	code, body = ts.do(http.MethodPut, frame+"/cells", `{"rowIndex":5,"column":"age","value":1}`)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "Row index out of range: 5", body["error"])

	code, body = ts.do(http.MethodPut, frame+"/cells", `{"rowIndex":0,"column":"age","value":"abc"}`)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, false, body["success"])

	code, _ = ts.do(http.MethodPut, frame+"/cells", `{"column":"age","value":1}`)
	require.Equal(t, http.StatusBadRequest, code)

	code, body = ts.do(http.MethodPost, frame+"/rows", `{"rowData":{"name":"cy","age":"7"}}`)
	require.Equal(t, http.StatusOK, code, body)
	require.Equal(t, float64(3), body["metadata"].(map[string]any)["totalRows"])

	code, body = ts.do(http.MethodPost, frame+"/columns", `{"column":"x","dtype":"int64","defaultValue":"5"}`)
	require.Equal(t, http.StatusOK, code, body)
	columns := body["metadata"].(map[string]any)["columns"].([]any)
	require.Equal(t, map[string]any{"name": "x", "dtype": "int64", "nullable": false}, columns[2])

	code, body = ts.do(http.MethodPost, frame+"/columns", `{"column":"x","dtype":"int64"}`)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "Column already exists: x", body["error"])

	code, body = ts.do(http.MethodPost, frame+"/columns", `{"column":"y","dtype":"decimal"}`)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "Invalid type: decimal. Valid types: int64, float64, string, bool, datetime64, category, object", body["error"])

	code, body = ts.do(http.MethodPatch, frame+"/columns/x", `{"newName":"total"}`)
	require.Equal(t, http.StatusOK, code, body)

	code, body = ts.do(http.MethodPut, frame+"/columns/total/type", `{"newType":"float64"}`)
	require.Equal(t, http.StatusOK, code, body)

	code, body = ts.do(http.MethodDelete, frame+"/columns/nope", "")
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "Column not found: nope", body["error"])

	code, body = ts.do(http.MethodDelete, frame+"/rows/0", "")
	require.Equal(t, http.StatusOK, code, body)
	require.Equal(t, float64(2), body["metadata"].(map[string]any)["totalRows"])

	code, _ = ts.do(http.MethodDelete, frame+"/rows/first", "")
	require.Equal(t, http.StatusBadRequest, code)

	code, body = ts.do(http.MethodDelete, "/sessions/"+sid+"/frames/nope/columns/age", "")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "DataFrame not found: nope", body["error"])

	// edits are visible through the bound variable
	req := httptest.NewRequest(http.MethodGet, "/sessions/"+sid+"/vars", nil)
	rec := httptest.NewRecorder()
	ts.s.Echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var vars []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vars))
	require.Len(t, vars, 1)
	require.Equal(t, "people", vars[0]["name"])
	require.Equal(t, float64(2), vars[0]["totalRows"])
	require.Len(t, vars[0]["columns"], 3)
}

func TestExport(t *testing.T) {
	ts := newTestServer(t, false)
	sid := ts.session()
	id := ts.load(sid)

	code, _ := ts.do(http.MethodPost, "/sessions/"+sid+"/frames/"+id+"/export", `{}`)
	require.Equal(t, http.StatusServiceUnavailable, code)

	ts = newTestServer(t, true)
	sid = ts.session()
	id = ts.load(sid)

	code, body := ts.do(http.MethodPost, "/sessions/"+sid+"/frames/"+id+"/export", `{}`)
	require.Equal(t, http.StatusOK, code, body)
	parts := body["parts"].([]any)
	require.Len(t, parts, 1)
	require.Equal(t, float64(2), parts[0].(map[string]any)["rowCount"])

	code, body = ts.do(http.MethodPost, "/sessions/"+sid+"/frames/"+id+"/export",
		`{"partitioner":[{"func":"value","args":["name"],"as":"name"}]}`)
	require.Equal(t, http.StatusOK, code, body)
	require.Len(t, body["parts"], 2)

	code, _ = ts.do(http.MethodPost, "/sessions/"+sid+"/frames/"+id+"/export",
		`{"partitioner":[{"func":"toDay","args":["name"],"as":"d"}]}`)
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = ts.do(http.MethodPost, "/sessions/"+sid+"/frames/nope/export", `{}`)
	require.Equal(t, http.StatusNotFound, code)

	code, body = ts.do(http.MethodGet, "/sessions/"+sid+"/frames/"+id+"/exports", "")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["parts"], 3)

	code, body = ts.do(http.MethodGet, "/sessions/"+sid+"/frames/never/exports", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, []any{}, body["parts"])
}

func TestSQLWithoutDatabase(t *testing.T) {
	ts := newTestServer(t, false)
	sid := ts.session()
	code, body := ts.do(http.MethodPost, "/sessions/"+sid+"/vars/q/sql", `{"sql":"select 1"}`)
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "no database configured", body["error"])
}

func TestCleanupAndDeleteSession(t *testing.T) {
	ts := newTestServer(t, false)
	sid := ts.session()
	id := ts.load(sid)
	ts.load(sid)

	code, body := ts.do(http.MethodPost, "/sessions/"+sid+"/cleanup", `{"maxAgeMinutes":60}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, map[string]any{"removed": float64(0), "remaining": float64(2)}, body)

	code, body = ts.do(http.MethodPost, "/sessions/"+sid+"/cleanup", `{}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, map[string]any{"removed": float64(2), "remaining": float64(0)}, body)

	code, _ = ts.do(http.MethodGet, "/sessions/"+sid+"/frames/"+id+"/page", "")
	require.Equal(t, http.StatusNotFound, code)

	code, _ = ts.do(http.MethodDelete, "/sessions/"+sid, "")
	require.Equal(t, http.StatusNoContent, code)
	require.Equal(t, 0, ts.s.Sessions.Len())
}
