package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/starford/lodmerge/internal/mergeservice"
	"github.com/starford/lodmerge/internal/models"
	"github.com/starford/lodmerge/internal/storage"
	"github.com/starford/lodmerge/internal/testutil"
)

// testEnv sets up a temp asset directory, SQLite catalog, service, and router.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (*mergeservice.Service, http.Handler, storage.Provider) {
	t.Helper()
	return testEnvWithSSE(t, authToken != "", authToken, nil)
}

func testEnvWithSSE(t *testing.T, authEnabled bool, token string, sseHandler http.Handler) (*mergeservice.Service, http.Handler, storage.Provider) {
	t.Helper()
	_, store := testutil.TestAssets(t)
	db := testutil.TestDB(t)
	testutil.WriteAssets(t, store, "chair", "chair_lod1", "chair_lod2")

	svc := mergeservice.NewService(store, db)
	router := NewRouter(svc, authEnabled, token, sseHandler)
	return svc, router, store
}

func do(router http.Handler, method, target string, body []byte, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateMergeAndGet(t *testing.T) {
	_, router, store := testEnv(t, "")

	body, _ := json.Marshal(MergeRequest{
		Output:         "merged/chair.gltf",
		Inputs:         []string{"chair.gltf", "chair_lod1.gltf", "chair_lod2.gltf"},
		ScreenCoverage: []float64{0.5, 0.2, 0.05},
	})
	w := do(router, http.MethodPost, "/merges", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("merge status = %d, body = %s", w.Code, w.Body.String())
	}
	var rec models.Merge
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.LODLevels != 2 {
		t.Errorf("lod levels = %d, want 2", rec.LODLevels)
	}
	if _, err := store.Read("merged/chair.gltf"); err != nil {
		t.Errorf("merged file not written: %v", err)
	}

	w = do(router, http.MethodGet, "/merges/"+strconv.FormatInt(rec.ID, 10), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get merge status = %d", w.Code)
	}

	w = do(router, http.MethodGet, "/merges", nil)
	var list MergeListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if list.Total != 1 || len(list.Merges) != 1 {
		t.Errorf("merges = %d/%d, want 1/1", len(list.Merges), list.Total)
	}
}

func TestCreateMerge_YAMLManifest(t *testing.T) {
	_, router, _ := testEnv(t, "")

	manifest := []byte("output: chair_merged.gltf\ninputs:\n  - chair.gltf\n  - chair_lod1.gltf\nscreen_coverage: [0.4, 0.1]\n")
	w := do(router, http.MethodPost, "/merges", manifest, "Content-Type", "application/yaml")
	if w.Code != http.StatusCreated {
		t.Fatalf("yaml merge status = %d, body = %s", w.Code, w.Body.String())
	}
	var rec models.Merge
	_ = json.Unmarshal(w.Body.Bytes(), &rec)
	if rec.Output != "chair_merged.gltf" {
		t.Errorf("output = %q", rec.Output)
	}
	if rec.LODLevels != 1 {
		t.Errorf("lod levels = %d, want 1", rec.LODLevels)
	}
}

func TestCreateMerge_InvalidJSON(t *testing.T) {
	_, router, _ := testEnv(t, "")

	w := do(router, http.MethodPost, "/merges", []byte("{"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", w.Code)
	}
}

func TestCreateMerge_InvalidManifest(t *testing.T) {
	_, router, _ := testEnv(t, "")

	body, _ := json.Marshal(MergeRequest{Output: "out.gltf"})
	w := do(router, http.MethodPost, "/merges", body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("no inputs = %d, want 422", w.Code)
	}
}

func TestCreateMerge_MissingInput(t *testing.T) {
	_, router, _ := testEnv(t, "")

	body, _ := json.Marshal(MergeRequest{Output: "out.gltf", Inputs: []string{"chair.gltf", "nope.gltf"}})
	w := do(router, http.MethodPost, "/merges", body)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing input = %d, want 404", w.Code)
	}
}

func TestCreateMerge_IncompatibleTopology(t *testing.T) {
	_, router, store := testEnv(t, "")

	twoRoots := `{"asset":{"version":"2.0"},"scenes":[{"nodes":[0,1]}],"nodes":[{"name":"a"},{"name":"b"}]}`
	if err := store.Write("two.gltf", []byte(twoRoots)); err != nil {
		t.Fatal(err)
	}
	body, _ := json.Marshal(MergeRequest{Output: "out.gltf", Inputs: []string{"chair.gltf", "two.gltf"}})
	w := do(router, http.MethodPost, "/merges", body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("mismatched roots = %d, want 422", w.Code)
	}
}

func TestGetMerge_NotFound(t *testing.T) {
	_, router, _ := testEnv(t, "")

	if w := do(router, http.MethodGet, "/merges/99", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing merge = %d, want 404", w.Code)
	}
	if w := do(router, http.MethodGet, "/merges/abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id = %d, want 400", w.Code)
	}
}

func TestGetAsset_Inspection(t *testing.T) {
	_, router, _ := testEnv(t, "")

	w := do(router, http.MethodGet, "/assets/chair.gltf", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get asset status = %d, body = %s", w.Code, w.Body.String())
	}
	var detail AssetDetail
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatal(err)
	}
	if detail.Inspection == nil || detail.Inspection.Nodes != 2 {
		t.Errorf("inspection = %+v", detail.Inspection)
	}
	if detail.Inspection.LODLevels != 0 {
		t.Errorf("lod levels = %d, want 0", detail.Inspection.LODLevels)
	}
}

func TestGetAsset_NotFound(t *testing.T) {
	_, router, _ := testEnv(t, "")

	if w := do(router, http.MethodGet, "/assets/nope.gltf", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing asset = %d, want 404", w.Code)
	}
}

func TestPutListDeleteAsset(t *testing.T) {
	_, router, _ := testEnv(t, "")

	w := do(router, http.MethodPut, "/assets/props/lamp.gltf", testutil.Asset("lamp"))
	if w.Code != http.StatusOK {
		t.Fatalf("put status = %d, body = %s", w.Code, w.Body.String())
	}
	var asset models.Asset
	_ = json.Unmarshal(w.Body.Bytes(), &asset)
	if asset.Path != "props/lamp.gltf" {
		t.Errorf("path = %q", asset.Path)
	}

	w = do(router, http.MethodGet, "/assets", nil)
	var list AssetListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if list.Total != 1 {
		t.Errorf("total = %d, want 1", list.Total)
	}

	// Encoded slashes resolve to the same asset.
	if w = do(router, http.MethodGet, "/assets/props%2Flamp.gltf", nil); w.Code != http.StatusOK {
		t.Errorf("encoded get = %d, want 200", w.Code)
	}

	if w = do(router, http.MethodDelete, "/assets/props/lamp.gltf", nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	if w = do(router, http.MethodGet, "/assets/props/lamp.gltf", nil); w.Code != http.StatusNotFound {
		t.Errorf("after delete = %d, want 404", w.Code)
	}
}

func TestPutAsset_Invalid(t *testing.T) {
	_, router, _ := testEnv(t, "")

	if w := do(router, http.MethodPut, "/assets/bad.gltf", []byte("not json")); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad document = %d, want 422", w.Code)
	}
	if w := do(router, http.MethodPut, "/assets/lamp.txt", testutil.Asset("lamp")); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad extension = %d, want 422", w.Code)
	}
}

func TestMoveAsset(t *testing.T) {
	_, router, store := testEnv(t, "")

	if w := do(router, http.MethodPut, "/assets/lamp.gltf", testutil.Asset("lamp")); w.Code != http.StatusOK {
		t.Fatalf("put status = %d", w.Code)
	}
	w := do(router, http.MethodPatch, "/assets/lamp.gltf", []byte(`{"path":"archive/lamp.gltf"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("move status = %d, body = %s", w.Code, w.Body.String())
	}
	var asset models.Asset
	_ = json.Unmarshal(w.Body.Bytes(), &asset)
	if asset.Path != "archive/lamp.gltf" {
		t.Errorf("path = %q", asset.Path)
	}
	if _, err := store.Read("archive/lamp.gltf"); err != nil {
		t.Errorf("read moved asset: %v", err)
	}
	if w = do(router, http.MethodGet, "/assets/lamp.gltf", nil); w.Code != http.StatusNotFound {
		t.Errorf("old path = %d, want 404", w.Code)
	}
	if w = do(router, http.MethodGet, "/assets/archive/lamp.gltf", nil); w.Code != http.StatusOK {
		t.Errorf("new path = %d, want 200", w.Code)
	}
}

func TestMoveAsset_Errors(t *testing.T) {
	_, router, _ := testEnv(t, "")
	for _, name := range []string{"a", "b"} {
		if w := do(router, http.MethodPut, "/assets/"+name+".gltf", testutil.Asset(name)); w.Code != http.StatusOK {
			t.Fatalf("put %s status = %d", name, w.Code)
		}
	}

	cases := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{"existing target", "/assets/a.gltf", `{"path":"b.gltf"}`, http.StatusConflict},
		{"missing source", "/assets/nope.gltf", `{"path":"c.gltf"}`, http.StatusNotFound},
		{"invalid json", "/assets/a.gltf", `{`, http.StatusBadRequest},
		{"escaping target", "/assets/a.gltf", `{"path":"../c.gltf"}`, http.StatusUnprocessableEntity},
		{"empty target", "/assets/a.gltf", `{}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := do(router, http.MethodPatch, tc.target, []byte(tc.body)); w.Code != tc.want {
				t.Errorf("status = %d, want %d, body = %s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestDeleteAsset_NotFound(t *testing.T) {
	_, router, _ := testEnv(t, "")

	if w := do(router, http.MethodDelete, "/assets/nope.gltf", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing delete = %d, want 404", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, router, _ := testEnv(t, "")

	if w := do(router, http.MethodPut, "/assets/lamp.gltf", testutil.Asset("lamp")); w.Code != http.StatusOK {
		t.Fatalf("put status = %d", w.Code)
	}
	w := do(router, http.MethodGet, "/search?q=lamp", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search status = %d", w.Code)
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) == 0 {
		t.Error("expected search results")
	}
}

func TestSearchMissingQuery(t *testing.T) {
	_, router, _ := testEnv(t, "")

	if w := do(router, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing q = %d, want 400", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router, _ := testEnv(t, "secret123")

	w := do(router, http.MethodGet, "/assets", nil, "Authorization", "Bearer secret123")
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router, _ := testEnv(t, "secret123")

	if w := do(router, http.MethodGet, "/assets", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router, _ := testEnv(t, "secret123")

	w := do(router, http.MethodPost, "/merges", []byte("{}"), "Authorization", "Bearer wrong")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router, _ := testEnv(t, "")

	if w := do(router, http.MethodGet, "/assets", nil); w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// blockingSSE writes stream headers and blocks until the request is done.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router, _ := testEnvWithSSE(t, true, "secret", blockingSSE)

	if w := do(router, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router, _ := testEnvWithSSE(t, true, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("content type = %q", ct)
	}
}
