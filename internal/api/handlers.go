package api

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lodmerge/internal/manifest"
	"github.com/starford/lodmerge/internal/mergeservice"
	"github.com/starford/lodmerge/internal/models"
)

const maxManifestBytes = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *mergeservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *mergeservice.Service) *Handler {
	return &Handler{svc: svc}
}

// assetPath extracts the asset path from the URL (everything after /assets/).
// Supports encoded slashes from OpenAPI clients (e.g. props%2Fchair.gltf).
func assetPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func pageParams(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit, _ = strconv.Atoi(q.Get("limit"))
	offset, _ = strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ListAssets handles GET /assets.
//
//	@Summary		List catalogued assets
//	@Tags			assets
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			lod		query		bool	false	"Only assets with LOD levels"
//	@Success		200		{object}	AssetListResponse
//	@Security		BearerAuth
//	@Router			/assets [get]
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	lodOnly, _ := strconv.ParseBool(r.URL.Query().Get("lod"))

	items, total, err := h.svc.ListAssets(r.Context(), limit, offset, lodOnly)
	if err != nil {
		writeError(w, "list assets", err)
		return
	}
	writeJSON(w, http.StatusOK, AssetListResponse{Assets: items, Total: total})
}

// GetAsset handles GET /assets/*.
//
//	@Summary		Inspect the LOD structure of an asset
//	@Tags			assets
//	@Produce		json
//	@Param			path	path		string	true	"Asset path"
//	@Success		200		{object}	AssetDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/assets/{path} [get]
func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	p := assetPath(r)
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	insp, err := h.svc.Inspect(r.Context(), p)
	if err != nil {
		writeError(w, "inspect asset", err)
		return
	}
	// The catalog may lag behind the file system; the inspection is authoritative.
	asset, _ := h.svc.GetAsset(r.Context(), p)
	writeJSON(w, http.StatusOK, AssetDetail{Asset: asset, Inspection: insp})
}

// PutAsset handles PUT /assets/*.
//
//	@Summary		Upload or replace a glTF asset
//	@Tags			assets
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string	true	"Asset path"
//	@Success		200		{object}	models.Asset
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/assets/{path} [put]
func (h *Handler) PutAsset(w http.ResponseWriter, r *http.Request) {
	p := assetPath(r)
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, mergeservice.MaxAssetSize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("asset too large"))
		return
	}
	asset, err := h.svc.PutAsset(r.Context(), p, data)
	if err != nil {
		writeError(w, "put asset", err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

// MoveAsset handles PATCH /assets/*.
//
//	@Summary		Move or rename an asset
//	@Tags			assets
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string		true	"Asset path"
//	@Param			body	body		MoveRequest	true	"New path"
//	@Success		200		{object}	models.Asset
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/assets/{path} [patch]
func (h *Handler) MoveAsset(w http.ResponseWriter, r *http.Request) {
	p := assetPath(r)
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	asset, err := h.svc.MoveAsset(r.Context(), p, req.Path)
	if err != nil {
		writeError(w, "move asset", err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

// DeleteAsset handles DELETE /assets/*.
//
//	@Summary		Delete an asset
//	@Tags			assets
//	@Param			path	path	string	true	"Asset path"
//	@Success		204
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/assets/{path} [delete]
func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	p := assetPath(r)
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeleteAsset(r.Context(), p); err != nil {
		writeError(w, "delete asset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /search?q=...
//
//	@Summary		Search assets by path and entity names
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.SearchAssets(r.Context(), query, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// CreateMerge handles POST /merges. The body is either a MergeRequest in
// JSON or a YAML merge manifest (Content-Type application/yaml).
//
//	@Summary		Merge documents as LOD levels
//	@Tags			merges
//	@Accept			json
//	@Accept			application/yaml
//	@Produce		json
//	@Param			body	body		MergeRequest	true	"Merge to run"
//	@Success		201		{object}	models.Merge
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/merges [post]
func (h *Handler) CreateMerge(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxManifestBytes)

	var (
		m   *manifest.Manifest
		err error
	)
	if isYAML(r.Header.Get("Content-Type")) {
		data, readErr := io.ReadAll(r.Body)
		if readErr != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid body"))
			return
		}
		m, err = manifest.Parse(data)
	} else {
		var req MergeRequest
		if decErr := json.NewDecoder(r.Body).Decode(&req); decErr != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return
		}
		m, err = manifest.New(req.Output, req.Inputs, req.ScreenCoverage)
	}
	if err != nil {
		writeError(w, "parse manifest", err)
		return
	}

	rec, err := h.svc.Merge(r.Context(), m)
	if err != nil {
		writeError(w, "merge", err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// ListMerges handles GET /merges.
//
//	@Summary		List recorded merges, newest first
//	@Tags			merges
//	@Produce		json
//	@Param			limit	query		int	false	"Page size"
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	MergeListResponse
//	@Security		BearerAuth
//	@Router			/merges [get]
func (h *Handler) ListMerges(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	items, total, err := h.svc.ListMerges(r.Context(), limit, offset)
	if err != nil {
		writeError(w, "list merges", err)
		return
	}
	writeJSON(w, http.StatusOK, MergeListResponse{Merges: items, Total: total})
}

// GetMerge handles GET /merges/{id}.
//
//	@Summary		Get a recorded merge
//	@Tags			merges
//	@Produce		json
//	@Param			id	path		int	true	"Merge id"
//	@Success		200	{object}	models.Merge
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/merges/{id} [get]
func (h *Handler) GetMerge(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid merge id"))
		return
	}
	var rec *models.Merge
	if rec, err = h.svc.GetMerge(r.Context(), id); err != nil {
		writeError(w, "get merge", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func isYAML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return true
	}
	return false
}
