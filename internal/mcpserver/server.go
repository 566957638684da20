// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes lodmerge tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/lodmerge/internal/manifest"
	"github.com/starford/lodmerge/internal/mergeservice"
)

const lodFormatURI = "lodmerge://lod-format"

// Server wraps the MCP server with lodmerge tools.
type Server struct {
	mcp *server.MCPServer
	svc *mergeservice.Service
}

// New creates a new MCP server with all lodmerge tools registered.
func New(svc *mergeservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"lodmerge",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_assets",
		mcp.WithDescription("Search catalogued glTF assets by path and node, mesh or material names."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchAssets)

	s.mcp.AddTool(mcp.NewTool("list_assets",
		mcp.WithDescription("List catalogued glTF assets with their LOD level counts."),
		mcp.WithBoolean("lod_only", mcp.Description("Only list assets that already have LOD levels")),
	), s.listAssets)

	s.mcp.AddTool(mcp.NewTool("inspect_asset",
		mcp.WithDescription("Report the LOD structure of an asset: scene roots, their LOD node ids and screen coverage."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the asset (e.g. props/chair.gltf)")),
	), s.inspectAsset)

	s.mcp.AddTool(mcp.NewTool("merge_lods",
		mcp.WithDescription("Merge glTF assets into one asset whose scene roots carry MSFT_lod levels. "+
			"The first input is the highest detail level. Read the contract first via "+
			"the get_lod_contract tool or the lodmerge://lod-format resource."),
		mcp.WithString("output", mcp.Required(), mcp.Description("Relative path of the merged asset (must end with .gltf)")),
		mcp.WithArray("inputs", mcp.Required(), mcp.Description("Input asset paths, highest detail first"), mcp.WithStringItems()),
		mcp.WithArray("screen_coverage", mcp.Description("Optional screen coverage per level, each in (0, 1]"), mcp.WithNumberItems()),
	), s.mergeLODs)

	s.mcp.AddTool(mcp.NewTool("get_lod_contract",
		mcp.WithDescription("Returns the lodmerge LOD format contract. "+
			"Call this before merging to understand the topology rules."),
	), s.getLODContract)

	s.mcp.AddTool(mcp.NewTool("import_asset",
		mcp.WithDescription("Import a glTF JSON asset from an http(s) URL or a base64 data URI into the asset directory."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data:model/gltf+json;base64,... URI")),
		mcp.WithString("path", mcp.Description("Optional relative path to store the asset at (defaults to the URL file name)")),
	), s.importAsset)

	// Resource: LOD format contract.
	s.mcp.AddResource(
		mcp.NewResource(lodFormatURI, "LOD Format Contract",
			mcp.WithResourceDescription("How LOD levels and screen coverage are encoded in merged assets."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLODFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchAssets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.SearchAssets(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) listAssets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	assets, total, err := s.svc.ListAssets(ctx, 200, 0, req.GetBool("lod_only", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if total == 0 {
		return mcp.NewToolResultText("no assets found"), nil
	}
	return jsonResult(assets)
}

func (s *Server) inspectAsset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	insp, err := s.svc.Inspect(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(insp)
}

func (s *Server) mergeLODs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	output, err := req.RequireString("output")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	inputs := req.GetStringSlice("inputs", nil)
	coverage := req.GetFloatSlice("screen_coverage", nil)

	m, err := manifest.New(output, inputs, coverage)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.svc.Merge(ctx, m)
	if err != nil {
		if mergeservice.IsClientError(err) {
			return mcp.NewToolResultError(fmt.Sprintf("merge rejected: %v", err)), nil
		}
		return nil, fmt.Errorf("merge_lods: %w", err)
	}
	return jsonResult(rec)
}

func (s *Server) getLODContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(LODFormatContract), nil
}

func (s *Server) readLODFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      lodFormatURI,
			MIMEType: "text/markdown",
			Text:     LODFormatContract,
		},
	}, nil
}
