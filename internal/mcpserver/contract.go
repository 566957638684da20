package mcpserver

// LODFormatContract describes how LOD levels are encoded in merged assets
// and how merge manifests are written.
const LODFormatContract = `# lodmerge LOD Format Contract

Assets are glTF 2.0 JSON documents (` + "`" + `.gltf` + "`" + `). A merge takes a primary
document and one or more lower-detail documents and produces a single document
in which every scene root node of the primary carries its coarser versions.

## MSFT_lod

Each node that has LOD levels carries the MSFT_lod extension:

` + "```" + `json
{
  "name": "chair_root",
  "children": [1],
  "extensions": { "MSFT_lod": { "ids": [2, 4] } }
}
` + "```" + `

1. ` + "`" + `ids` + "`" + ` lists node indices ordered from the next coarser level to the coarsest.
2. The node itself is level 0 and is never listed.
3. Materials may carry the same extension with material indices.
4. ` + "`" + `MSFT_lod` + "`" + ` is added to ` + "`" + `extensionsUsed` + "`" + ` of the merged document.

## Screen coverage

When screen coverage is given, every scene root node gets it in extras:

` + "```" + `json
{ "extras": { "MSFT_screencoverage": [0.5, 0.2, 0.05] } }
` + "```" + `

Values are in (0, 1], one per level, highest detail first. Existing extras
fields are kept.

## Topology rules

- All inputs must have the same number of scenes.
- Matching scenes must have the same number of root nodes.
- With more than one root node, roots must appear in the same order in every input.
- The first input's default scene must have at least one root node.

## Merge manifest

` + "```" + `yaml
output: merged/chair.gltf        # REQUIRED, must not be one of the inputs
inputs:                          # REQUIRED, primary first
  - chair.gltf
  - chair_lod1.gltf
  - chair_lod2.gltf
screen_coverage: [0.5, 0.2, 0.05] # OPTIONAL
` + "```" + `

- Paths are relative to the asset directory, use forward slashes and end with ` + "`" + `.gltf` + "`" + `.
- Buffers and images are referenced by URI and are not copied; keep them next to the output.

## Importing assets

Use the ` + "`" + `import_asset` + "`" + ` tool with an http(s) URL or a base64 data URI
(` + "`" + `data:model/gltf+json;base64,...` + "`" + `). The document is validated before it is stored.
`
