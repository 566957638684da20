package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/lodmerge/internal"
	"github.com/starford/lodmerge/internal/gltf"
	"github.com/starford/lodmerge/internal/manifest"
	"github.com/starford/lodmerge/internal/mergeservice"
	pkgconfig "github.com/starford/lodmerge/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func merge(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var m *manifest.Manifest
	if path := cmd.String("manifest"); path != "" {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("read manifest: %w", readErr)
		}
		m, err = manifest.Parse(data)
	} else {
		coverage, parseErr := parseCoverage(cmd.String("coverage"))
		if parseErr != nil {
			return parseErr
		}
		m, err = manifest.New(cmd.String("output"), cmd.Args().Slice(), coverage)
	}
	if err != nil {
		return err
	}

	rec, err := internal.RunMerge(ctx, m, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	return printJSON(rec)
}

func inspect(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("inspect: exactly one file is required")
	}
	path := cmd.Args().First()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	doc, err := gltf.Decode(data)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	insp, err := mergeservice.InspectDocument(path, doc)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	return printJSON(insp)
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg))
}

// parseCoverage parses a comma-separated list such as "0.5,0.2,0.05".
func parseCoverage(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coverage %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	cmd := &cli.Command{
		Name:   "lodmerge",
		Usage:  "Merge glTF assets into a single asset with MSFT_lod levels",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, the asset watcher and the event stream",
				Action: serve,
			},
			{
				Name:      "merge",
				Usage:     "Merge assets as LOD levels, highest detail first",
				ArgsUsage: "<primary.gltf> <lod1.gltf> [lodN.gltf...]",
				Action:    merge,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "manifest",
						Aliases: []string{"m"},
						Usage:   "YAML merge manifest; replaces --output, --coverage and the arguments",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Asset-relative path of the merged file",
					},
					&cli.StringFlag{
						Name:  "coverage",
						Usage: "Comma-separated screen coverage per level, e.g. 0.5,0.2,0.05",
					},
				},
			},
			{
				Name:      "inspect",
				Usage:     "Print the LOD structure of a glTF file",
				ArgsUsage: "<file.gltf>",
				Action:    inspect,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
