package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/renatodap/snapmod-sub000/config"
	"github.com/renatodap/snapmod-sub000/internal/appServer"
	"github.com/renatodap/snapmod-sub000/internal/pkg/filters"
	"github.com/renatodap/snapmod-sub000/internal/pkg/presets"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			appServer.NewServer(cfg)
			return nil
		},
	}
}

func newApplyCmd() *cobra.Command {
	var (
		input   string
		output  string
		format  string
		quality int
		values  map[string]string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Render a photo with the exact filter transform",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseFilters(values)
			if err != nil {
				return err
			}
			src, err := os.ReadFile(input)
			if err != nil {
				return err
			}

			renderer := filters.NewRenderer(filters.NewCodec(filters.OutputFormat(format), quality), filters.RendererOptions{})
			res, err := renderer.Render(context.Background(), src, v)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, res.Data, 0644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %dx%d %s in %s\n", output, res.Width, res.Height, res.MimeType, res.Duration)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Source image (jpeg, png, gif, webp)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Where to write the rendered image")
	cmd.Flags().StringVar(&format, "format", string(filters.FormatJPEG), "Output format (jpeg, png)")
	cmd.Flags().IntVar(&quality, "quality", filters.DefaultJPEGQuality, "JPEG quality")
	cmd.Flags().StringToStringVarP(&values, "set", "s", nil, "Filter values, e.g. --set brightness=20,vignette=40")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("output")
	return cmd
}

func newPreviewCmd() *cobra.Command {
	var values map[string]string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the display-layer composition for a filter vector",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseFilters(values)
			if err != nil {
				return err
			}
			comp := filters.Preview(v)
			fmt.Fprintln(cmd.OutOrStdout(), comp.CSS())
			return nil
		},
	}

	cmd.Flags().StringToStringVarP(&values, "set", "s", nil, "Filter values, e.g. --set contrast=30")
	return cmd
}

func newPresetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Inspect and combine the built-in style presets",
	}

	var category string
	list := &cobra.Command{
		Use:   "list",
		Short: "List built-in presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			items := presets.Builtin()
			if category != "" {
				items = presets.ByCategory(presets.Category(category))
			}
			return writeJSON(cmd.OutOrStdout(), items)
		},
	}
	list.Flags().StringVar(&category, "category", "", "Only presets of this category")

	combine := &cobra.Command{
		Use:   "combine <preset-id>...",
		Short: "Merge preset prompts into one AI edit instruction",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := presets.Resolve(args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), presets.Combine(selected))
			return nil
		},
	}

	cmd.AddCommand(list, combine)
	return cmd
}

func parseFilters(values map[string]string) (filters.Vector, error) {
	parsed := make(map[string]float64, len(values))
	for name, raw := range values {
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return filters.Vector{}, fmt.Errorf("invalid value for %s: %w", name, err)
		}
		parsed[name] = f
	}
	return filters.FromMap(parsed)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
