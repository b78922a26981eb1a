package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/psdwalk/pkg/psd"
)

func inspectCmd() *cli.Command {
	var (
		filePath      string
		showAll       bool
		showResources bool
		showLayers    bool
		showChannels  bool
		asJSON        bool
		layerLimit    int
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect the structure of a .psd document",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "path to .psd file",
				Destination: &filePath,
				Required:    true,
			},
			&cli.BoolFlag{Name: "all", Usage: "show resources, layers and channel payloads", Destination: &showAll},
			&cli.BoolFlag{Name: "resources", Usage: "list image resources", Destination: &showResources},
			&cli.BoolFlag{Name: "layers", Usage: "list layer records", Destination: &showLayers},
			&cli.BoolFlag{Name: "channels", Usage: "show channel payload framing", Destination: &showChannels},
			&cli.BoolFlag{Name: "json", Usage: "emit the full report as JSON", Destination: &asJSON},
			&cli.IntFlag{Name: "layers-limit", Usage: "limit layer listing (0 = no limit)", Value: 50, Destination: &layerLimit},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			_ = ctx

			if showAll {
				showResources = true
				showLayers = true
				showChannels = true
				if layerLimit == 50 {
					layerLimit = 0
				}
			}

			stat, err := os.Stat(filePath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: stat file %q: %v", filePath, err), 1)
			}
			if stat.IsDir() {
				return cli.Exit("error: psdwalk inspect expects a file, not a directory", 1)
			}

			f, err := psd.Open(filePath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open document: %v", err), 1)
			}
			defer func() { _ = f.Close() }()

			doc := f.Document

			if asJSON {
				b, err := json.MarshalIndent(buildReport(filePath, stat.Size(), doc), "", "  ")
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: encode report: %v", err), 1)
				}
				fmt.Println(string(b))
				return nil
			}

			fmt.Printf("PSD Inspect: %s\n", filePath)
			fmt.Printf("File: %s (%s)\n", filepath.Base(filePath), formatBytes(uint64(stat.Size())))
			printHeader(doc)

			if showResources {
				printResources(doc.Resources)
			}
			if showLayers {
				printLayers(doc, layerLimit, showChannels)
			}

			return nil
		},
	}
}

type channelReport struct {
	ID          uint16 `json:"id"`
	Length      uint32 `json:"length"`
	Compression string `json:"compression"`
	Unsupported bool   `json:"unsupported,omitempty"`
	RawSize     uint32 `json:"raw_size,omitempty"`
	RLELines    int    `json:"rle_lines,omitempty"`
}

type layerReport struct {
	Index     int             `json:"index"`
	Name      string          `json:"name"`
	BlendMode string          `json:"blend_mode"`
	Opacity   uint8           `json:"opacity"`
	Clipping  bool            `json:"clipping"`
	Visible   bool            `json:"visible"`
	Width     uint32          `json:"width"`
	Height    uint32          `json:"height"`
	HasMask   bool            `json:"has_mask"`
	Channels  []channelReport `json:"channels"`
}

type inspectReport struct {
	Path          string        `json:"path"`
	Size          int64         `json:"size"`
	Version       uint16        `json:"version"`
	Channels      uint16        `json:"channels"`
	Width         uint32        `json:"width"`
	Height        uint32        `json:"height"`
	Depth         uint16        `json:"depth"`
	ColorMode     string        `json:"color_mode"`
	MergedAlpha   bool          `json:"merged_alpha"`
	ColorModeData int           `json:"color_mode_data_size"`
	Resources     []resourceRow `json:"resources"`
	Layers        []layerReport `json:"layers"`
}

type resourceRow struct {
	ID   uint16 `json:"id"`
	Name string `json:"name"`
	Size int    `json:"size"`
}

func buildReport(path string, size int64, doc *psd.Document) inspectReport {
	r := inspectReport{
		Path:          path,
		Size:          size,
		Version:       doc.Header.Version,
		Channels:      doc.Header.Channels,
		Width:         doc.Header.Width,
		Height:        doc.Header.Height,
		Depth:         doc.Header.Depth,
		ColorMode:     doc.Header.ColorMode.String(),
		MergedAlpha:   doc.MergedAlpha,
		ColorModeData: len(doc.ColorModeData),
		Resources:     make([]resourceRow, 0, len(doc.Resources)),
		Layers:        make([]layerReport, 0, len(doc.Layers)),
	}
	for _, res := range doc.Resources {
		r.Resources = append(r.Resources, resourceRow{ID: res.ID, Name: res.Name, Size: len(res.Data)})
	}
	for i, layer := range doc.Layers {
		lr := layerReport{
			Index:     i,
			Name:      layer.Name,
			BlendMode: layer.BlendMode,
			Opacity:   layer.Opacity,
			Clipping:  layer.Clipping,
			Visible:   layer.Flags.Visible,
			Width:     layer.Rect.Width(),
			Height:    layer.Rect.Height(),
			HasMask:   layer.Mask != nil,
			Channels:  make([]channelReport, 0, len(layer.Channels)),
		}
		payloads := doc.LayerPayloads(i)
		for j, ch := range layer.Channels {
			cr := channelReport{ID: ch.ID, Length: ch.Length}
			if j < len(payloads) {
				p := payloads[j]
				cr.Compression = p.Compression.String()
				cr.Unsupported = p.Unsupported
				cr.RawSize = p.ExpectedRawSize
				cr.RLELines = len(p.Lines)
			}
			lr.Channels = append(lr.Channels, cr)
		}
		r.Layers = append(r.Layers, lr)
	}
	return r
}

func printHeader(doc *psd.Document) {
	section("Header")
	rowInt("version", int(doc.Header.Version))
	rowInt("channels", int(doc.Header.Channels))
	row("dimensions", fmt.Sprintf("%dx%d", doc.Header.Width, doc.Header.Height))
	rowInt("depth", int(doc.Header.Depth))
	row("color_mode", doc.Header.ColorMode.String())
	row("merged_alpha", fmt.Sprintf("%v", doc.MergedAlpha))
	if len(doc.ColorModeData) > 0 {
		row("color_mode_data", formatBytes(uint64(len(doc.ColorModeData))))
	}
	rowInt("resources", len(doc.Resources))
	rowInt("layers", len(doc.Layers))
}

func printResources(resources []psd.Resource) {
	section("Resources")
	if len(resources) == 0 {
		fmt.Println("(none)")
		return
	}
	for _, r := range resources {
		name := r.Name
		if name == "" {
			name = "-"
		}
		fmt.Printf("%-6d %-24s %s\n", r.ID, name, formatBytes(uint64(len(r.Data))))
	}
}

func printLayers(doc *psd.Document, limit int, showChannels bool) {
	section("Layers")
	if len(doc.Layers) == 0 {
		fmt.Println("(none)")
		return
	}
	printed := 0
	for i, layer := range doc.Layers {
		name := layer.Name
		if name == "" {
			name = "-"
		}
		flags := []string{}
		if layer.Flags.Visible {
			flags = append(flags, "visible")
		}
		if layer.Flags.TransparencyProtected {
			flags = append(flags, "locked")
		}
		if layer.Mask != nil {
			flags = append(flags, "masked")
		}
		flagStr := "none"
		if len(flags) > 0 {
			flagStr = strings.Join(flags, ",")
		}
		fmt.Printf("%-4d %-24s blend=%s opacity=%d %dx%d flags=%s\n",
			i, name, layer.BlendMode, layer.Opacity,
			layer.Rect.Width(), layer.Rect.Height(), flagStr)

		if showChannels {
			payloads := doc.LayerPayloads(i)
			for j, ch := range layer.Channels {
				line := fmt.Sprintf("     channel id=%d len=%s", int16(ch.ID), formatBytes(uint64(ch.Length)))
				if j < len(payloads) {
					p := payloads[j]
					line += " compression=" + p.Compression.String()
					if p.Unsupported {
						line += " (unsupported)"
					}
					if len(p.Lines) > 0 {
						line += fmt.Sprintf(" rle_lines=%d", len(p.Lines))
					}
				}
				fmt.Println(line)
			}
		}

		printed++
		if limit > 0 && printed >= limit {
			break
		}
	}
	if limit > 0 && printed < len(doc.Layers) {
		fmt.Printf("... (%d shown of %d)\n", printed, len(doc.Layers))
	}
}

func section(title string) {
	line := strings.Repeat("-", len(title)+8)
	fmt.Printf("\n%s\n--- %s ---\n%s\n", line, title, line)
}

func row(label, value string) {
	if value == "" {
		return
	}
	fmt.Printf("%-20s %s\n", label+":", value)
}

func rowInt(label string, v int) {
	if v == 0 {
		return
	}
	row(label, fmt.Sprintf("%d", v))
}

func formatBytes(b uint64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.2f GiB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.2f MiB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2f KiB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
