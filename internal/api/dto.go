package api

import (
	"github.com/samcharles93/psdwalk/pkg/psd"
)

type OpenDocumentReq struct {
	Path string `json:"path"`
}

type DocumentSummary struct {
	ID          string `json:"id"`
	Path        string `json:"path"`
	Width       uint32 `json:"width"`
	Height      uint32 `json:"height"`
	Channels    uint16 `json:"channels"`
	Depth       uint16 `json:"depth"`
	ColorMode   string `json:"color_mode"`
	Layers      int    `json:"layers"`
	Resources   int    `json:"resources"`
	MergedAlpha bool   `json:"merged_alpha"`
}

type DocumentList struct {
	Object string            `json:"object"`
	Data   []DocumentSummary `json:"data"`
}

type RectDTO struct {
	Top    uint32 `json:"top"`
	Left   uint32 `json:"left"`
	Bottom uint32 `json:"bottom"`
	Right  uint32 `json:"right"`
}

type ChannelSummary struct {
	ID          uint16 `json:"id"`
	Length      uint32 `json:"length"`
	Compression string `json:"compression"`
	Unsupported bool   `json:"unsupported,omitempty"`
	Lines       int    `json:"lines,omitempty"`
}

type LayerSummary struct {
	Index     int              `json:"index"`
	Name      string           `json:"name"`
	BlendMode string           `json:"blend_mode"`
	Opacity   uint8            `json:"opacity"`
	Clipping  bool             `json:"clipping"`
	Visible   bool             `json:"visible"`
	Rect      RectDTO          `json:"rect"`
	HasMask   bool             `json:"has_mask"`
	Channels  []ChannelSummary `json:"channels"`
}

type LayerList struct {
	Object string         `json:"object"`
	Data   []LayerSummary `json:"data"`
}

type ResourceSummary struct {
	ID   uint16 `json:"id"`
	Name string `json:"name,omitempty"`
	Size int    `json:"size"`
}

type ResourceList struct {
	Object string            `json:"object"`
	Data   []ResourceSummary `json:"data"`
}

type CloseDocumentResp struct {
	ID     string `json:"id"`
	Object string `json:"object"`
	Closed bool   `json:"closed"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func summarize(id string, e *entry) DocumentSummary {
	doc := e.File.Document
	return DocumentSummary{
		ID:          id,
		Path:        e.Path,
		Width:       doc.Header.Width,
		Height:      doc.Header.Height,
		Channels:    doc.Header.Channels,
		Depth:       doc.Header.Depth,
		ColorMode:   doc.Header.ColorMode.String(),
		Layers:      len(doc.Layers),
		Resources:   len(doc.Resources),
		MergedAlpha: doc.MergedAlpha,
	}
}

func summarizeLayers(doc *psd.Document) []LayerSummary {
	out := make([]LayerSummary, len(doc.Layers))
	for i := range doc.Layers {
		rec := &doc.Layers[i]
		payloads := doc.LayerPayloads(i)
		chans := make([]ChannelSummary, len(rec.Channels))
		for j, ch := range rec.Channels {
			p := payloads[j]
			chans[j] = ChannelSummary{
				ID:          ch.ID,
				Length:      ch.Length,
				Compression: p.Compression.String(),
				Unsupported: p.Unsupported,
				Lines:       len(p.Lines),
			}
		}
		out[i] = LayerSummary{
			Index:     i,
			Name:      rec.Name,
			BlendMode: rec.BlendMode,
			Opacity:   rec.Opacity,
			Clipping:  rec.Clipping,
			Visible:   rec.Flags.Visible,
			Rect: RectDTO{
				Top:    rec.Rect.Top,
				Left:   rec.Rect.Left,
				Bottom: rec.Rect.Bottom,
				Right:  rec.Rect.Right,
			},
			HasMask:  rec.Mask != nil,
			Channels: chans,
		}
	}
	return out
}

func summarizeResources(doc *psd.Document) []ResourceSummary {
	out := make([]ResourceSummary, len(doc.Resources))
	for i, res := range doc.Resources {
		out[i] = ResourceSummary{ID: res.ID, Name: res.Name, Size: len(res.Data)}
	}
	return out
}
