// Package codec serializes the shape collection to the versioned annotation
// document format and reconstructs shapes from it through the strategy
// registry. Loading fully replaces the in-memory shape set; documents are
// never merged.
package codec

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgnsrekt/chartmark/internal/annotate"
	"github.com/dgnsrekt/chartmark/internal/canvas"
	"github.com/dgnsrekt/chartmark/internal/geometry"
)

// Version is the document format version stamped on save.
const Version = 1

// ShapeRecord is the serializable projection of one shape. FillColor is null
// for non-fillable kinds.
type ShapeRecord struct {
	ShapeType string  `json:"ShapeType"`
	X1        float64 `json:"X1"`
	Y1        float64 `json:"Y1"`
	X2        float64 `json:"X2"`
	Y2        float64 `json:"Y2"`
	LineColor string  `json:"LineColor"`
	LineWidth float64 `json:"LineWidth"`
	FillColor *string `json:"FillColor"`
	FillAlpha int     `json:"FillAlpha"`
}

// Document is the persisted annotation set, shapes in insertion order.
type Document struct {
	Version int           `json:"Version"`
	Shapes  []ShapeRecord `json:"Shapes"`
}

// Encode maps each shape to its record 1:1, preserving order.
func Encode(shapes []*annotate.Shape) Document {
	doc := Document{Version: Version, Shapes: make([]ShapeRecord, 0, len(shapes))}
	for _, s := range shapes {
		rec := ShapeRecord{
			ShapeType: s.Kind.String(),
			X1:        s.Start.X,
			Y1:        s.Start.Y,
			X2:        s.End.X,
			Y2:        s.End.Y,
			LineColor: s.Style.LineColor,
			LineWidth: s.Style.LineWidth,
			FillAlpha: int(s.Style.FillAlpha),
		}
		if s.Kind.Fillable() && s.Style.FillColor != "" {
			fill := s.Style.FillColor
			rec.FillColor = &fill
		}
		doc.Shapes = append(doc.Shapes, rec)
	}
	return doc
}

// Materialize reconstructs shapes from a document. Each record's ShapeType
// is resolved through the registry; records with unknown or unregistered
// types are skipped so documents from future versions degrade gracefully.
// Returns the fresh shapes and the number of records skipped.
func Materialize(doc Document, reg *annotate.Registry) ([]*annotate.Shape, int) {
	shapes := make([]*annotate.Shape, 0, len(doc.Shapes))
	skipped := 0
	for _, rec := range doc.Shapes {
		kind, ok := annotate.ParseShapeKind(rec.ShapeType)
		if !ok || !reg.Registered(kind) {
			slog.Warn("skipping unrecognized shape record", "shape_type", rec.ShapeType)
			skipped++
			continue
		}
		start := geometry.Point{X: rec.X1, Y: rec.Y1}
		end := geometry.Point{X: rec.X2, Y: rec.Y2}
		visual, ok := reg.Lookup(kind).Final(start, end)
		if !ok {
			skipped++
			continue
		}
		style := canvas.Style{
			LineColor: rec.LineColor,
			LineWidth: rec.LineWidth,
			FillAlpha: uint8(rec.FillAlpha),
		}
		if rec.FillColor != nil && kind.Fillable() {
			style.FillColor = *rec.FillColor
		}
		shapes = append(shapes, annotate.NewShape(kind, start, end, style, visual))
	}
	return shapes, skipped
}

// WriteFile persists a document to an explicit path.
func WriteFile(path string, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("codec: marshal document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("codec: write %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a document from an explicit path. A missing file surfaces
// as NOT_FOUND with no state change; the caller's shapes are untouched.
func ReadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, annotate.NewError(annotate.CodeNotFound, "annotation file not found: "+path, nil)
		}
		return Document{}, fmt.Errorf("codec: read %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("codec: unmarshal %s: %w", path, err)
	}
	return doc, nil
}
