package tvcanvas

import (
	"strings"
	"testing"

	"github.com/dgnsrekt/chartmark/internal/canvas"
	"github.com/dgnsrekt/chartmark/internal/geometry"
)

func TestShapePayloadToolMapping(t *testing.T) {
	tests := []struct {
		tool     string
		wantTool string
	}{
		{"TrendLine", "trend_line"},
		{"HorizontalLine", "horizontal_line"},
		{"VerticalLine", "vertical_line"},
		{"Rectangle", "rectangle"},
		{"Circle", "ellipse"},
		{"FibonacciRetracement", "fib_retracement"},
	}
	for _, tt := range tests {
		v := canvas.Visual{Tool: tt.tool, Anchors: [2]geometry.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}}
		_, options, ok := shapePayload(v)
		if !ok {
			t.Fatalf("shapePayload(%q) ok = false; want true", tt.tool)
		}
		if options["shape"] != tt.wantTool {
			t.Fatalf("shapePayload(%q) shape = %v; want %q", tt.tool, options["shape"], tt.wantTool)
		}
	}
}

func TestShapePayloadUnknownTool(t *testing.T) {
	if _, _, ok := shapePayload(canvas.Visual{Tool: "Channel"}); ok {
		t.Fatal("shapePayload(Channel) ok = true; want false for unmapped tools")
	}
}

func TestShapePayloadLevelLinesUseOnePoint(t *testing.T) {
	for _, tool := range []string{"HorizontalLine", "VerticalLine"} {
		v := canvas.Visual{Tool: tool, Anchors: [2]geometry.Point{{X: 1, Y: 2}, {X: 5, Y: 6}}}
		points, _, ok := shapePayload(v)
		if !ok {
			t.Fatalf("shapePayload(%q) ok = false", tool)
		}
		if len(points) != 1 {
			t.Fatalf("shapePayload(%q) = %d points; want 1", tool, len(points))
		}
		if points[0].Time != 5 || points[0].Price != 6 {
			t.Fatalf("shapePayload(%q) point = %+v; want the end anchor", tool, points[0])
		}
	}
}

func TestShapePayloadTwoPointShapes(t *testing.T) {
	v := canvas.Visual{Tool: "TrendLine", Anchors: [2]geometry.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}}
	points, _, ok := shapePayload(v)
	if !ok || len(points) != 2 {
		t.Fatalf("shapePayload(TrendLine) = %d points, ok=%v; want 2, true", len(points), ok)
	}
	if points[0] != (shapePoint{Time: 1, Price: 2}) || points[1] != (shapePoint{Time: 3, Price: 4}) {
		t.Fatalf("shapePayload(TrendLine) points = %+v; want both anchors in order", points)
	}
}

func TestShapePayloadFillOverrides(t *testing.T) {
	v := canvas.Visual{
		Tool:    "Rectangle",
		Anchors: [2]geometry.Point{{}, {X: 1, Y: 1}},
		Style:   canvas.Style{LineColor: "#800080", LineWidth: 2, FillColor: "#800080", FillAlpha: 255},
	}
	_, options, ok := shapePayload(v)
	if !ok {
		t.Fatal("shapePayload(Rectangle) ok = false")
	}
	overrides := options["overrides"].(map[string]any)
	if overrides["backgroundColor"] != "#800080" || overrides["fillBackground"] != true {
		t.Fatalf("overrides = %v; want fill background set", overrides)
	}
	if overrides["transparency"] != 0 {
		t.Fatalf("transparency = %v; want 0 for a fully opaque fill", overrides["transparency"])
	}

	v.Style.FillColor = ""
	_, options, _ = shapePayload(v)
	overrides = options["overrides"].(map[string]any)
	if _, has := overrides["backgroundColor"]; has {
		t.Fatal("no-fill style still produced a backgroundColor override")
	}
}

func TestShapePayloadPreviewFlags(t *testing.T) {
	v := canvas.Visual{Tool: "TrendLine", Preview: true, Anchors: [2]geometry.Point{{}, {X: 1, Y: 1}}}
	_, options, _ := shapePayload(v)
	if options["disableSelection"] != true || options["showInObjectsTree"] != false {
		t.Fatalf("preview options = %v; want selection disabled and hidden from tree", options)
	}
}

func TestWrapJSEvalReturnsEnvelopeOnThrow(t *testing.T) {
	js := wrapJSEval(`return JSON.stringify({ok:true});`)
	if !strings.Contains(js, "window.TradingViewApi") {
		t.Fatal("wrapped script missing the API preamble")
	}
	if !strings.Contains(js, `"EVAL_FAILURE"`) {
		t.Fatal("wrapped script missing the catch envelope")
	}
	if strings.Contains(js, "async function") {
		t.Fatal("wrapJSEval produced an async wrapper")
	}
	if !strings.Contains(wrapJSEvalAsync("return 1;"), "async function") {
		t.Fatal("wrapJSEvalAsync did not produce an async wrapper")
	}
}

func TestJSStringQuotes(t *testing.T) {
	got := jsString(`he said "hi"`)
	if got != `"he said \"hi\""` {
		t.Fatalf("jsString() = %s; want properly escaped quotes", got)
	}
}
