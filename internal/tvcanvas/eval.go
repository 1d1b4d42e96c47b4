package tvcanvas

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dgnsrekt/chartmark/internal/canvas"
)

// Every evaluation runs inside a wrapper that returns a JSON envelope
// {ok,data,error_code,error_message} so Go-side handling never depends on
// exception plumbing inside the page.

const jsPreamble = `
var api = window.TradingViewApi;
var chart = api && typeof api.activeChart === "function" ? api.activeChart() : null;`

func wrapJSEval(body string) string {
	return "(function(){\ntry {" + jsPreamble + "\n" + body + `
} catch (e) {
  return JSON.stringify({ok:false,error_code:"EVAL_FAILURE",error_message:String(e && e.message ? e.message : e)});
}
})()`
}

func wrapJSEvalAsync(body string) string {
	return "(async function(){\ntry {" + jsPreamble + "\n" + body + `
} catch (e) {
  return JSON.stringify({ok:false,error_code:"EVAL_FAILURE",error_message:String(e && e.message ? e.message : e)});
}
})()`
}

func jsString(s string) string {
	return strconv.Quote(s)
}

func jsJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

// lineTools maps shape kind names to TradingView line tool names.
var lineTools = map[string]string{
	"TrendLine":            "trend_line",
	"HorizontalLine":       "horizontal_line",
	"VerticalLine":         "vertical_line",
	"Rectangle":            "rectangle",
	"Circle":               "ellipse",
	"FibonacciRetracement": "fib_retracement",
}

type shapePoint struct {
	Time  float64 `json:"time"`
	Price float64 `json:"price"`
}

// shapePayload converts a visual into createMultipointShape arguments. The
// native TradingView tools render their own sweep and fib levels, so only
// the anchors and style overrides travel; composite Segments stay engine-side.
func shapePayload(v canvas.Visual) (points []shapePoint, options map[string]any, ok bool) {
	tool, ok := lineTools[v.Tool]
	if !ok {
		return nil, nil, false
	}
	a, b := v.Anchors[0], v.Anchors[1]
	switch v.Tool {
	case "HorizontalLine":
		points = []shapePoint{{Time: b.X, Price: b.Y}}
	case "VerticalLine":
		points = []shapePoint{{Time: b.X, Price: b.Y}}
	default:
		points = []shapePoint{{Time: a.X, Price: a.Y}, {Time: b.X, Price: b.Y}}
	}

	overrides := map[string]any{
		"linecolor": v.Style.LineColor,
		"linewidth": v.Style.LineWidth,
	}
	if v.Style.FillColor != "" {
		overrides["backgroundColor"] = v.Style.FillColor
		overrides["fillBackground"] = true
		overrides["transparency"] = 100 - int(float64(v.Style.FillAlpha)/255*100)
	}
	options = map[string]any{
		"shape":             tool,
		"overrides":         overrides,
		"disableSave":       true,
		"disableSelection":  v.Preview,
		"showInObjectsTree": !v.Preview,
	}
	return points, options, true
}

func jsCreateShape(points []shapePoint, options map[string]any) string {
	return wrapJSEvalAsync(fmt.Sprintf(`
var points = %s;
var opts = %s;
if (!chart || typeof chart.createMultipointShape !== "function") {
  return JSON.stringify({ok:false,error_code:"API_UNAVAILABLE",error_message:"createMultipointShape unavailable"});
}
var id = await chart.createMultipointShape(points, opts);
if (!id) return JSON.stringify({ok:false,error_code:"EVAL_FAILURE",error_message:"createMultipointShape returned null"});
return JSON.stringify({ok:true,data:{id:String(id)}});
`, jsJSON(points), jsJSON(options)))
}

func jsRemoveShape(id string) string {
	return wrapJSEval(fmt.Sprintf(`
var id = %s;
if (!chart) return JSON.stringify({ok:false,error_code:"API_UNAVAILABLE",error_message:"chart unavailable"});
if (typeof chart.removeEntity !== "function") return JSON.stringify({ok:false,error_code:"API_UNAVAILABLE",error_message:"removeEntity unavailable"});
chart.removeEntity(id, {disableUndo: true});
return JSON.stringify({ok:true,data:{status:"removed"}});
`, jsString(id)))
}

func jsSetVisibility(id string, visible bool) string {
	return wrapJSEval(fmt.Sprintf(`
var id = %s;
var vis = %t;
if (!chart || typeof chart.setEntityVisibility !== "function") {
  return JSON.stringify({ok:false,error_code:"API_UNAVAILABLE",error_message:"setEntityVisibility unavailable"});
}
chart.setEntityVisibility(id, vis);
return JSON.stringify({ok:true,data:{status:"set"}});
`, jsString(id), visible))
}

func jsSetInputEnabled(enabled bool) string {
	return wrapJSEval(fmt.Sprintf(`
var enabled = %t;
if (!chart) return JSON.stringify({ok:false,error_code:"API_UNAVAILABLE",error_message:"chart unavailable"});
if (typeof chart.setScrollEnabled === "function") chart.setScrollEnabled(enabled);
if (typeof chart.setZoomEnabled === "function") chart.setZoomEnabled(enabled);
return JSON.stringify({ok:true,data:{status:"set",enabled:enabled}});
`, enabled))
}

// jsViewInfo collects the visible time/price window and the chart pane's
// pixel size, enough for linear pixel-to-coordinate mapping on the Go side.
func jsViewInfo() string {
	return wrapJSEval(`
if (!chart) return JSON.stringify({ok:false,error_code:"API_UNAVAILABLE",error_message:"chart unavailable"});
var range = typeof chart.getVisibleRange === "function" ? chart.getVisibleRange() : null;
if (!range) return JSON.stringify({ok:false,error_code:"API_UNAVAILABLE",error_message:"getVisibleRange unavailable"});
var priceRange = null;
try {
  var panes = typeof chart.getPanes === "function" ? chart.getPanes() : [];
  var scale = panes.length && typeof panes[0].getMainSourcePriceScale === "function" ? panes[0].getMainSourcePriceScale() : null;
  if (scale && typeof scale.getVisiblePriceRange === "function") priceRange = scale.getVisiblePriceRange();
} catch(_) {}
if (!priceRange) return JSON.stringify({ok:false,error_code:"API_UNAVAILABLE",error_message:"visible price range unavailable"});
var el = document.querySelector(".chart-container") || document.querySelector(".chart-markup-table");
var rect = el ? el.getBoundingClientRect() : {width: 0, height: 0};
return JSON.stringify({ok:true,data:{
  from: range.from, to: range.to,
  min_price: priceRange.from, max_price: priceRange.to,
  width_px: rect.width, height_px: rect.height
}});
`)
}
