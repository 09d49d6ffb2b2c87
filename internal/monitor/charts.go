package monitor

import (
	"bytes"
	"fmt"
	"math"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/cloudview/internal/cloud"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

func colorHex(c cloud.RGB) string {
	clamp := func(v float64) int {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 255
		}
		return int(v * 255)
	}
	return fmt.Sprintf("#%02x%02x%02x", clamp(c.R), clamp(c.G), clamp(c.B))
}

// handleScatterChart renders a quick top-down (X/Y) plot of all promoted
// clouds using go-echarts. Debugging-only endpoint (no auth); the point depth
// rides along as the third value so the tooltip still shows it.
func (ws *WebServer) handleScatterChart(w http.ResponseWriter, r *http.Request) {
	snap := ws.supervisor.State().Snapshot()
	if len(snap.Clouds) == 0 {
		ws.writeJSONError(w, http.StatusNotFound, "no clouds promoted yet")
		return
	}

	maxAbs := 0.0
	total := 0
	for _, entry := range snap.Clouds {
		for _, p := range entry.Cloud.Points {
			if math.Abs(p.X) > maxAbs {
				maxAbs = math.Abs(p.X)
			}
			if math.Abs(p.Y) > maxAbs {
				maxAbs = math.Abs(p.Y)
			}
			total++
		}
	}

	// Add a small padding so points at the edges are visible
	pad := maxAbs * 1.05
	if pad == 0 {
		pad = 1.0
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Point Clouds (Top-Down)", Theme: "dark", Width: "900px", Height: "900px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Promoted Clouds", Subtitle: fmt.Sprintf("session=%s clouds=%d points=%d", snap.SessionID, len(snap.Clouds), total)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y", NameLocation: "middle", NameGap: 30}),
	)

	for _, entry := range snap.Clouds {
		data := make([]opts.ScatterData, 0, len(entry.Cloud.Points))
		for _, p := range entry.Cloud.Points {
			data = append(data, opts.ScatterData{Value: []interface{}{p.X, p.Y, p.Z}})
		}
		scatter.AddSeries(
			fmt.Sprintf("cloud-%d", entry.Handle),
			data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: colorHex(entry.Cloud.Color)}),
		)
	}

	if snap.Result != nil {
		matched := make([]opts.ScatterData, 0, len(snap.Result.Matches))
		for _, m := range snap.Result.Matches {
			if m.Target == nil {
				continue
			}
			matched = append(matched, opts.ScatterData{Value: []interface{}{m.Target.X, m.Target.Y, m.Target.Z}})
		}
		if len(matched) > 0 {
			scatter.AddSeries("matched", matched,
				charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}),
				charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ff5252"}),
			)
		}
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
