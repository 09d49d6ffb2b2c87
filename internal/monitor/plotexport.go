package monitor

import (
	"fmt"
	"image/color"
	"net/http"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/cloudview/internal/cloud"
)

func plotColor(c cloud.RGB) color.Color {
	clamp := func(v float64) uint8 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 255
		}
		return uint8(v * 255)
	}
	return color.RGBA{R: clamp(c.R), G: clamp(c.G), B: clamp(c.B), A: 255}
}

// handlePlotPNG exports a side-on (X/Z) orthographic projection of all
// promoted clouds as a PNG. Unlike the echarts endpoint this needs no
// JavaScript, so it works from curl and in image tags.
func (ws *WebServer) handlePlotPNG(w http.ResponseWriter, r *http.Request) {
	snap := ws.supervisor.State().Snapshot()
	if len(snap.Clouds) == 0 {
		ws.writeJSONError(w, http.StatusNotFound, "no clouds promoted yet")
		return
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Clouds (session %s)", snap.SessionID)
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Z"

	for _, entry := range snap.Clouds {
		pts := make(plotter.XYs, 0, len(entry.Cloud.Points))
		for _, pt := range entry.Cloud.Points {
			pts = append(pts, plotter.XY{X: pt.X, Y: pt.Z})
		}
		if len(pts) == 0 {
			continue
		}

		sc, err := plotter.NewScatter(pts)
		if err != nil {
			ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("scatter for cloud %d: %v", entry.Handle, err))
			return
		}
		sc.GlyphStyle.Color = plotColor(entry.Cloud.Color)
		sc.GlyphStyle.Radius = vg.Points(1.5)
		p.Add(sc)
		p.Legend.Add(fmt.Sprintf("cloud-%d", entry.Handle), sc)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(8*vg.Inch, 8*vg.Inch, "png")
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render plot: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := wt.WriteTo(w); err != nil {
		// Client likely went away mid-write; nothing useful to send back.
		return
	}
}
