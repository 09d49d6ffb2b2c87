// cloudgen emits synthetic depth-camera frames in the viewer's serial wire
// format: one line per frame, "width,sample0,sample1,...". Pipe the output
// into a pty (e.g. via socat) to exercise the depth producer without
// hardware.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

var (
	width    = flag.Int("width", 32, "Frame width in samples")
	height   = flag.Int("height", 24, "Frame height in samples")
	frames   = flag.Int("frames", 0, "Number of frames to emit (0 = forever)")
	interval = flag.Duration("interval", 100*time.Millisecond, "Delay between frames")
	seed     = flag.Uint64("seed", 1, "Noise seed")
	out      = flag.String("out", "", "Output file (default stdout)")
)

func main() {
	flag.Parse()

	if *width < 1 || *height < 1 {
		log.Fatal("width and height must be positive")
	}

	dst := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("failed to create output file: %v", err)
		}
		defer f.Close()
		dst = f
	}

	noise := distuv.Normal{Mu: 0, Sigma: 20, Src: rand.NewPCG(*seed, *seed)}

	w := bufio.NewWriter(dst)
	defer w.Flush()

	for frame := 0; *frames == 0 || frame < *frames; frame++ {
		if err := writeFrame(w, frame, noise); err != nil {
			log.Fatalf("write frame: %v", err)
		}
		if err := w.Flush(); err != nil {
			log.Fatalf("flush frame: %v", err)
		}
		if *frames == 0 || frame < *frames-1 {
			time.Sleep(*interval)
		}
	}
}

// writeFrame renders a Gaussian bump drifting across the frame over a flat
// background, plus sensor noise. Background depth sits around 600 units so
// the viewer's calibration lands the floor near z=0.
func writeFrame(w *bufio.Writer, frame int, noise distuv.Normal) error {
	if _, err := w.WriteString(strconv.Itoa(*width)); err != nil {
		return err
	}

	cx := float64(frame%(*width)) // bump drifts one column per frame
	cy := float64(*height) / 2
	sigma := float64(*width) / 8

	for row := 0; row < *height; row++ {
		for col := 0; col < *width; col++ {
			dx := float64(col) - cx
			dy := float64(row) - cy
			bump := 200 * math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma))
			d := 600 - bump + noise.Rand()
			if d < 1 {
				d = 1
			}
			if _, err := fmt.Fprintf(w, ",%.1f", d); err != nil {
				return err
			}
		}
	}
	return w.WriteByte('\n')
}
