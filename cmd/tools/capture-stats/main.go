// Command capture-stats summarizes a raw capture file: per-cell sample
// mean and spread across the capture, and the cells that would dominate
// calibration. Useful for checking foil health before a bench run.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/contact.report/internal/touch/grid"
)

var (
	in  = flag.String("in", "capture.raw", "Capture file to analyze")
	top = flag.Int("top", 5, "Number of noisiest cells to list")
)

func main() {
	flag.Parse()

	data, err := os.ReadFile(*in)
	if err != nil {
		log.Fatalf("failed to read capture: %v", err)
	}
	if len(data) == 0 || len(data)%grid.FrameSize != 0 {
		log.Fatalf("capture is %d bytes, not a whole number of %d-byte frames", len(data), grid.FrameSize)
	}
	frames := len(data) / grid.FrameSize

	// One sample series per grid cell, header cells skipped.
	series := make([][]float64, grid.Dim*grid.Dim)
	for n := 0; n < frames; n++ {
		off := n * grid.FrameSize
		for row := 0; row < grid.Dim; row++ {
			for col := 0; col < grid.Dim; col++ {
				cell := row*grid.Dim + col
				series[cell] = append(series[cell], float64(data[off+grid.Index(row, col, 0)]))
			}
		}
	}

	type cellStats struct {
		row, col     int
		mean, stddev float64
	}
	cells := make([]cellStats, 0, len(series))
	var minMean, maxMean float64
	for cell, samples := range series {
		mean, std := stat.MeanStdDev(samples, nil)
		cs := cellStats{row: cell / grid.Dim, col: cell % grid.Dim, mean: mean, stddev: std}
		if cell == 0 || mean < minMean {
			minMean = mean
		}
		if cell == 0 || mean > maxMean {
			maxMean = mean
		}
		cells = append(cells, cs)
	}

	fmt.Printf("capture: %s, %d frames\n", *in, frames)
	fmt.Printf("per-cell mean range: %.2f .. %.2f\n", minMean, maxMean)

	// Partial selection sort: the noisiest few cells only.
	for i := 0; i < *top && i < len(cells); i++ {
		noisiest := i
		for j := i + 1; j < len(cells); j++ {
			if cells[j].stddev > cells[noisiest].stddev {
				noisiest = j
			}
		}
		cells[i], cells[noisiest] = cells[noisiest], cells[i]
		c := cells[i]
		fmt.Printf("noisy cell (%2d,%2d): mean=%.2f stddev=%.2f\n", c.row, c.col, c.mean, c.stddev)
	}
}
