// Command gen-frames writes a synthetic raw capture file for dev-mode
// replay: a noisy baseline with an optional touch block pressed partway
// through the capture.
package main

import (
	"flag"
	"log"
	"math/rand"
	"os"

	"github.com/banshee-data/contact.report/internal/touch/grid"
)

var (
	out        = flag.String("out", "capture.raw", "Output capture file")
	frameCount = flag.Int("frames", 1200, "Number of frames to generate")
	base       = flag.Int("base", 100, "Baseline sample level")
	noise      = flag.Int("noise", 3, "Uniform noise amplitude around the baseline")
	seed       = flag.Int64("seed", 1, "Noise seed")

	touchFrom = flag.Int("touch-from", 600, "First frame with the touch pressed (-1 for none)")
	touchRow  = flag.Int("touch-row", 20, "Touch block top row")
	touchCol  = flag.Int("touch-col", 20, "Touch block left column")
	touchSize = flag.Int("touch-size", 3, "Touch block side length in cells")
	touchLift = flag.Int("touch-lift", 120, "Sample lift inside the touch block")
)

func clampSample(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

func main() {
	flag.Parse()

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("failed to create capture: %v", err)
	}
	defer f.Close()

	rng := rand.New(rand.NewSource(*seed))
	frame := make([]byte, grid.FrameSize)
	amplitude := *noise

	for n := 0; n < *frameCount; n++ {
		for i := range frame {
			frame[i] = clampSample(*base + rng.Intn(2*amplitude+1) - amplitude)
		}
		if *touchFrom >= 0 && n >= *touchFrom {
			for row := *touchRow; row < *touchRow+*touchSize; row++ {
				for col := *touchCol; col < *touchCol+*touchSize; col++ {
					idx := grid.Index(row, col, 0)
					frame[idx] = clampSample(int(frame[idx]) + *touchLift)
				}
			}
		}
		if _, err := f.Write(frame); err != nil {
			log.Fatalf("failed to write frame %d: %v", n, err)
		}
	}

	log.Printf("wrote %d frames (%d bytes) to %s", *frameCount, *frameCount*grid.FrameSize, *out)
}
