// Command rendertest renders a payload as a round code image.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"math"
	"os"

	"gocv.io/x/gocv"

	"roundcode/internal/code"
	"roundcode/internal/render"
	"roundcode/internal/version"
)

func main() {
	outPath := flag.String("out", "code.png", "Output image path")
	payloadHex := flag.String("payload", "", "31 data bytes as hex (default all zeros)")
	size := flag.Int("size", 480, "Canvas edge in pixels")
	rotate := flag.Float64("rotate", 0, "Rotation in degrees")
	invert := flag.Bool("invert", false, "Render with inverted polarity")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Long())
		return
	}

	var data [code.DataLength]byte
	if *payloadHex != "" {
		decoded, err := hex.DecodeString(*payloadHex)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Bad payload hex: %v\n", err)
			os.Exit(1)
		}
		if len(decoded) != code.DataLength {
			fmt.Fprintf(os.Stderr, "Payload must be %d bytes, got %d\n", code.DataLength, len(decoded))
			os.Exit(1)
		}
		copy(data[:], decoded)
	}

	blob := code.Wrap(data)

	opts := render.DefaultOptions().
		WithSize(*size).
		WithRotation(*rotate * math.Pi / 180).
		WithInverted(*invert)

	canvas, err := render.Render(blob[:], opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Render failed: %v\n", err)
		os.Exit(1)
	}
	defer canvas.Close()

	if ok := gocv.IMWrite(*outPath, canvas); !ok {
		fmt.Fprintf(os.Stderr, "Failed to write %s\n", *outPath)
		os.Exit(1)
	}

	fmt.Printf("Wrote %s (%dx%d), blob % X\n", *outPath, canvas.Cols(), canvas.Rows(), blob[:])
}
