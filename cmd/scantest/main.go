// Command scantest scans an image file for a round code and prints the
// decoded payload and placement.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"roundcode/internal/scanner"
	"roundcode/internal/version"

	_ "golang.org/x/image/tiff"
)

func main() {
	imagePath := flag.String("image", "", "Path to image (TIFF, PNG, or JPEG)")
	quality := flag.String("quality", "high", "Scan quality: low, medium, high, or best")
	showTiming := flag.Bool("timing", false, "Print per-stage timing")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Long())
		return
	}

	if *imagePath == "" {
		fmt.Println("Usage: scantest -image <path> [-quality low|medium|high|best] [-timing]")
		os.Exit(1)
	}

	q, err := parseQuality(*quality)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// Load image
	f, err := os.Open(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open image: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to decode image: %v\n", err)
		os.Exit(1)
	}

	bounds := img.Bounds()
	fmt.Printf("Loaded %s image: %dx%d pixels\n", format, bounds.Dx(), bounds.Dy())
	fmt.Printf("Quality: %s\n", q)

	// Convert to 8-bit luminance
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)

	params := scanner.DefaultParams().WithQuality(q)
	var timing scanner.Timing
	if *showTiming {
		params = params.WithTiming(&timing)
	}

	result, err := scanner.Scan(gray.Pix, bounds.Dx(), bounds.Dy(), params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
		if *showTiming {
			fmt.Fprintf(os.Stderr, "Timing: %s\n", timing.String())
		}
		os.Exit(1)
	}

	fmt.Printf("\nPayload: % X\n", result.Payload[:])
	fmt.Printf("Center: (%.1f, %.1f)\n", result.Center.X, result.Center.Y)
	fmt.Printf("Diameter: %.1f px\n", result.Diameter)

	fmt.Println("Inverse transform:")
	for i := 0; i < 3; i++ {
		fmt.Printf("  [%12.6f %12.6f %12.6f]\n",
			result.InverseTransform[i][0], result.InverseTransform[i][1], result.InverseTransform[i][2])
	}

	if *showTiming {
		fmt.Printf("\nTiming: %s\n", timing.String())
	}
}

func parseQuality(s string) (scanner.Quality, error) {
	switch s {
	case "low":
		return scanner.QualityLow, nil
	case "medium":
		return scanner.QualityMedium, nil
	case "high":
		return scanner.QualityHigh, nil
	case "best":
		return scanner.QualityBest, nil
	}
	return 0, fmt.Errorf("unknown quality %q", s)
}
