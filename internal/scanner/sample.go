package scanner

import (
	"math"

	"gocv.io/x/gocv"

	"roundcode/internal/code"
	"roundcode/pkg/geometry"
)

// samplePayload maps the canonical data-ring grid through the homography
// and reads one bit per position from the selected mask. The internal
// buffer always starts with the literal finder bytes; the external blob
// is the slice after them.
func samplePayload(h geometry.Homography, mask gocv.Mat) [code.BlobLength]byte {
	var scan [code.ScanBufferLength]byte
	copy(scan[:], code.FinderBytes[:])

	scene := h.ApplyAll(code.SampleGrid())
	rows, cols := mask.Rows(), mask.Cols()

	for j, p := range scene {
		pos := 32 + j
		if pos >= code.ScanBufferLength*8 {
			break
		}

		x := int(math.Floor(p.X))
		y := int(math.Floor(p.Y))
		if x < 0 || y < 0 || x >= cols || y >= rows {
			continue
		}
		if mask.GetUCharAt(y, x) != 0 {
			code.SetBit(scan[:], pos)
		}
	}

	var blob [code.BlobLength]byte
	copy(blob[:], scan[len(code.FinderBytes):])
	return blob
}
