// Package code defines the round-code format: the finder byte sequence,
// the angular template derived from it, the canonical sampling geometry,
// and the framing of the external 35-byte blob.
package code

import (
	"fmt"
	"math"

	"roundcode/pkg/geometry"
)

// FinderBytes is the fixed 32-bit finder sequence, read LSB-first. It is
// a constant of the format; changing it breaks compatibility with every
// code in the wild.
var FinderBytes = [4]byte{0xB2, 0xCB, 0x25, 0xC6}

const (
	// BlobLength is the external payload size in bytes: the four finder
	// bytes followed by 31 data bytes.
	BlobLength = 35

	// DataLength is the number of data bytes following the finder prefix.
	DataLength = BlobLength - len(FinderBytes)

	// ScanBufferLength is the internal scan buffer size: the finder
	// prefix plus the full external blob.
	ScanBufferLength = BlobLength + len(FinderBytes)

	// FinderRunCount is the number of runs of consecutive 1-bits in the
	// finder sequence, i.e. the number of blobs on the orientation ring.
	FinderRunCount = 9

	// Canonical object-space geometry. All scene-dependent scale and
	// perspective is absorbed by the homography, so these never change.
	Modifier       = 42.0
	CenterX        = 195.0
	CenterY        = 195.0
	FinderRadius   = Modifier * 2.025
	AngularQuantum = math.Pi / 16

	// InnerRingRatio relates the center disk diameter to the full code
	// diameter.
	InnerRingRatio = 0.32

	// DataRingCount is the number of concentric data rings.
	DataRingCount = 5

	// The finder ring lives in an annulus around the center disk; the
	// bounds are expressed relative to the disk axes, outer first.
	AnnulusOuterRatio = 1.525
	AnnulusInnerRatio = 0.805

	// InnerDiskRadius is the canonical radius of the solid center disk,
	// placed so the finder ring sits at the midpoint of the annulus.
	InnerDiskRadius = FinderRadius / (AnnulusOuterRatio * (1 + AnnulusInnerRatio) / 2)

	// CodeDiameter is the full canonical diameter of a round code.
	CodeDiameter = 2 * InnerDiskRadius / InnerRingRatio
)

// RingPointCount returns the number of sample positions on data ring r,
// for r in 1..DataRingCount.
func RingPointCount(r int) int {
	return 32 + 8*r
}

// RingRadius returns the canonical radius of data ring r.
func RingRadius(r int) float64 {
	return Modifier * (float64(r+1)*0.4 + 1.8)
}

// finderRuns locates the runs of consecutive 1-bits in FinderBytes,
// LSB-first across the 32 bit positions. Returns the start and end bit
// index of each run, inclusive.
func finderRuns() (starts, ends [FinderRunCount]int) {
	started := false
	run := 0

	for i := 0; i < len(FinderBytes); i++ {
		for j := 0; j < 8; j++ {
			offset := i*8 + j

			if FinderBytes[i]&(1<<j) != 0 {
				if !started {
					started = true
					starts[run] = offset
				}
			} else if started {
				started = false
				ends[run] = offset - 1
				run++
			}
		}
	}

	if started {
		ends[run] = len(FinderBytes)*8 - 1
	}

	return starts, ends
}

// FinderDeltas returns the angular gaps between the centers of
// consecutive finder runs, in clockwise order. Each run center sits at
// AngularQuantum * (start+end)/2.
func FinderDeltas() [FinderRunCount - 1]float64 {
	starts, ends := finderRuns()

	var deltas [FinderRunCount - 1]float64
	last := -1.0

	for i := 0; i < FinderRunCount; i++ {
		center := AngularQuantum * float64(starts[i]+ends[i]) / 2

		if last >= 0 {
			deltas[i-1] = center - last
		}
		last = center
	}

	return deltas
}

// ObjectFinderPoints returns the canonical positions of the nine finder
// blobs: on the finder ring, starting at pi/16 - pi/2 and advancing by
// the template deltas.
func ObjectFinderPoints() [FinderRunCount]geometry.Point2D {
	deltas := FinderDeltas()

	var pts [FinderRunCount]geometry.Point2D
	angle := AngularQuantum - math.Pi/2

	for i := 0; i < FinderRunCount; i++ {
		pts[i] = geometry.Point2D{
			X: FinderRadius*math.Cos(angle) + CenterX,
			Y: FinderRadius*math.Sin(angle) + CenterY,
		}
		if i < FinderRunCount-1 {
			angle += deltas[i]
		}
	}

	return pts
}

// SampleGrid returns the canonical positions of every data ring sample,
// in bit order: ring 1 through ring 5, each ring swept from -pi/2.
func SampleGrid() []geometry.Point2D {
	var pts []geometry.Point2D

	for r := 1; r <= DataRingCount; r++ {
		n := RingPointCount(r)
		radius := RingRadius(r)

		for j := 0; j < n; j++ {
			angle := float64(j)*2*math.Pi/float64(n) - math.Pi/2
			pts = append(pts, geometry.Point2D{
				X: radius*math.Cos(angle) + CenterX,
				Y: radius*math.Sin(angle) + CenterY,
			})
		}
	}

	return pts
}

// Wrap frames data bytes into an external blob with the finder prefix.
func Wrap(data [DataLength]byte) [BlobLength]byte {
	var blob [BlobLength]byte
	copy(blob[:], FinderBytes[:])
	copy(blob[len(FinderBytes):], data[:])
	return blob
}

// Data extracts the data bytes from a validated external blob.
func Data(blob [BlobLength]byte) [DataLength]byte {
	var data [DataLength]byte
	copy(data[:], blob[len(FinderBytes):])
	return data
}

// ValidateBlob checks that a buffer is a well-formed external blob: 35
// bytes long with the finder prefix in bytes 0..3.
func ValidateBlob(blob []byte) error {
	if len(blob) != BlobLength {
		return fmt.Errorf("blob must be %d bytes, got %d", BlobLength, len(blob))
	}
	for i, b := range FinderBytes {
		if blob[i] != b {
			return fmt.Errorf("blob byte %d is 0x%02X, want finder byte 0x%02X", i, blob[i], b)
		}
	}
	return nil
}

// Bit reports whether bit index i of the buffer is set, LSB-first within
// each byte.
func Bit(buf []byte, i int) bool {
	return buf[i/8]&(1<<(i%8)) != 0
}

// SetBit sets bit index i of the buffer, LSB-first within each byte.
func SetBit(buf []byte, i int) {
	buf[i/8] |= 1 << (i % 8)
}
