package render

import (
	"testing"

	"roundcode/internal/code"
	"roundcode/pkg/geometry"
)

func validBlob() []byte {
	blob := code.Wrap([code.DataLength]byte{0x01, 0xFF, 0x3C})
	return blob[:]
}

func TestRenderRejectsBadBlob(t *testing.T) {
	if _, err := Render(make([]byte, 35), DefaultOptions()); err == nil {
		t.Error("blob without finder prefix rendered")
	}
	if _, err := Render(validBlob(), DefaultOptions().WithSize(0)); err == nil {
		t.Error("zero-size canvas rendered")
	}
}

func TestRenderGrayDimensions(t *testing.T) {
	buf, w, h, err := RenderGray(validBlob(), DefaultOptions().WithSize(320))
	if err != nil {
		t.Fatalf("RenderGray: %v", err)
	}

	if w != 320 || h != 320 {
		t.Errorf("canvas = %dx%d, want 320x320", w, h)
	}
	if len(buf) != w*h {
		t.Errorf("buffer length = %d, want %d", len(buf), w*h)
	}
}

func TestRenderPolarity(t *testing.T) {
	opts := DefaultOptions().WithSize(200)

	buf, w, _, err := RenderGray(validBlob(), opts)
	if err != nil {
		t.Fatalf("RenderGray: %v", err)
	}

	center := buf[100*w+100]
	corner := buf[0]
	if center <= corner {
		t.Errorf("standard polarity: center %d not lighter than corner %d", center, corner)
	}

	inv, _, _, err := RenderGray(validBlob(), opts.WithInverted(true))
	if err != nil {
		t.Fatalf("RenderGray inverted: %v", err)
	}
	if inv[100*w+100] >= inv[0] {
		t.Errorf("inverted polarity: center %d not darker than corner %d", inv[100*w+100], inv[0])
	}
}

func TestRenderPlacement(t *testing.T) {
	opts := DefaultOptions().
		WithSize(400).
		WithCenter(geometry.Point2D{X: 150, Y: 250}).
		WithDiameter(120)

	buf, w, _, err := RenderGray(validBlob(), opts)
	if err != nil {
		t.Fatalf("RenderGray: %v", err)
	}

	// The center disk covers the requested center.
	if buf[250*w+150] != lightValue {
		t.Errorf("pixel at code center = %d, want %d", buf[250*w+150], lightValue)
	}
	// Outside the code everything is background.
	if buf[30*w+350] != darkValue {
		t.Errorf("pixel far from code = %d, want %d", buf[30*w+350], darkValue)
	}
}
