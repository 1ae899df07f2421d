package recognize

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	"preloader/internal/pacs"
)

// contrastCutoff is the fraction of darkest and brightest pixels ignored when
// stretching contrast, matching an autocontrast cutoff of 2%.
const contrastCutoff = 0.02

// Preprocess normalizes a screenshot for recognition: grayscale, upscale by
// the given factor (screenshots are ~96 DPI; the engine is tuned for ~300),
// contrast stretch, and sharpen. Returns the result PNG-encoded.
func Preprocess(data []byte, scale int) ([]byte, error) {
	if scale < 1 {
		scale = 1
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, pacs.Wrap(pacs.ErrRecognition, "recognize", "decode image", "", err)
	}

	gray := toGray(src)
	if scale > 1 {
		gray = upscale(gray, scale)
	}
	autocontrast(gray, contrastCutoff)
	sharpened := sharpen(gray)

	var buf bytes.Buffer
	if err := png.Encode(&buf, sharpened); err != nil {
		return nil, fmt.Errorf("encode preprocessed image: %w", err)
	}
	return buf.Bytes(), nil
}

func toGray(src image.Image) *image.Gray {
	bounds := src.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), src, bounds.Min, draw.Src)
	return gray
}

func upscale(src *image.Gray, scale int) *image.Gray {
	bounds := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, bounds.Dx()*scale, bounds.Dy()*scale))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	return dst
}

// autocontrast stretches pixel values linearly so that all but the given
// fraction of darkest and brightest pixels span the full range.
func autocontrast(img *image.Gray, cutoff float64) {
	var hist [256]int
	for _, v := range img.Pix {
		hist[v]++
	}
	total := len(img.Pix)
	if total == 0 {
		return
	}

	ignore := int(float64(total) * cutoff)
	lo, hi := 0, 255
	for count := 0; lo < 255; lo++ {
		count += hist[lo]
		if count > ignore {
			break
		}
	}
	for count := 0; hi > 0; hi-- {
		count += hist[hi]
		if count > ignore {
			break
		}
	}
	if hi <= lo {
		return
	}

	span := float64(hi - lo)
	var lut [256]uint8
	for i := range lut {
		switch {
		case i <= lo:
			lut[i] = 0
		case i >= hi:
			lut[i] = 255
		default:
			lut[i] = uint8(float64(i-lo) / span * 255)
		}
	}
	for i, v := range img.Pix {
		img.Pix[i] = lut[v]
	}
}

// sharpen applies a 3x3 sharpening kernel, leaving the one-pixel border
// untouched.
func sharpen(src *image.Gray) *image.Gray {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	dst := image.NewGray(bounds)
	copy(dst.Pix, src.Pix)
	if w < 3 || h < 3 {
		return dst
	}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			center := int(src.GrayAt(x, y).Y)
			sum := 5*center -
				int(src.GrayAt(x, y-1).Y) -
				int(src.GrayAt(x-1, y).Y) -
				int(src.GrayAt(x+1, y).Y) -
				int(src.GrayAt(x, y+1).Y)
			if sum < 0 {
				sum = 0
			} else if sum > 255 {
				sum = 255
			}
			dst.SetGray(x, y, color.Gray{Y: uint8(sum)})
		}
	}
	return dst
}
