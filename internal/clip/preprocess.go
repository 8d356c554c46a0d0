package clip

import (
	"image"

	"github.com/disintegration/imaging"
)

// DefaultImageSize is the ViT-B/32 input resolution.
const DefaultImageSize = 224

// Normalization constants of the CLIP image transform.
var (
	Mean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	Std  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// Preprocess applies the CLIP transform: resize the shorter side to size with
// bicubic resampling, center crop to size×size, scale to [0,1], and normalize
// per channel. The result is planar CHW, length 3*size*size.
func Preprocess(img image.Image, size int) []float32 {
	// Fill resizes to cover the box and center-crops in one pass; the
	// result is always NRGBA, which drops alpha and expands grayscale.
	sq := imaging.Fill(img, size, size, imaging.Center, imaging.CatmullRom)

	plane := size * size
	out := make([]float32, 3*plane)
	for y := 0; y < size; y++ {
		row := sq.Pix[y*sq.Stride : y*sq.Stride+size*4]
		for x := 0; x < size; x++ {
			px := row[x*4 : x*4+4]
			i := y*size + x
			out[i] = (float32(px[0])/255 - Mean[0]) / Std[0]
			out[plane+i] = (float32(px[1])/255 - Mean[1]) / Std[1]
			out[2*plane+i] = (float32(px[2])/255 - Mean[2]) / Std[2]
		}
	}
	return out
}
