// Package vision extracts coarse visual descriptors from thumbnail images.
package vision

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"golang.org/x/image/draw"
)

const (
	// Thumbnails are downscaled before analysis; clustering full-resolution
	// frames adds nothing but latency.
	analysisWidth  = 160
	analysisHeight = 90

	dominantColorCount = 3
	edgeThreshold      = 80.0
)

// Features is the set of derived visual descriptors.
type Features struct {
	// DominantColors holds up to three hex-encoded colors, most frequent first.
	DominantColors []string
	// TextDensity is the fraction of pixels that sit on a strong luminance
	// edge, a proxy for overlaid text and graphics.
	TextDensity float64
	// Brightness is the mean luminance, normalized to [0, 1].
	Brightness float64
}

// Analyze computes all features for one image.
func Analyze(img image.Image) (Features, error) {
	if img == nil {
		return Features{}, errors.New("nil image")
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return Features{}, errors.New("empty image")
	}

	small := downscale(img)
	gray := luminance(small)

	colors, err := dominantColors(small)
	if err != nil {
		return Features{}, fmt.Errorf("cluster colors: %w", err)
	}

	return Features{
		DominantColors: colors,
		TextDensity:    edgeDensity(gray),
		Brightness:     meanBrightness(gray),
	}, nil
}

func downscale(img image.Image) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, analysisWidth, analysisHeight))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// dominantColors k-means clusters the pixels in RGB space and returns the
// cluster centers ordered by population.
func dominantColors(img *image.RGBA) ([]string, error) {
	var obs clusters.Observations
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := img.PixOffset(x, y)
			obs = append(obs, clusters.Coordinates{
				float64(img.Pix[i]),
				float64(img.Pix[i+1]),
				float64(img.Pix[i+2]),
			})
		}
	}

	km, err := kmeans.NewWithOptions(0.05, nil)
	if err != nil {
		return nil, err
	}
	cls, err := km.Partition(obs, dominantColorCount)
	if err != nil {
		return nil, err
	}

	sort.Slice(cls, func(i, j int) bool {
		return len(cls[i].Observations) > len(cls[j].Observations)
	})

	out := make([]string, 0, len(cls))
	for _, c := range cls {
		center := c.Center
		out = append(out, fmt.Sprintf("#%02x%02x%02x",
			clampByte(center[0]), clampByte(center[1]), clampByte(center[2])))
	}
	return out, nil
}

// luminance converts to a row-major grayscale buffer in [0, 255].
func luminance(img *image.RGBA) [][]float64 {
	b := img.Bounds()
	out := make([][]float64, b.Dy())
	for y := range out {
		row := make([]float64, b.Dx())
		for x := range row {
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			r := float64(img.Pix[i])
			g := float64(img.Pix[i+1])
			bl := float64(img.Pix[i+2])
			row[x] = 0.299*r + 0.587*g + 0.114*bl
		}
		out[y] = row
	}
	return out
}

// edgeDensity runs a Sobel operator over the grayscale buffer and reports the
// fraction of interior pixels whose gradient magnitude exceeds the threshold.
func edgeDensity(gray [][]float64) float64 {
	h := len(gray)
	if h < 3 {
		return 0
	}
	w := len(gray[0])
	if w < 3 {
		return 0
	}

	edges := 0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -gray[y-1][x-1] + gray[y-1][x+1] +
				-2*gray[y][x-1] + 2*gray[y][x+1] +
				-gray[y+1][x-1] + gray[y+1][x+1]
			gy := -gray[y-1][x-1] - 2*gray[y-1][x] - gray[y-1][x+1] +
				gray[y+1][x-1] + 2*gray[y+1][x] + gray[y+1][x+1]
			if math.Hypot(gx, gy) > edgeThreshold {
				edges++
			}
		}
	}
	return float64(edges) / float64((h-2)*(w-2))
}

func meanBrightness(gray [][]float64) float64 {
	var sum float64
	var n int
	for _, row := range gray {
		for _, v := range row {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / (255 * float64(n))
}

func clampByte(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return int(math.Round(v))
}
