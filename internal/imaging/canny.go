package imaging

import (
	"fmt"
	"image"
	"math"
)

// Separable Sobel factors for the supported apertures.
var (
	sobelSmooth = map[int][]float64{
		3: {1, 2, 1},
		5: {1, 4, 6, 4, 1},
	}
	sobelDeriv = map[int][]float64{
		3: {-1, 0, 1},
		5: {-1, -2, 0, 2, 1},
	}
)

// Canny returns a binary edge map of gray using Canny's method: Sobel
// gradients with the given aperture (3 or 5), non-maximum suppression along
// the gradient direction, then hysteresis. Pixels whose L1 gradient
// magnitude reaches high seed edges; connected pixels down to low extend
// them. Thresholds are in raw Sobel units for 8-bit input, so they scale
// with the aperture the same way OpenCV's do.
//
// Edge pixels are 255, everything else is 0. The result shares gray's
// bounds.
//
// # Algorithm
//
//  1. Gradients: separable Sobel, smoothing across the derivative axis,
//     with replicated borders
//  2. Magnitude: |gx| + |gy|
//  3. Suppression: each pixel is compared with its two neighbours along
//     the gradient direction, quantised to 0, 45, 90 or 135 degrees
//  4. Hysteresis: pixels at or above high seed edges, which grow through
//     8-connected pixels at or above low
//
// # Limitations
//
//   - No Gaussian pre-blur; callers smooth first when the input is noisy
//   - The outermost row and column are never marked
func Canny(gray *image.Gray, low, high float64, aperture int) (*image.Gray, error) {
	smooth, ok := sobelSmooth[aperture]
	if !ok {
		return nil, fmt.Errorf("unsupported Sobel aperture %d (want 3 or 5)", aperture)
	}
	deriv := sobelDeriv[aperture]
	if low > high {
		low, high = high, low
	}

	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	if w < 3 || h < 3 {
		return out, nil
	}

	src := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		for x, v := range row {
			src[y*w+x] = float64(v)
		}
	}

	// gx = smooth(y) * deriv(x), gy = deriv(y) * smooth(x)
	gx := convolveSeparable(src, w, h, smooth, deriv)
	gy := convolveSeparable(src, w, h, deriv, smooth)

	mag := make([]float64, w*h)
	for i := range mag {
		mag[i] = math.Abs(gx[i]) + math.Abs(gy[i])
	}

	const (
		none   = 0
		weak   = 1
		strong = 2
	)
	state := make([]uint8, w*h)
	var stack []int

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			m := mag[i]
			if m < low {
				continue
			}

			var n1, n2 float64
			switch gradientAxis(gx[i], gy[i]) {
			case axisHorizontal:
				n1, n2 = mag[i-1], mag[i+1]
			case axisAntiDiagonal:
				n1, n2 = mag[i-w+1], mag[i+w-1]
			case axisVertical:
				n1, n2 = mag[i-w], mag[i+w]
			default:
				n1, n2 = mag[i-w-1], mag[i+w+1]
			}
			// Strict on one side so flat ridges keep a single pixel.
			if m <= n1 || m < n2 {
				continue
			}

			if m >= high {
				state[i] = strong
				stack = append(stack, i)
			} else {
				state[i] = weak
			}
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out.Pix[(i/w)*out.Stride+i%w] = 255

		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if state[j] == weak {
					state[j] = strong
					stack = append(stack, j)
				}
			}
		}
	}
	return out, nil
}

type axis int

const (
	axisHorizontal   axis = iota // left/right neighbours
	axisDiagonal                 // up-left/down-right
	axisVertical                 // up/down
	axisAntiDiagonal             // up-right/down-left
)

// gradientAxis picks the neighbour pair that lies along the gradient, with
// y growing downward.
func gradientAxis(gx, gy float64) axis {
	angle := math.Atan2(gy, gx) * 180 / math.Pi
	if angle < 0 {
		angle += 180
	}
	switch {
	case angle < 22.5 || angle >= 157.5:
		return axisHorizontal
	case angle < 67.5:
		return axisDiagonal
	case angle < 112.5:
		return axisVertical
	default:
		return axisAntiDiagonal
	}
}

// convolveSeparable applies the column kernel ky then the row kernel kx,
// replicating border pixels.
func convolveSeparable(src []float64, w, h int, ky, kx []float64) []float64 {
	tmp := make([]float64, w*h)
	r := len(ky) / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for k, f := range ky {
				sum += f * src[clamp(y+k-r, 0, h-1)*w+x]
			}
			tmp[y*w+x] = sum
		}
	}

	dst := make([]float64, w*h)
	r = len(kx) / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for k, f := range kx {
				sum += f * tmp[y*w+clamp(x+k-r, 0, w-1)]
			}
			dst[y*w+x] = sum
		}
	}
	return dst
}

func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
