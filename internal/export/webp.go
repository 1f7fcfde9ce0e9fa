package export

import (
	"image"
	"image/color"
	"math"
	"os"

	"github.com/HugoSmits86/nativewebp"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/draw"

	"github.com/san-kum/coilsim/internal/fiducial"
	"github.com/san-kum/coilsim/internal/mesh"
	"github.com/san-kum/coilsim/internal/session"
)

// SurfaceMapOptions controls the rendered surface map. Rendering runs
// at Size*Supersample and is filtered down to Size, which keeps the
// rim and the track free of stair-stepping.
type SurfaceMapOptions struct {
	Size        int
	Supersample int
}

func DefaultSurfaceMapOptions() SurfaceMapOptions {
	return SurfaceMapOptions{Size: 512, Supersample: 2}
}

var (
	surfaceLow  = [3]float64{30, 48, 72}
	surfaceHigh = [3]float64{170, 205, 235}
	trackColor  = color.NRGBA{R: 0, G: 200, B: 255, A: 255}
	pulseColor  = color.NRGBA{R: 255, G: 204, B: 0, A: 255}
)

// SurfaceMap renders the proxy surface top-down as a lit heightfield,
// with the recorded coil track overlaid. ticks may be nil for a bare
// surface render.
func SurfaceMap(proxy *mesh.Mesh, plane fiducial.Plane, ticks []session.TickOutput, opts SurfaceMapOptions) *image.NRGBA {
	if opts.Size <= 0 {
		opts.Size = DefaultSurfaceMapOptions().Size
	}
	if opts.Supersample < 1 {
		opts.Supersample = 1
	}

	res := opts.Size * opts.Supersample
	img := image.NewNRGBA(image.Rect(0, 0, res, res))

	half := float64(res) / 2
	scale := 1.0
	if plane.BaseRadius > 0 {
		scale = (half - float64(4*opts.Supersample)) / plane.BaseRadius
	}
	toPx := func(world mgl64.Vec3) (float64, float64, float64) {
		rel := world.Sub(plane.Origin)
		return half + rel.Dot(plane.U)*scale,
			half - rel.Dot(plane.V)*scale,
			rel.Dot(plane.N)
	}

	light := plane.N.Add(plane.U.Mul(0.5)).Add(plane.V.Mul(0.3)).Normalize()

	zbuf := make([]float64, res*res)
	for i := range zbuf {
		zbuf[i] = math.Inf(-1)
	}

	maxHeight := 0.0
	for _, p := range proxy.Positions {
		if h := p.Sub(plane.Origin).Dot(plane.N); h > maxHeight {
			maxHeight = h
		}
	}
	if maxHeight <= 0 {
		maxHeight = 1
	}

	for ti, tri := range proxy.Tris {
		ax, ay, az := toPx(proxy.Positions[tri[0]])
		bx, by, bz := toPx(proxy.Positions[tri[1]])
		cx, cy, cz := toPx(proxy.Positions[tri[2]])

		shade := proxy.FaceNormal(ti).Dot(light)
		if shade < 0.05 {
			shade = 0.05
		}

		minX := int(math.Floor(math.Min(ax, math.Min(bx, cx))))
		maxX := int(math.Ceil(math.Max(ax, math.Max(bx, cx))))
		minY := int(math.Floor(math.Min(ay, math.Min(by, cy))))
		maxY := int(math.Ceil(math.Max(ay, math.Max(by, cy))))
		if minX < 0 {
			minX = 0
		}
		if minY < 0 {
			minY = 0
		}
		if maxX >= res {
			maxX = res - 1
		}
		if maxY >= res {
			maxY = res - 1
		}

		area := (bx-ax)*(cy-ay) - (by-ay)*(cx-ax)
		if math.Abs(area) < 1e-9 {
			continue
		}

		for y := minY; y <= maxY; y++ {
			for x := minX; x <= maxX; x++ {
				px, py := float64(x)+0.5, float64(y)+0.5
				w0 := ((bx-ax)*(py-ay) - (by-ay)*(px-ax)) / area
				w1 := ((cx-bx)*(py-by) - (cy-by)*(px-bx)) / area
				w2 := 1 - w0 - w1
				if w0 < 0 || w1 < 0 || w2 < 0 {
					continue
				}
				z := w1*az + w2*bz + w0*cz
				idx := y*res + x
				if z <= zbuf[idx] {
					continue
				}
				zbuf[idx] = z

				t := mgl64.Clamp(z/maxHeight, 0, 1)
				img.SetNRGBA(x, y, color.NRGBA{
					R: mix8(surfaceLow[0], surfaceHigh[0], t, shade),
					G: mix8(surfaceLow[1], surfaceHigh[1], t, shade),
					B: mix8(surfaceLow[2], surfaceHigh[2], t, shade),
					A: 255,
				})
			}
		}
	}

	drawTrack(img, ticks, toPx, opts.Supersample)

	if opts.Supersample > 1 {
		img = downsample(img, opts.Size)
	}
	return img
}

func mix8(lo, hi, t, shade float64) uint8 {
	v := (lo + (hi-lo)*t) * shade
	if v > 255 {
		v = 255
	}
	return uint8(v + 0.5)
}

func drawTrack(img *image.NRGBA, ticks []session.TickOutput, toPx func(mgl64.Vec3) (float64, float64, float64), ss int) {
	r := ss
	for _, tk := range ticks {
		x, y, _ := toPx(tk.Position)
		c := trackColor
		rad := r
		if tk.Pulses > 0 {
			c = pulseColor
			rad = 2 * ss
		}
		fillDisc(img, int(x), int(y), rad, c)
	}
}

func fillDisc(img *image.NRGBA, cx, cy, r int, c color.NRGBA) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy > r*r {
				continue
			}
			if image.Pt(cx+dx, cy+dy).In(img.Bounds()) {
				img.SetNRGBA(cx+dx, cy+dy, c)
			}
		}
	}
}

// downsample filters the supersampled render to the target size with
// premultiplied-alpha CatmullRom, the same pipeline as any other image
// resample with transparency.
func downsample(img *image.NRGBA, target int) *image.NRGBA {
	b := img.Bounds()

	premul := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			si := img.PixOffset(x, y)
			di := premul.PixOffset(x, y)
			a := float64(img.Pix[si+3]) / 255.0
			premul.Pix[di] = uint8(float64(img.Pix[si])*a + 0.5)
			premul.Pix[di+1] = uint8(float64(img.Pix[si+1])*a + 0.5)
			premul.Pix[di+2] = uint8(float64(img.Pix[si+2])*a + 0.5)
			premul.Pix[di+3] = img.Pix[si+3]
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, target, target))
	draw.CatmullRom.Scale(dst, dst.Bounds(), premul, premul.Bounds(), draw.Src, nil)

	out := image.NewNRGBA(dst.Bounds())
	for y := 0; y < target; y++ {
		for x := 0; x < target; x++ {
			si := dst.PixOffset(x, y)
			di := out.PixOffset(x, y)
			a := float64(dst.Pix[si+3])
			if a > 1 {
				inv := 255.0 / a
				out.Pix[di] = clamp8(float64(dst.Pix[si]) * inv)
				out.Pix[di+1] = clamp8(float64(dst.Pix[si+1]) * inv)
				out.Pix[di+2] = clamp8(float64(dst.Pix[si+2]) * inv)
			}
			out.Pix[di+3] = dst.Pix[si+3]
		}
	}
	return out
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// WriteWebP encodes an image to path as lossless WebP.
func WriteWebP(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return nativewebp.Encode(f, img, nil)
}
