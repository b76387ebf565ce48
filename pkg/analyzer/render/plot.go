package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/eligwz/spectrogram"
)

// RenderError marks a failed visualization. Callers treat it as non-fatal:
// the report ships without an image.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return fmt.Sprintf("render: %v", e.Err) }
func (e *RenderError) Unwrap() error { return e.Err }

// Input carries every signal the composite figure can show. Empty slices
// simply leave their panel blank; the output stays deterministic for
// identical inputs and options.
type Input struct {
	Duration   float64
	OnsetEnv   []float64
	PLP        []float64
	Harmonic   []float64
	Percussive []float64
	FrameRate  float64 // envelope frames per second

	Beats     []float64
	PLPBeats  []float64
	Downbeats []float64

	Samples    []float64
	SampleRate int
}

// Options fixes the figure geometry.
type Options struct {
	Width       int
	PanelHeight int
	StripHeight int
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 1200
	}
	if o.PanelHeight <= 0 {
		o.PanelHeight = 220
	}
	if o.StripHeight <= 0 {
		o.StripHeight = 128
	}
	return o
}

var (
	colBackground = color.RGBA{255, 255, 255, 255}
	colFrame      = color.RGBA{60, 60, 60, 255}
	colOnset      = color.RGBA{21, 101, 192, 255} // matches the onset event color
	colBeat       = color.RGBA{198, 40, 40, 255}  // matches the beat event color
	colMeasure    = color.RGBA{46, 125, 50, 255}  // matches the measure event color
	colHarmonic   = color.RGBA{48, 63, 159, 200}
	colPercussive = color.RGBA{230, 81, 0, 200}
)

// ComposePNG renders the stacked panels (onset+beats, PLP+pulse peaks,
// harmonic/percussive+downbeats, spectrogram strip) into one PNG.
func ComposePNG(in Input, opts Options) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, &RenderError{Err: fmt.Errorf("renderer panic: %v", r)}
		}
	}()

	opts = opts.withDefaults()
	if in.Duration <= 0 {
		return nil, &RenderError{Err: fmt.Errorf("nothing to render: zero duration")}
	}

	height := 3*opts.PanelHeight + opts.StripHeight
	img := image.NewRGBA(image.Rect(0, 0, opts.Width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(colBackground), image.Point{}, draw.Src)

	p := plotter{img: img, width: opts.Width, duration: in.Duration}

	panel0 := image.Rect(0, 0, opts.Width, opts.PanelHeight)
	p.drawFrame(panel0)
	p.drawCurve(panel0, in.OnsetEnv, in.FrameRate, colOnset)
	p.drawMarkers(panel0, in.Beats, colBeat, 1)
	p.drawMarkers(panel0, in.Downbeats, colMeasure, 2)

	panel1 := panel0.Add(image.Pt(0, opts.PanelHeight))
	p.drawFrame(panel1)
	p.drawCurve(panel1, in.PLP, in.FrameRate, colOnset)
	p.drawMarkers(panel1, in.PLPBeats, colBeat, 1)
	p.drawMarkers(panel1, in.Downbeats, colMeasure, 2)

	panel2 := panel1.Add(image.Pt(0, opts.PanelHeight))
	p.drawFrame(panel2)
	p.drawCurve(panel2, in.Harmonic, in.FrameRate, colHarmonic)
	p.drawCurve(panel2, in.Percussive, in.FrameRate, colPercussive)
	p.drawMarkers(panel2, in.Downbeats, colMeasure, 2)

	strip := image.Rect(0, 3*opts.PanelHeight, opts.Width, height)
	drawSpectrogramStrip(img, strip, in.Samples, in.SampleRate, opts)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, &RenderError{Err: err}
	}
	return buf.Bytes(), nil
}

// ComposeBase64 renders the composite and encodes it as base64 PNG.
func ComposeBase64(in Input, opts Options) (string, error) {
	data, err := ComposePNG(in, opts)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

type plotter struct {
	img      *image.RGBA
	width    int
	duration float64
}

func (p *plotter) x(t float64) int {
	if p.duration <= 0 {
		return 0
	}
	x := int(t / p.duration * float64(p.width-1))
	if x < 0 {
		x = 0
	}
	if x >= p.width {
		x = p.width - 1
	}
	return x
}

func (p *plotter) drawFrame(rect image.Rectangle) {
	for x := rect.Min.X; x < rect.Max.X; x++ {
		p.img.SetRGBA(x, rect.Min.Y, colFrame)
		p.img.SetRGBA(x, rect.Max.Y-1, colFrame)
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		p.img.SetRGBA(rect.Min.X, y, colFrame)
		p.img.SetRGBA(rect.Max.X-1, y, colFrame)
	}
}

// drawCurve plots a frame-indexed series as a connected polyline, scaled to
// the panel height by the series maximum.
func (p *plotter) drawCurve(rect image.Rectangle, series []float64, frameRate float64, col color.RGBA) {
	if len(series) == 0 || frameRate <= 0 {
		return
	}
	var max float64
	for _, v := range series {
		if v > max {
			max = v
		}
	}
	if max <= 0 {
		max = 1
	}

	pad := 4
	top := rect.Min.Y + pad
	bottom := rect.Max.Y - pad
	span := bottom - top

	prevX, prevY := -1, 0
	for i, v := range series {
		t := float64(i) / frameRate
		x := p.x(t)
		y := bottom - int(v/max*float64(span))
		if prevX >= 0 {
			p.drawLine(prevX, prevY, x, y, col)
		}
		prevX, prevY = x, y
	}
}

// drawMarkers draws vertical lines at the given timestamps.
func (p *plotter) drawMarkers(rect image.Rectangle, times []float64, col color.RGBA, thickness int) {
	for _, t := range times {
		x := p.x(t)
		for dx := 0; dx < thickness; dx++ {
			for y := rect.Min.Y + 1; y < rect.Max.Y-1; y++ {
				if x+dx < rect.Max.X {
					p.img.SetRGBA(x+dx, y, col)
				}
			}
		}
	}
}

// drawLine is a basic Bresenham segment.
func (p *plotter) drawLine(x0, y0, x1, y1 int, col color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		p.img.SetRGBA(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		if 2*e >= dy {
			e += dy
			x0 += sx
		}
		if 2*e <= dx {
			e += dx
			y0 += sy
		}
	}
}

// drawSpectrogramStrip renders an FFT spectrogram of the raw samples into
// the bottom strip. Too-short input leaves the strip black.
func drawSpectrogramStrip(dst *image.RGBA, rect image.Rectangle, samples []float64, sampleRate int, opts Options) {
	strip := spectrogram.NewImage128(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	black := spectrogram.ParseColor("000000")
	draw.Draw(strip, strip.Bounds(), image.NewUniform(black), image.Point{}, draw.Src)

	if len(samples) >= 4*rect.Dy() && sampleRate > 0 {
		spectrogram.Drawfft(
			strip,
			samples,
			uint32(sampleRate),
			uint32(rect.Dy()),
			false, // Hamming window
			false, // FFT, not DFT
			true,  // magnitude
			false, // linear scale
		)
	}

	draw.Draw(dst, rect, strip, image.Point{}, draw.Src)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
