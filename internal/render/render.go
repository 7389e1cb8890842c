// Package render assembles drawn cards into a single composite image
// under a hard output-size budget.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"log/slog"

	"github.com/nfnt/resize"

	"github.com/arcanaland/oraclebot/internal/catalog"
)

// ErrRenderFailed covers any image fetch or decode failure. The whole
// composite aborts; no partial image is ever returned.
var ErrRenderFailed = errors.New("render failed")

// Slot is one card position in the composite. Face-down slots render
// the shared card back; Reversed only applies to face-up slots.
type Slot struct {
	Key      string
	FaceUp   bool
	Reversed bool
}

// Options tune the layout and the size-budget fallback chain.
type Options struct {
	// MaxBytes is the platform attachment ceiling.
	MaxBytes int
	// Gap is the inter-card spacing in pixels.
	Gap int
	// MaxWidth caps the pre-encoding composite width; wider layouts are
	// downscaled before compositing.
	MaxWidth int
	// JPEGQuality is the fixed quality for the lossy fallbacks.
	JPEGQuality int
	// ShrinkFactor is the per-side downscale applied by the final
	// fallback step.
	ShrinkFactor float64
}

// DefaultOptions matches the platform this was built for: 8 MiB
// attachments, 16px gaps, 1920px composites.
func DefaultOptions() Options {
	return Options{
		MaxBytes:     8 << 20,
		Gap:          16,
		MaxWidth:     1920,
		JPEGQuality:  80,
		ShrinkFactor: 0.75,
	}
}

// flattenBackground is the opaque fill behind lossy re-encodes.
var flattenBackground = color.NRGBA{R: 24, G: 19, B: 41, A: 255}

// Result is an encoded composite ready to attach.
type Result struct {
	Data   []byte
	Format string // "png" or "jpeg"
	Width  int
	Height int
}

// Renderer composes card slots into one image.
type Renderer struct {
	cache  *ImageCache
	opts   Options
	logger *slog.Logger
}

// NewRenderer builds a renderer over a decoded-image cache.
func NewRenderer(cache *ImageCache, opts Options, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxBytes <= 0 {
		opts = DefaultOptions()
	}
	return &Renderer{cache: cache, opts: opts, logger: logger}
}

// Compose renders the slots left to right on a transparent canvas and
// encodes the result within the size budget when the fallback chain can
// manage it. The output is best-effort after the final fallback step.
func (r *Renderer) Compose(ctx context.Context, slots []Slot) (Result, error) {
	if len(slots) == 0 {
		return Result{}, fmt.Errorf("%w: no slots", ErrRenderFailed)
	}

	images := make([]image.Image, len(slots))
	for i, slot := range slots {
		key := catalog.CardBackKey
		rotated := false
		if slot.FaceUp {
			key = slot.Key
			rotated = slot.Reversed
		}
		img, err := r.cache.Image(ctx, key, rotated)
		if err != nil {
			return Result{}, fmt.Errorf("%w: slot %d: %v", ErrRenderFailed, i, err)
		}
		images[i] = img
	}

	// All slots take the first slot's dimensions.
	slotW := images[0].Bounds().Dx()
	slotH := images[0].Bounds().Dy()
	if slotW <= 0 || slotH <= 0 {
		return Result{}, fmt.Errorf("%w: first slot has empty bounds", ErrRenderFailed)
	}

	// Bound the composite width before compositing, not just before
	// encoding, to keep memory in check.
	if total := len(slots)*slotW + (len(slots)-1)*r.opts.Gap; total > r.opts.MaxWidth {
		budget := r.opts.MaxWidth - (len(slots)-1)*r.opts.Gap
		if budget < len(slots) {
			budget = len(slots)
		}
		scaled := budget / len(slots)
		slotH = slotH * scaled / slotW
		if slotH < 1 {
			slotH = 1
		}
		slotW = scaled
	}

	canvasW := len(slots)*slotW + (len(slots)-1)*r.opts.Gap
	canvas := image.NewNRGBA(image.Rect(0, 0, canvasW, slotH))

	for i, img := range images {
		if img.Bounds().Dx() != slotW || img.Bounds().Dy() != slotH {
			img = resize.Resize(uint(slotW), uint(slotH), img, resize.Lanczos3)
		}
		x := i * (slotW + r.opts.Gap)
		target := image.Rect(x, 0, x+slotW, slotH)
		draw.Draw(canvas, target, img, img.Bounds().Min, draw.Over)
	}

	return r.encode(canvas)
}

// encode runs the ordered fallback chain: lossless, then lossy on an
// opaque background, then downscale and lossy again.
func (r *Renderer) encode(canvas *image.NRGBA) (Result, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, canvas); err != nil {
		return Result{}, fmt.Errorf("%w: encoding png: %v", ErrRenderFailed, err)
	}
	if buf.Len() <= r.opts.MaxBytes {
		return Result{Data: buf.Bytes(), Format: "png", Width: canvas.Bounds().Dx(), Height: canvas.Bounds().Dy()}, nil
	}

	flat := flatten(canvas)
	buf.Reset()
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: r.opts.JPEGQuality}); err != nil {
		return Result{}, fmt.Errorf("%w: encoding jpeg: %v", ErrRenderFailed, err)
	}
	if buf.Len() <= r.opts.MaxBytes {
		r.logger.Info("composite flattened to fit budget", "bytes", buf.Len())
		return Result{Data: buf.Bytes(), Format: "jpeg", Width: flat.Bounds().Dx(), Height: flat.Bounds().Dy()}, nil
	}

	w := int(float64(flat.Bounds().Dx()) * r.opts.ShrinkFactor)
	h := int(float64(flat.Bounds().Dy()) * r.opts.ShrinkFactor)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	shrunk := resize.Resize(uint(w), uint(h), flat, resize.Lanczos3)
	buf.Reset()
	if err := jpeg.Encode(&buf, shrunk, &jpeg.Options{Quality: r.opts.JPEGQuality}); err != nil {
		return Result{}, fmt.Errorf("%w: encoding jpeg: %v", ErrRenderFailed, err)
	}
	if buf.Len() > r.opts.MaxBytes {
		// Best effort past this point; oversize payloads are the
		// platform's problem to reject.
		r.logger.Warn("composite still over budget after downscale", "bytes", buf.Len(), "budget", r.opts.MaxBytes)
	}
	return Result{Data: buf.Bytes(), Format: "jpeg", Width: w, Height: h}, nil
}

// flatten draws the canvas over the opaque dark background, discarding
// transparency ahead of a lossy encode.
func flatten(src image.Image) *image.RGBA {
	out := image.NewRGBA(src.Bounds())
	draw.Draw(out, out.Bounds(), image.NewUniform(flattenBackground), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Over)
	return out
}

// rotate180 flips an image upside down for reversed cards.
func rotate180(src image.Image) image.Image {
	b := src.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(b.Max.X-1-x, b.Max.Y-1-y, src.At(x, y))
		}
	}
	return out
}
