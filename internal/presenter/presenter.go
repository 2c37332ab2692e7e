// Package presenter renders aligned frames as PNG line charts.
//
// A ChartPresenter owns exactly one live Canvas at a time: each Draw
// releases the previous canvas before acquiring the next one.
package presenter

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"DemandBoard/internal/calculator"
	"DemandBoard/internal/model"
)

// Presenter is the rendering surface the scheduler draws on.
type Presenter interface {
	Draw(frame model.AlignedFrame) (*Rendering, error)
	Close() error
}

// Rendering describes one completed draw.
type Rendering struct {
	PNG      []byte
	Path     string
	YMax     float64
	Points   int
	Blank    bool
	CanvasID int
	DrawnAt  time.Time
}

// Canvas is the rendering resource behind a single draw.
type Canvas struct {
	ID       int
	buf      bytes.Buffer
	released bool
}

// Released reports whether the canvas has been discarded.
func (c *Canvas) Released() bool { return c.released }

func (c *Canvas) release() {
	c.buf = bytes.Buffer{}
	c.released = true
}

// Options configures the chart surface.
type Options struct {
	OutputPath string
	Width      int
	Height     int
	Title      string
}

// DefaultOptions returns the standard chart surface.
func DefaultOptions() Options {
	return Options{
		OutputPath: "data/forecast_chart.png",
		Width:      1200,
		Height:     400,
		Title:      "Actual vs Forecasted Sales",
	}
}

// ChartPresenter draws frames with go-chart and writes them to OutputPath.
type ChartPresenter struct {
	mu      sync.Mutex
	opts    Options
	current *Canvas
	nextID  int
	live    int
}

// NewChartPresenter creates a presenter; zero option fields take defaults.
func NewChartPresenter(opts Options) *ChartPresenter {
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.Title == "" {
		opts.Title = def.Title
	}
	return &ChartPresenter{opts: opts}
}

// Draw replaces the current chart with one for frame. The y-axis bound is
// recomputed from this frame alone. An empty frame, or one go-chart cannot
// render, produces a blank canvas instead of an error.
func (p *ChartPresenter) Draw(frame model.AlignedFrame) (*Rendering, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.releaseCurrent()
	c := p.acquire()

	yMax := calculator.ScaleUpperBound(frame)
	blank := frame.Len() == 0
	if !blank {
		ch := buildChart(p.opts, frame, yMax)
		if err := ch.Render(chartPNG, &c.buf); err != nil {
			log.Printf("[WARN] chart render failed, drawing blank canvas: %v", err)
			c.buf.Reset()
			blank = true
		}
	}
	if blank {
		if err := writeBlank(&c.buf, p.opts.Width, p.opts.Height); err != nil {
			return nil, fmt.Errorf("draw blank canvas: %w", err)
		}
	}

	if p.opts.OutputPath != "" {
		if err := writeFileAtomic(p.opts.OutputPath, c.buf.Bytes()); err != nil {
			return nil, fmt.Errorf("write chart: %w", err)
		}
	}

	return &Rendering{
		PNG:      append([]byte(nil), c.buf.Bytes()...),
		Path:     p.opts.OutputPath,
		YMax:     yMax,
		Points:   frame.Len(),
		Blank:    blank,
		CanvasID: c.ID,
		DrawnAt:  time.Now(),
	}, nil
}

// Current returns the live canvas, or nil before the first draw.
func (p *ChartPresenter) Current() *Canvas {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Live returns how many canvases are currently held.
func (p *ChartPresenter) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}

// Close releases the live canvas.
func (p *ChartPresenter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseCurrent()
	return nil
}

func (p *ChartPresenter) releaseCurrent() {
	if p.current == nil {
		return
	}
	p.current.release()
	p.current = nil
	p.live--
}

func (p *ChartPresenter) acquire() *Canvas {
	p.nextID++
	c := &Canvas{ID: p.nextID}
	p.current = c
	p.live++
	return c
}

func writeBlank(buf *bytes.Buffer, w, h int) error {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	return png.Encode(buf, img)
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
