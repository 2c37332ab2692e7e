package presenter

import (
	"bytes"
	"fmt"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"DemandBoard/internal/model"
)

func sampleFrame() model.AlignedFrame {
	return model.AlignedFrame{
		Axis:     []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"},
		Actual:   []model.Optional{model.Some(100), model.Some(120), {}, {}},
		Forecast: []model.Optional{{}, model.Some(118), model.Some(140), model.Some(150)},
	}
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("invalid png: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestDraw_ScalesToMaxPresentValue(t *testing.T) {
	p := NewChartPresenter(Options{Width: 640, Height: 320})
	r, err := p.Draw(sampleFrame())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(r.YMax-180) > 1e-9 {
		t.Errorf("expected y max 180, got %v", r.YMax)
	}
	if r.Blank {
		t.Error("expected a rendered chart, got blank canvas")
	}
	if r.Points != 4 {
		t.Errorf("expected 4 points, got %d", r.Points)
	}
	decodeSize(t, r.PNG)
}

func TestDraw_RecomputesScaleEachDraw(t *testing.T) {
	p := NewChartPresenter(Options{Width: 640, Height: 320})
	if _, err := p.Draw(sampleFrame()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	small := model.AlignedFrame{
		Axis:     []string{"2024-01-01", "2024-01-02"},
		Actual:   []model.Optional{model.Some(5), model.Some(10)},
		Forecast: []model.Optional{{}, {}},
	}
	r, err := p.Draw(small)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(r.YMax-12) > 1e-9 {
		t.Errorf("expected y max 12, got %v", r.YMax)
	}
}

func TestDraw_EmptyFrameIsBlank(t *testing.T) {
	p := NewChartPresenter(Options{Width: 300, Height: 200})
	r, err := p.Draw(model.AlignedFrame{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Blank {
		t.Error("expected blank canvas for empty frame")
	}
	if w, h := decodeSize(t, r.PNG); w != 300 || h != 200 {
		t.Errorf("expected 300x200, got %dx%d", w, h)
	}
}

func TestDraw_ShortFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame model.AlignedFrame
		yMax  float64
	}{
		{"single forecast date", model.AlignedFrame{
			Axis:     []string{"2024-02-01"},
			Actual:   []model.Optional{{}},
			Forecast: []model.Optional{model.Some(50)},
		}, 60},
		{"two dates", model.AlignedFrame{
			Axis:     []string{"2024-02-01", "2024-02-02"},
			Actual:   []model.Optional{model.Some(10), {}},
			Forecast: []model.Optional{{}, model.Some(20)},
		}, 24},
		{"three dates", model.AlignedFrame{
			Axis:     []string{"2024-02-01", "2024-02-02", "2024-02-03"},
			Actual:   []model.Optional{model.Some(10), model.Some(15), {}},
			Forecast: []model.Optional{{}, model.Some(15), model.Some(30)},
		}, 36},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewChartPresenter(Options{Width: 300, Height: 200})
			r, err := p.Draw(tt.frame)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Blank {
				t.Error("expected a rendered chart, got the blank fallback")
			}
			if math.Abs(r.YMax-tt.yMax) > 1e-9 {
				t.Errorf("expected y max %v, got %v", tt.yMax, r.YMax)
			}
			decodeSize(t, r.PNG)
		})
	}
}

func TestDraw_LongFrameNotBlank(t *testing.T) {
	n := 365
	frame := model.AlignedFrame{
		Axis:     make([]string, n),
		Actual:   make([]model.Optional, n),
		Forecast: make([]model.Optional, n),
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		frame.Axis[i] = start.AddDate(0, 0, i).Format("2006-01-02")
		if i < n-30 {
			frame.Actual[i] = model.Some(float64(100 + i))
		} else {
			frame.Forecast[i] = model.Some(float64(200 + i))
		}
	}
	r, err := NewChartPresenter(Options{Width: 600, Height: 300}).Draw(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Blank {
		t.Error("expected a rendered chart, got the blank fallback")
	}
}

func TestDraw_ReleasesPreviousCanvasFirst(t *testing.T) {
	p := NewChartPresenter(Options{Width: 300, Height: 200})
	if p.Current() != nil || p.Live() != 0 {
		t.Fatal("expected no canvas before first draw")
	}

	var prev *Canvas
	for i := 0; i < 5; i++ {
		if _, err := p.Draw(sampleFrame()); err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
		cur := p.Current()
		if prev != nil && !prev.Released() {
			t.Errorf("draw %d: previous canvas %d still held", i, prev.ID)
		}
		if cur == prev || cur.Released() {
			t.Errorf("draw %d: expected a fresh live canvas", i)
		}
		if p.Live() != 1 {
			t.Errorf("draw %d: expected 1 live canvas, got %d", i, p.Live())
		}
		prev = cur
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if p.Live() != 0 || !prev.Released() {
		t.Error("expected Close to release the last canvas")
	}
}

func TestDraw_WritesOutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "charts", "forecast.png")
	p := NewChartPresenter(Options{OutputPath: out, Width: 300, Height: 200})
	r, err := p.Draw(sampleFrame())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(data, r.PNG) {
		t.Error("output file differs from rendering")
	}
}

func TestSegments_SplitAtGaps(t *testing.T) {
	segs := segments([]model.Optional{model.Some(1), {}, model.Some(3), model.Some(4), {}})
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if len(segs[0].xs) != 1 || segs[0].xs[0] != 0 {
		t.Errorf("unexpected first segment %+v", segs[0])
	}
	if len(segs[1].xs) != 2 || segs[1].xs[0] != 2 || segs[1].ys[1] != 4 {
		t.Errorf("unexpected second segment %+v", segs[1])
	}
	if segs := segments([]model.Optional{{}, {}}); len(segs) != 0 {
		t.Errorf("expected no segments, got %d", len(segs))
	}
}

func TestAxisTicks(t *testing.T) {
	dates := func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = fmt.Sprintf("d%d", i)
		}
		return out
	}
	for _, n := range []int{2, 3, 4, 5, 7, 40, 41, 365} {
		ticks := axisTicks(dates(n))
		labeled := 0
		for _, tk := range ticks {
			if tk.Label != "" {
				labeled++
			}
		}
		limit := max(min(n/2, maxTicks), 1)
		if labeled > limit {
			t.Errorf("n=%d: expected at most %d labels, got %d", n, limit, labeled)
		}
		if ticks[0].Value != 0 {
			t.Errorf("n=%d: first tick at %v, want 0", n, ticks[0].Value)
		}
		if last := ticks[len(ticks)-1].Value; last != float64(n-1) {
			t.Errorf("n=%d: last tick at %v, want %d", n, last, n-1)
		}
	}

	ticks := axisTicks([]string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"})
	if len(ticks) != 2 || ticks[0].Label != "2024-01-01" || ticks[1].Label != "2024-01-04" {
		t.Errorf("unexpected ticks %+v", ticks)
	}

	single := axisTicks([]string{"2024-02-01"})
	if len(single) != 3 || single[0].Value != -0.5 || single[2].Value != 0.5 || single[1].Label != "2024-02-01" {
		t.Errorf("unexpected single-date ticks %+v", single)
	}
	if ticks := axisTicks(nil); ticks != nil {
		t.Errorf("expected no ticks, got %+v", ticks)
	}
}

func TestFormatSales(t *testing.T) {
	if got := formatSales(1234567.0); got != "1,234,567" {
		t.Errorf("unexpected label %q", got)
	}
	if got := formatSales(0.30000000000000004); got != "0.3" {
		t.Errorf("unexpected label %q", got)
	}
}
