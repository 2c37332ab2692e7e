package scheduler

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"sync"
	"testing"

	"DemandBoard/internal/collector"
	"DemandBoard/internal/model"
	"DemandBoard/internal/presenter"
	"DemandBoard/internal/recorder"
	"DemandBoard/internal/session"
)

// stubSource serves fixed records and can fail either endpoint.
type stubSource struct {
	actual      []model.RawRecord
	forecast    *model.ForecastResponse
	actualErr   error
	forecastErr error
	requests    []model.ForecastRequest
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) FetchActual(_ context.Context) ([]model.RawRecord, error) {
	return s.actual, s.actualErr
}

func (s *stubSource) FetchForecast(_ context.Context, req model.ForecastRequest) (*model.ForecastResponse, error) {
	s.requests = append(s.requests, req)
	if s.forecastErr != nil {
		return nil, s.forecastErr
	}
	return s.forecast, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	texts  []string
	photos int
}

func (f *fakeNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeNotifier) SendPhoto(_ context.Context, _ []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos++
	return nil
}

func newTestScheduler(t *testing.T, src *stubSource, n Notifier) (*Scheduler, *presenter.ChartPresenter) {
	t.Helper()
	pres := presenter.NewChartPresenter(presenter.Options{Width: 320, Height: 200})
	t.Cleanup(func() { pres.Close() })
	defaults := model.ForecastRequest{Model: model.ModelARIMA, Days: 2}
	s := NewScheduler(context.Background(), collector.NewCollector(src), session.New(), pres, recorder.NewNoopRecorder(), n, defaults)
	return s, pres
}

func sampleSource() *stubSource {
	return &stubSource{
		actual: []model.RawRecord{
			{Date: "2024-01-01", Sales: model.NumberValue(100)},
			{Date: "2024-01-02", Sales: model.NumberValue(-5)},
		},
		forecast: &model.ForecastResponse{
			Dates:    []string{"2024-01-02", "2024-01-03"},
			Forecast: []model.RawValue{model.NumberValue(110), model.StringValue("130")},
		},
	}
}

func TestLoadActual_CachesAndDraws(t *testing.T) {
	s, _ := newTestScheduler(t, sampleSource(), nil)
	if err := s.LoadActual(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := model.Series{{Date: "2024-01-01", Value: 100}, {Date: "2024-01-02", Value: 0}}
	if got := s.Session.Actual(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected cached %v, got %v", want, got)
	}
	r := s.LastRendering()
	if r == nil || r.Points != 2 {
		t.Fatalf("expected a 2-point rendering, got %+v", r)
	}
}

func TestRequestForecast_AlignsWithCachedActual(t *testing.T) {
	s, _ := newTestScheduler(t, sampleSource(), nil)
	if err := s.LoadActual(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	frame, err := s.RequestForecast(context.Background(), model.ForecastRequest{Model: model.ModelProphet, Days: 2})
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	want := model.AlignedFrame{
		Axis:     []string{"2024-01-01", "2024-01-02", "2024-01-03"},
		Actual:   []model.Optional{model.Some(100), model.Some(0), {}},
		Forecast: []model.Optional{{}, model.Some(110), model.Some(130)},
	}
	if !reflect.DeepEqual(*frame, want) {
		t.Errorf("expected %+v, got %+v", want, *frame)
	}
	if r := s.LastRendering(); r == nil || r.Points != 3 || math.Abs(r.YMax-156) > 1e-9 {
		t.Errorf("unexpected rendering %+v", r)
	}
}

func TestRequestForecast_BeforeLoadUsesEmptyActual(t *testing.T) {
	s, _ := newTestScheduler(t, sampleSource(), nil)
	frame, err := s.RequestForecast(context.Background(), s.Defaults)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if !reflect.DeepEqual(frame.Axis, []string{"2024-01-02", "2024-01-03"}) {
		t.Errorf("unexpected axis %v", frame.Axis)
	}
	for i, v := range frame.Actual {
		if v.Present {
			t.Errorf("actual[%d]: expected absent", i)
		}
	}
}

func TestRequestForecast_FailureLeavesChartUntouched(t *testing.T) {
	src := sampleSource()
	s, pres := newTestScheduler(t, src, nil)
	if err := s.LoadActual(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	before := s.LastRendering()
	canvas := pres.Current()

	src.forecastErr = errors.New("connection refused")
	if _, err := s.RequestForecast(context.Background(), s.Defaults); err == nil {
		t.Fatal("expected error")
	}
	if s.LastRendering() != before {
		t.Error("expected last rendering to be unchanged")
	}
	if pres.Current() != canvas || canvas.Released() {
		t.Error("expected the previous canvas to stay live")
	}
}

func TestLoadActual_FailureKeepsCache(t *testing.T) {
	src := sampleSource()
	s, _ := newTestScheduler(t, src, nil)
	if err := s.LoadActual(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	src.actual = []model.RawRecord{{Date: "garbage", Sales: model.NumberValue(1)}}
	if err := s.LoadActual(context.Background()); err == nil {
		t.Fatal("expected error for unparsable date")
	}
	if got := s.Session.Actual(); got.Len() != 2 {
		t.Errorf("expected previous cache kept, got %v", got)
	}
}

func TestRequestForecast_SendsChart(t *testing.T) {
	n := &fakeNotifier{}
	s, _ := newTestScheduler(t, sampleSource(), n)
	if _, err := s.RequestForecast(context.Background(), s.Defaults); err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if n.photos != 1 {
		t.Errorf("expected 1 photo, got %d", n.photos)
	}
}

func TestForecastTask_NotifiesFailure(t *testing.T) {
	n := &fakeNotifier{}
	src := sampleSource()
	src.forecastErr = errors.New("timeout")
	s, _ := newTestScheduler(t, src, n)
	s.forecastTask()
	if len(n.texts) != 1 || !strings.Contains(n.texts[0], "scheduled forecast failed") {
		t.Errorf("unexpected notifications %v", n.texts)
	}
}

func TestHandleCommand_Forecast(t *testing.T) {
	tests := []struct {
		name      string
		command   string
		wantReq   *model.ForecastRequest
		wantReply string
	}{
		{"defaults", "/forecast", &model.ForecastRequest{Model: model.ModelARIMA, Days: 2}, "model=arima, days=2"},
		{"model and days", "/forecast lstm 14", &model.ForecastRequest{Model: model.ModelLSTM, Days: 14}, "model=lstm, days=14"},
		{"days first", "/Forecast 7 PROPHET", &model.ForecastRequest{Model: model.ModelProphet, Days: 7}, "model=prophet, days=7"},
		{"unknown model", "/forecast xgboost", nil, "unknown forecast model"},
		{"zero days", "/forecast arima 0", nil, "positive number of days"},
		{"too many args", "/forecast arima 3 extra", nil, "usage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := sampleSource()
			s, _ := newTestScheduler(t, src, nil)
			reply := s.HandleCommand(context.Background(), tt.command)
			if !strings.Contains(reply, tt.wantReply) {
				t.Errorf("reply %q does not contain %q", reply, tt.wantReply)
			}
			if tt.wantReq == nil {
				if len(src.requests) != 0 {
					t.Errorf("expected no backend request, got %v", src.requests)
				}
				return
			}
			if len(src.requests) != 1 || src.requests[0] != *tt.wantReq {
				t.Errorf("expected request %+v, got %v", *tt.wantReq, src.requests)
			}
		})
	}
}

func TestHandleCommand_Other(t *testing.T) {
	s, _ := newTestScheduler(t, sampleSource(), nil)
	ctx := context.Background()

	if reply := s.HandleCommand(ctx, "/status"); !strings.Contains(reply, "not loaded") {
		t.Errorf("unexpected status before load: %q", reply)
	}
	if reply := s.HandleCommand(ctx, "/reload"); !strings.Contains(reply, "Days: 2") {
		t.Errorf("unexpected reload reply: %q", reply)
	}
	if reply := s.HandleCommand(ctx, "/status"); !strings.Contains(reply, "2 days (2024-01-01 → 2024-01-02)") {
		t.Errorf("unexpected status after load: %q", reply)
	}
	if reply := s.HandleCommand(ctx, "/models"); reply != "Models: lstm, arima, prophet" {
		t.Errorf("unexpected models reply: %q", reply)
	}
	if reply := s.HandleCommand(ctx, "hello"); !strings.Contains(reply, "/forecast [model] [days]") {
		t.Errorf("expected help, got %q", reply)
	}
}

func TestRegisterAll_RejectsBadCron(t *testing.T) {
	s, _ := newTestScheduler(t, sampleSource(), nil)
	if err := s.RegisterAll("not a cron", ""); err == nil {
		t.Error("expected error for invalid reload schedule")
	}
	if err := s.RegisterAll("0 0 6 * * *", "0 30 6 * * 1"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(s.Cron.Entries()) != 2 {
		t.Errorf("expected 2 entries, got %d", len(s.Cron.Entries()))
	}
}

func TestHandleCommand_EscapesErrorText(t *testing.T) {
	src := sampleSource()
	src.actualErr = errors.New("status 500, body: <!doctype html><title>500 Internal Server Error</title>")
	s, _ := newTestScheduler(t, src, nil)
	ctx := context.Background()

	reply := s.HandleCommand(ctx, "/reload")
	if strings.Contains(reply, "<!doctype") || !strings.Contains(reply, "&lt;!doctype html&gt;") {
		t.Errorf("expected escaped backend body, got %q", reply)
	}
	reply = s.HandleCommand(ctx, "/forecast <b>")
	if strings.Contains(reply, "<b>") || !strings.Contains(reply, "&lt;b&gt;") {
		t.Errorf("expected escaped user input, got %q", reply)
	}
}

func TestReloadTask_EscapesNotification(t *testing.T) {
	n := &fakeNotifier{}
	src := sampleSource()
	src.actualErr = errors.New("<html>bad gateway</html>")
	s, _ := newTestScheduler(t, src, n)
	s.reloadTask()
	if len(n.texts) != 1 || strings.Contains(n.texts[0], "<html>") {
		t.Errorf("unexpected notifications %v", n.texts)
	}
}

// failingPresenter refuses every draw.
type failingPresenter struct{ closed bool }

func (f *failingPresenter) Draw(model.AlignedFrame) (*presenter.Rendering, error) {
	return nil, errors.New("disk full")
}

func (f *failingPresenter) Close() error {
	f.closed = true
	return nil
}

func TestLoadActual_DrawFailureKeepsCache(t *testing.T) {
	sess := session.New()
	old := model.Series{{Date: "2023-12-31", Value: 7}}
	if err := sess.StoreActual(old); err != nil {
		t.Fatal(err)
	}
	s := NewScheduler(context.Background(), collector.NewCollector(sampleSource()), sess, &failingPresenter{},
		recorder.NewNoopRecorder(), nil, model.ForecastRequest{Model: model.ModelARIMA, Days: 2})
	if err := s.LoadActual(context.Background()); err == nil {
		t.Fatal("expected draw error")
	}
	if got := sess.Actual(); !reflect.DeepEqual(got, old) {
		t.Errorf("expected cache %v kept, got %v", old, got)
	}
}

func TestShutdown_ReleasesAfterStop(t *testing.T) {
	s, pres := newTestScheduler(t, sampleSource(), nil)
	if err := s.LoadActual(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := s.RegisterAll("0 0 6 * * *", ""); err != nil {
		t.Fatal(err)
	}
	s.Start()
	if err := s.Shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if pres.Live() != 0 || pres.Current() != nil {
		t.Errorf("expected no live canvas, got %d", pres.Live())
	}
	if s.Session.Actual().Len() != 0 {
		t.Error("expected session cleared")
	}
}
