package scheduler

import (
	"context"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"sync"

	"DemandBoard/internal/calculator"
	"DemandBoard/internal/collector"
	"DemandBoard/internal/model"
	"DemandBoard/internal/notifier"
	"DemandBoard/internal/presenter"
	"DemandBoard/internal/recorder"
	"DemandBoard/internal/series"
	"DemandBoard/internal/session"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Notifier delivers charts and text to the operator channel.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
	SendPhoto(ctx context.Context, png []byte, caption string) error
}

// Scheduler owns the load and forecast tasks and is the boundary where their
// errors are logged. Overlapping forecast requests are not coordinated: the
// last one to draw wins.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Session   *session.Session
	Presenter presenter.Presenter
	Recorder  recorder.Recorder
	Notifier  Notifier // nil when no operator chat is configured
	Defaults  model.ForecastRequest
	Ctx       context.Context

	mu   sync.Mutex
	last *presenter.Rendering
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, sess *session.Session, pres presenter.Presenter, rec recorder.Recorder, n Notifier, defaults model.ForecastRequest) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Session:   sess,
		Presenter: pres,
		Recorder:  rec,
		Notifier:  n,
		Defaults:  defaults,
		Ctx:       ctx,
	}
}

// RegisterAll registers the sales reload and, if forecastCron is set, a
// scheduled forecast with the default model and horizon.
func (s *Scheduler) RegisterAll(reloadCron, forecastCron string) error {
	if reloadCron != "" {
		if _, err := s.Cron.AddFunc(reloadCron, s.reloadTask); err != nil {
			return fmt.Errorf("register reload task: %w", err)
		}
	}
	if forecastCron != "" {
		if _, err := s.Cron.AddFunc(forecastCron, s.forecastTask); err != nil {
			return fmt.Errorf("register forecast task: %w", err)
		}
	}
	return nil
}

func (s *Scheduler) reloadTask() {
	if err := s.LoadActual(s.Ctx); err != nil {
		s.trySend("❌ scheduled reload failed: " + escapeErr(err))
	}
}

func (s *Scheduler) forecastTask() {
	frame, err := s.RequestForecast(s.Ctx, s.Defaults)
	if err != nil {
		s.trySend("❌ scheduled forecast failed: " + escapeErr(err))
		return
	}
	s.trySend(notifier.FormatForecastSummary(s.Defaults, *frame, calculator.ScaleUpperBound(*frame)))
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// Shutdown stops the cron jobs, then ends the session and releases the
// chart, so no job can draw after the canvas is gone.
func (s *Scheduler) Shutdown() error {
	s.Stop()
	s.Session.Clear()
	return s.Presenter.Close()
}

// LoadActual fetches and sanitizes the sales history, draws it without a
// forecast and then caches it in the session. A fetch or draw failure leaves
// the cache and the chart as they were.
func (s *Scheduler) LoadActual(ctx context.Context) error {
	log.Println("[INFO] loading actual sales")
	actual, err := s.Collector.CollectActual(ctx)
	if err != nil {
		log.Printf("[ERROR] load actual sales: %v", err)
		return err
	}
	if _, err := s.draw(series.Align(actual, nil)); err != nil {
		log.Printf("[ERROR] draw actual sales: %v", err)
		return err
	}
	if err := s.Session.StoreActual(actual); err != nil {
		log.Printf("[ERROR] cache actual sales: %v", err)
		return err
	}

	if err := s.Recorder.RecordLoad(&recorder.LoadEvent{
		Source:    s.Collector.Source.Name(),
		Points:    actual.Len(),
		FirstDate: actual.First(),
		LastDate:  actual.Last(),
	}); err != nil {
		log.Printf("[ERROR] record load: %v", err)
	}
	return nil
}

// RequestForecast fetches a forecast, aligns it with the cached actual
// series and draws the result. On failure nothing is redrawn.
func (s *Scheduler) RequestForecast(ctx context.Context, req model.ForecastRequest) (*model.AlignedFrame, error) {
	log.Printf("[INFO] requesting forecast model=%s days=%d", req.Model, req.Days)
	fc, err := s.Collector.CollectForecast(ctx, req)
	if err != nil {
		log.Printf("[ERROR] forecast: %v", err)
		return nil, err
	}

	frame := series.Align(s.Session.Actual(), fc)
	r, err := s.draw(frame)
	if err != nil {
		log.Printf("[ERROR] draw forecast: %v", err)
		return nil, err
	}

	runID := uuid.NewString()
	if err := s.Recorder.RecordForecast(&recorder.ForecastRun{
		ID:     runID,
		Source: s.Collector.Source.Name(),
		Model:  req.Model,
		Days:   req.Days,
		Frame:  frame,
		YMax:   r.YMax,
	}); err != nil {
		log.Printf("[ERROR] record forecast %s: %v", runID, err)
	}

	if s.Notifier != nil {
		caption := fmt.Sprintf("Actual vs Forecasted Sales (%s, %d days)", req.Model, req.Days)
		if err := s.Notifier.SendPhoto(ctx, r.PNG, caption); err != nil {
			log.Printf("[ERROR] send chart: %v", err)
		}
	}
	return &frame, nil
}

// LastRendering returns the most recent successful draw, or nil.
func (s *Scheduler) LastRendering() *presenter.Rendering {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scheduler) draw(frame model.AlignedFrame) (*presenter.Rendering, error) {
	r, err := s.Presenter.Draw(frame)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.last = r
	s.mu.Unlock()
	log.Printf("[INFO] chart drawn: %d dates, y max %.2f", r.Points, r.YMax)
	return r, nil
}

// HandleCommand processes an operator command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return s.help()
	}
	switch strings.ToLower(fields[0]) {
	case "/reload":
		if err := s.LoadActual(ctx); err != nil {
			return "❌ reload failed: " + escapeErr(err)
		}
		return notifier.FormatLoadSummary(s.Session.Actual(), s.Collector.Source.Name())
	case "/forecast":
		req, err := s.parseForecastArgs(fields[1:])
		if err != nil {
			return "❌ " + escapeErr(err)
		}
		frame, err := s.RequestForecast(ctx, req)
		if err != nil {
			return "❌ forecast failed: " + escapeErr(err)
		}
		return notifier.FormatForecastSummary(req, *frame, calculator.ScaleUpperBound(*frame))
	case "/models":
		names := make([]string, len(model.SupportedModels))
		for i, m := range model.SupportedModels {
			names[i] = string(m)
		}
		return "Models: " + strings.Join(names, ", ")
	case "/status":
		return s.status()
	default:
		return s.help()
	}
}

// parseForecastArgs accepts "[model] [days]" in either order; missing parts
// take the defaults.
func (s *Scheduler) parseForecastArgs(args []string) (model.ForecastRequest, error) {
	req := s.Defaults
	if len(args) > 2 {
		return req, fmt.Errorf("usage: /forecast [model] [days]")
	}
	for _, a := range args {
		if n, err := strconv.Atoi(a); err == nil {
			req.Days = n
			continue
		}
		m, err := model.ParseModel(a)
		if err != nil {
			return req, err
		}
		req.Model = m
	}
	return req, req.Validate()
}

func (s *Scheduler) status() string {
	actual := s.Session.Actual()
	var b strings.Builder
	if actual.Len() == 0 {
		b.WriteString("Sales history: not loaded\n")
	} else {
		b.WriteString(fmt.Sprintf("Sales history: %d days (%s → %s), cached %s\n",
			actual.Len(), actual.First(), actual.Last(), s.Session.UpdatedAt().Format("2006-01-02 15:04")))
	}
	if r := s.LastRendering(); r != nil {
		b.WriteString(fmt.Sprintf("Last chart: %d dates at %s", r.Points, r.DrawnAt.Format("2006-01-02 15:04")))
		if r.Path != "" {
			b.WriteString(" → " + r.Path)
		}
	} else {
		b.WriteString("Last chart: none")
	}
	return b.String()
}

func (s *Scheduler) help() string {
	return notifier.FormatHelp(model.SupportedModels, s.Defaults.Model, s.Defaults.Days)
}

// escapeErr makes error text safe inside an HTML-formatted chat message.
// Backend failures can carry whole HTML error pages.
func escapeErr(err error) string {
	return html.EscapeString(err.Error())
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
