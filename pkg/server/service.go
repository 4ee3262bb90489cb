package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mikeboe/agent-helper/pkg/database"
	"github.com/mikeboe/agent-helper/pkg/metrics"
	"github.com/mikeboe/agent-helper/pkg/report"
	"github.com/mikeboe/agent-helper/pkg/routemap"
	"github.com/mikeboe/agent-helper/pkg/trip"
)

// ErrPersistenceDisabled is returned by the job queries when no database is configured.
var ErrPersistenceDisabled = errors.New("report persistence is not configured")

// ErrTripAborted is returned when the graph ended without an itinerary.
var ErrTripAborted = errors.New("trip could not be planned")

type (
	// ReportRunner runs one report end to end.
	ReportRunner interface {
		Run(ctx context.Context, query string, desired int, window report.Window) report.Result
	}

	// PipelineFactory builds a runner for one job, bound to that job's
	// logger and progress sink.
	PipelineFactory func(logger *slog.Logger, notify func(message string)) ReportRunner

	TripGraph interface {
		Run(ctx context.Context, question string) (trip.State, error)
	}

	MapAssembler interface {
		Assemble(ctx context.Context, it *trip.Itinerary, prefs routemap.Preferences) (*routemap.Layers, error)
	}
)

type Service struct {
	DB       *database.PostgresDB // nil disables persistence
	Reports  PipelineFactory
	Sessions *Registry
	Trips    TripGraph
	Maps     MapAssembler

	DesiredCount int
	Window       report.Window
	Logger       *slog.Logger
}

func NewService(db *database.PostgresDB, reports PipelineFactory, sessions *Registry, trips TripGraph, maps MapAssembler) *Service {
	return &Service{
		DB:           db,
		Reports:      reports,
		Sessions:     sessions,
		Trips:        trips,
		Maps:         maps,
		DesiredCount: 5,
		Window:       report.WindowWeek,
		Logger:       slog.Default(),
	}
}

type Job struct {
	ID          uuid.UUID       `json:"id"`
	Query       string          `json:"query"`
	Status      string          `json:"status"`
	Report      *string         `json:"report,omitempty"`
	HeaderImage *string         `json:"header_image,omitempty"`
	ImagePrompt *string         `json:"image_prompt,omitempty"`
	Sources     json.RawMessage `json:"sources,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type CreateReportRequest struct {
	Query  string `json:"query"`
	Count  int    `json:"count"`
	Window string `json:"window"`
}

// StartReport registers a session and runs the report in the background.
// The session id doubles as the job id when persistence is enabled.
func (s *Service) StartReport(ctx context.Context, req CreateReportRequest) (*Session, error) {
	desired := req.Count
	if desired <= 0 {
		desired = s.DesiredCount
	}
	window := report.ParseWindow(req.Window, s.Window)

	session := s.Sessions.Create(req.Query)
	jobID := uuid.MustParse(session.ID)

	if s.DB != nil {
		query := `
			INSERT INTO report_jobs (id, query, status, desired_count, time_window)
			VALUES ($1, $2, 'pending', $3, $4)
		`
		if _, err := s.DB.Pool.Exec(ctx, query, jobID, req.Query, desired, string(window)); err != nil {
			s.Sessions.Complete(session, report.Result{Report: report.NoResultsReport, Sources: []report.ExtractedArticle{}})
			return nil, fmt.Errorf("failed to create job: %w", err)
		}
	}

	// Start background worker
	go s.runWorker(jobID, session, req.Query, desired, window)

	return session, nil
}

func (s *Service) runWorker(jobID uuid.UUID, session *Session, query string, desired int, window report.Window) {
	ctx := context.Background()
	logger := s.jobLogger(jobID)

	if s.DB != nil {
		_, _ = s.DB.Pool.Exec(ctx, "UPDATE report_jobs SET status = 'running', updated_at = NOW() WHERE id = $1", jobID)
	}

	runner := s.Reports(logger, func(message string) {
		if !session.Publish(message) {
			logger.Debug("Progress dropped, session buffer full", "message", message)
		}
	})
	result := runner.Run(ctx, query, desired, window)
	s.Sessions.Complete(session, result)

	if s.DB == nil {
		return
	}
	sources, err := json.Marshal(result.Sources)
	if err != nil {
		sources = []byte("[]")
	}
	_, err = s.DB.Pool.Exec(ctx, `
		UPDATE report_jobs
		SET status = 'completed', report = $2, header_image = $3, image_prompt = $4, sources = $5, updated_at = NOW()
		WHERE id = $1`,
		jobID, result.Report, result.HeaderImage, result.ImagePrompt, sources)
	if err != nil {
		logger.Error("Failed to save final report to DB", "error", err)
		_, _ = s.DB.Pool.Exec(ctx, "UPDATE report_jobs SET status = 'failed', updated_at = NOW() WHERE id = $1", jobID)
	}
}

func (s *Service) jobLogger(jobID uuid.UUID) *slog.Logger {
	base := s.logger().With("job_id", jobID.String())
	if s.DB == nil {
		return base
	}
	return slog.New(newTeeHandler(base.Handler(), NewDBLogHandler(s.DB, jobID)))
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// RunReport runs a report synchronously, for callers that want the result
// rather than a stream.
func (s *Service) RunReport(ctx context.Context, req CreateReportRequest) report.Result {
	desired := req.Count
	if desired <= 0 {
		desired = s.DesiredCount
	}
	runner := s.Reports(s.logger(), nil)
	return runner.Run(ctx, req.Query, desired, report.ParseWindow(req.Window, s.Window))
}

func (s *Service) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	if s.DB == nil {
		return nil, ErrPersistenceDisabled
	}
	query := `
		SELECT id, query, status, report, header_image, image_prompt, sources, created_at, updated_at
		FROM report_jobs
		WHERE id = $1
	`
	job := &Job{}
	err := s.DB.Pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.Query, &job.Status, &job.Report, &job.HeaderImage, &job.ImagePrompt, &job.Sources, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// ListJobs returns the 50 most recent jobs without their report bodies.
func (s *Service) ListJobs(ctx context.Context) ([]Job, error) {
	if s.DB == nil {
		return nil, ErrPersistenceDisabled
	}
	query := `
		SELECT id, query, status, created_at, updated_at
		FROM report_jobs
		ORDER BY created_at DESC
		LIMIT 50
	`
	rows, err := s.DB.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []Job{}
	for rows.Next() {
		var job Job
		if err := rows.Scan(&job.ID, &job.Query, &job.Status, &job.CreatedAt, &job.UpdatedAt); err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

type LogEntry struct {
	ID        int             `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Level     string          `json:"level"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata"`
}

func (s *Service) GetJobLogs(ctx context.Context, jobID uuid.UUID) ([]LogEntry, error) {
	if s.DB == nil {
		return nil, ErrPersistenceDisabled
	}
	query := `
		SELECT id, timestamp, level, message, metadata
		FROM report_logs
		WHERE job_id = $1
		ORDER BY id ASC
	`
	rows, err := s.DB.Pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs: %w", err)
	}
	defer rows.Close()

	logs := []LogEntry{}
	for rows.Next() {
		var l LogEntry
		if err := rows.Scan(&l.ID, &l.Timestamp, &l.Level, &l.Message, &l.Metadata); err != nil {
			continue
		}
		logs = append(logs, l)
	}
	return logs, nil
}

type TripRequest struct {
	Question         string `json:"question"`
	Wheelchair       bool   `json:"wheelchair"`
	VisuallyImpaired bool   `json:"visually_impaired"`
}

type TripResponse struct {
	Summary string           `json:"summary"`
	State   trip.State       `json:"state"`
	Map     *routemap.Layers `json:"map,omitempty"`
}

// PlanTrip runs the trip graph and, when an itinerary comes back, the map
// assembly. A planner failure is returned as is; a run that ended without an
// itinerary returns ErrTripAborted along with the fallback summary.
func (s *Service) PlanTrip(ctx context.Context, req TripRequest) (*TripResponse, error) {
	question := trip.WithAccessibility(req.Question, req.Wheelchair, req.VisuallyImpaired)

	state, err := s.Trips.Run(ctx, question)
	resp := &TripResponse{Summary: trip.Summary(state), State: state}
	if err != nil {
		return resp, err
	}
	if !state.Planned() {
		return resp, ErrTripAborted
	}

	if s.Maps != nil {
		done := metrics.ObserveStage("map")
		layers, err := s.Maps.Assemble(ctx, state.Trip, routemap.Preferences{
			Wheelchair:       req.Wheelchair,
			VisuallyImpaired: req.VisuallyImpaired,
		})
		done()
		if err != nil {
			s.logger().Warn("Map assembly failed", "error", err)
		} else {
			resp.Map = layers
		}
	}
	return resp, nil
}
