package service

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/cadence"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/era"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/grid"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/models"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/render"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/replay"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/repository"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/timeparse"
)

// ArchiveService handles archive queries and render job business logic
type ArchiveService struct {
	driver   *replay.Driver
	renderer render.Renderer
	jobs     *repository.JobRepository

	// Replay passes are disk- and CPU-heavy; run one render job at a time.
	renderMu sync.Mutex
}

// NewArchiveService creates a new archive service
func NewArchiveService(driver *replay.Driver, renderer render.Renderer, jobs *repository.JobRepository) *ArchiveService {
	return &ArchiveService{
		driver:   driver,
		renderer: renderer,
		jobs:     jobs,
	}
}

// Eras returns the known eras of the archive
func (s *ArchiveService) Eras() []models.EraInfo {
	infos := make([]models.EraInfo, 0, len(era.Table))
	for _, e := range era.Table {
		infos = append(infos, models.EraInfo{
			ID:    string(e.ID),
			Start: e.Start,
			End:   e.End,
		})
	}
	return infos
}

// StateAt reconstructs the grid state at the given instant
func (s *ArchiveService) StateAt(t time.Time) (grid.State, error) {
	return s.driver.StateAt(t)
}

// ImageAt reconstructs the grid state at the given instant and renders it as a PNG
func (s *ArchiveService) ImageAt(t time.Time, outPath string) error {
	state, err := s.driver.StateAt(t)
	if err != nil {
		return err
	}
	return s.renderer.StillImage(state, outPath)
}

// CreateJob validates a render request, records it, and starts it in the background
func (s *ArchiveService) CreateJob(req *models.CreateRenderJobRequest) (*models.RenderJob, error) {
	if req.JobType != models.JobTypeTimelapse && req.JobType != models.JobTypeHeatmap {
		return nil, fmt.Errorf("invalid job type: %s", req.JobType)
	}

	start, err := timeparse.Datetime(req.WindowStart)
	if err != nil {
		return nil, fmt.Errorf("invalid window start: %w", err)
	}
	windowEnd, err := timeparse.DatetimeOrSpan(req.WindowEnd)
	if err != nil {
		return nil, fmt.Errorf("invalid window end: %w", err)
	}
	end, _ := windowEnd.Resolve(start)

	if err := era.ValidateWindow(start, end); err != nil {
		return nil, err
	}

	// Reject bad cadence parameters before persisting the job.
	if _, err := s.buildStrategy(req); err != nil {
		return nil, err
	}

	// Negative log orders mean linear, same as zero.
	logOrder := req.LogOrder
	if logOrder < 0 {
		logOrder = 0
	}

	job := &models.RenderJob{
		JobType:         req.JobType,
		Status:          models.JobStatusPending,
		WindowStart:     start.Format(time.RFC3339),
		WindowEnd:       end.Format(time.RFC3339),
		EveryNEvents:    req.EveryNEvents,
		IntervalSeconds: req.IntervalSeconds,
		LogOrder:        logOrder,
		OutputPath:      req.OutputPath,
	}

	if err := s.jobs.Create(job); err != nil {
		return nil, fmt.Errorf("failed to create render job: %w", err)
	}

	go s.runJob(job.ID, req, start, end, logOrder)

	return job, nil
}

// runJob executes a render job to completion, updating the ledger as it goes
func (s *ArchiveService) runJob(jobID int64, req *models.CreateRenderJobRequest, start, end time.Time, logOrder int) {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	log.Printf("Starting render job %d (%s, %s to %s)", jobID, req.JobType,
		start.Format(time.RFC3339), end.Format(time.RFC3339))

	if err := s.jobs.MarkRunning(jobID); err != nil {
		log.Printf("Failed to mark job %d as running: %v", jobID, err)
		return
	}

	strategy, err := s.buildStrategy(req)
	if err != nil {
		s.fail(jobID, err)
		return
	}

	span := end.Sub(start)
	opts := replay.Options{
		Start:    start,
		End:      end,
		Strategy: strategy,
		OnFrame: func(count int, at time.Time) {
			percent := 100.0
			if span > 0 {
				percent = float64(at.Sub(start)) / float64(span) * 100
			}
			if err := s.jobs.UpdateProgress(jobID, count, percent); err != nil {
				log.Printf("Failed to update progress for job %d: %v", jobID, err)
			}
		},
	}

	switch req.JobType {
	case models.JobTypeTimelapse:
		err = s.driver.Timelapse(opts, req.OutputPath)
	case models.JobTypeHeatmap:
		err = s.driver.Heatmap(opts, logOrder, req.OutputPath)
	default:
		err = fmt.Errorf("invalid job type: %s", req.JobType)
	}
	if err != nil {
		s.fail(jobID, err)
		return
	}

	if err := s.jobs.MarkCompleted(jobID); err != nil {
		log.Printf("Failed to mark job %d as completed: %v", jobID, err)
		return
	}
	log.Printf("Render job %d completed: %s", jobID, req.OutputPath)
}

func (s *ArchiveService) fail(jobID int64, cause error) {
	log.Printf("Render job %d failed: %v", jobID, cause)
	if err := s.jobs.MarkFailed(jobID, cause.Error()); err != nil {
		log.Printf("Failed to mark job %d as failed: %v", jobID, err)
	}
}

// buildStrategy turns request cadence parameters into a cadence strategy
func (s *ArchiveService) buildStrategy(req *models.CreateRenderJobRequest) (*cadence.Strategy, error) {
	opts := cadence.Options{EveryN: req.EveryNEvents}
	if req.IntervalSeconds != nil {
		interval := time.Duration(*req.IntervalSeconds) * time.Second
		opts.Interval = &interval
	} else if req.EveryNEvents == nil {
		interval := cadence.DefaultInterval
		opts.Interval = &interval
	}
	return cadence.New(opts)
}

// GetJob retrieves a render job by ID
func (s *ArchiveService) GetJob(id int64) (*models.RenderJob, error) {
	return s.jobs.GetByID(id)
}

// ListJobs retrieves render jobs with optional filters
func (s *ArchiveService) ListJobs(status string, limit int, offset int) ([]*models.RenderJob, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.jobs.List(status, limit, offset)
}
