package repository

import (
	"database/sql"
	"fmt"

	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/models"
)

// JobRepository handles database operations for render jobs
type JobRepository struct {
	db *sql.DB
}

// NewJobRepository creates a new render job repository
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create creates a new render job
func (r *JobRepository) Create(job *models.RenderJob) error {
	query := `
		INSERT INTO render_jobs (
			job_type, status, window_start, window_end,
			every_n_events, interval_seconds, log_order, output_path,
			frames_emitted, progress_percent, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		job.JobType,
		job.Status,
		job.WindowStart,
		job.WindowEnd,
		job.EveryNEvents,
		job.IntervalSeconds,
		job.LogOrder,
		job.OutputPath,
		job.FramesEmitted,
		job.ProgressPercent,
		job.ErrorMessage,
	)

	if err != nil {
		return fmt.Errorf("failed to create render job: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	job.ID = id
	return nil
}

// GetByID retrieves a render job by ID
func (r *JobRepository) GetByID(id int64) (*models.RenderJob, error) {
	query := `
		SELECT id, job_type, status, window_start, window_end,
			   every_n_events, interval_seconds, log_order, output_path,
			   frames_emitted, progress_percent, error_message,
			   created_at, updated_at
		FROM render_jobs
		WHERE id = ?
	`

	job := &models.RenderJob{}
	var errMsg sql.NullString
	err := r.db.QueryRow(query, id).Scan(
		&job.ID,
		&job.JobType,
		&job.Status,
		&job.WindowStart,
		&job.WindowEnd,
		&job.EveryNEvents,
		&job.IntervalSeconds,
		&job.LogOrder,
		&job.OutputPath,
		&job.FramesEmitted,
		&job.ProgressPercent,
		&errMsg,
		&job.CreatedAt,
		&job.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("render job not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get render job: %w", err)
	}

	job.ErrorMessage = errMsg.String
	return job, nil
}

// List retrieves render jobs with optional status filter, newest first
func (r *JobRepository) List(status string, limit int, offset int) ([]*models.RenderJob, error) {
	query := `
		SELECT id, job_type, status, window_start, window_end,
			   every_n_events, interval_seconds, log_order, output_path,
			   frames_emitted, progress_percent, error_message,
			   created_at, updated_at
		FROM render_jobs
		WHERE 1=1
	`

	var args []interface{}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY created_at DESC"

	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list render jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.RenderJob
	for rows.Next() {
		job := &models.RenderJob{}
		var errMsg sql.NullString
		err := rows.Scan(
			&job.ID,
			&job.JobType,
			&job.Status,
			&job.WindowStart,
			&job.WindowEnd,
			&job.EveryNEvents,
			&job.IntervalSeconds,
			&job.LogOrder,
			&job.OutputPath,
			&job.FramesEmitted,
			&job.ProgressPercent,
			&errMsg,
			&job.CreatedAt,
			&job.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan render job: %w", err)
		}
		job.ErrorMessage = errMsg.String
		jobs = append(jobs, job)
	}

	return jobs, nil
}

// MarkRunning marks a job as running
func (r *JobRepository) MarkRunning(id int64) error {
	return r.setStatus(id, models.JobStatusRunning, "")
}

// MarkCompleted marks a job as completed with full progress
func (r *JobRepository) MarkCompleted(id int64) error {
	query := `
		UPDATE render_jobs
		SET status = ?,
		    progress_percent = 100,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, models.JobStatusCompleted, id); err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}
	return nil
}

// MarkFailed marks a job as failed with an error message
func (r *JobRepository) MarkFailed(id int64, errMsg string) error {
	return r.setStatus(id, models.JobStatusFailed, errMsg)
}

func (r *JobRepository) setStatus(id int64, status, errMsg string) error {
	query := `
		UPDATE render_jobs
		SET status = ?,
		    error_message = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, status, errMsg, id); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return nil
}

// UpdateProgress updates frame count and completion percentage
func (r *JobRepository) UpdateProgress(id int64, framesEmitted int, progressPercent float64) error {
	query := `
		UPDATE render_jobs
		SET frames_emitted = ?,
		    progress_percent = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, framesEmitted, progressPercent, id); err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}
	return nil
}
