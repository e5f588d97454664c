package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/domain/entity"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.ExtractionJob) error {
	query := `
		INSERT INTO extraction_jobs (
			id, user_id, video_key, archive_key, status,
			sample_rate, target_width, target_height, frame_count,
			file_size, video_duration, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.UserID, job.VideoKey, job.ArchiveKey, string(job.Status),
		job.SampleRate, job.TargetWidth, job.TargetHeight, job.FrameCount,
		job.FileSize, job.VideoDuration, job.Attempt, job.MaxAttempts,
		job.ErrorMessage, job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert extraction job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.ExtractionJob) error {
	query := `
		UPDATE extraction_jobs SET
			status=$2, archive_key=$3, frame_count=$4, video_duration=$5,
			attempt=$6, error_message=$7, updated_at=$8, completed_at=$9
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.ArchiveKey, job.FrameCount,
		job.VideoDuration, job.Attempt, job.ErrorMessage,
		job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update extraction job: %w", err)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ExtractionJob, error) {
	query := `
		SELECT id, user_id, video_key, archive_key, status,
			sample_rate, target_width, target_height, frame_count,
			file_size, video_duration, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		FROM extraction_jobs WHERE id=$1`

	job := &entity.ExtractionJob{}
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.UserID, &job.VideoKey, &job.ArchiveKey, &status,
		&job.SampleRate, &job.TargetWidth, &job.TargetHeight, &job.FrameCount,
		&job.FileSize, &job.VideoDuration, &job.Attempt, &job.MaxAttempts,
		&job.ErrorMessage, &job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find extraction job by id: %w", err)
	}
	job.Status = entity.JobStatus(status)
	return job, nil
}
