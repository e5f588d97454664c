package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// ExtractionJob tracks one video through the frame-extraction pipeline.
type ExtractionJob struct {
	ID            uuid.UUID
	UserID        string
	VideoKey      string
	ArchiveKey    string
	Status        JobStatus
	SampleRate    int
	TargetWidth   int
	TargetHeight  int
	FrameCount    int
	FileSize      int64
	VideoDuration float64
	Attempt       int
	MaxAttempts   int
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

func NewExtractionJob(userID, videoKey string, fileSize int64, sampleRate, targetWidth, targetHeight, maxAttempts int) *ExtractionJob {
	now := time.Now().UTC()
	return &ExtractionJob{
		ID:           uuid.New(),
		UserID:       userID,
		VideoKey:     videoKey,
		FileSize:     fileSize,
		Status:       JobStatusPending,
		SampleRate:   sampleRate,
		TargetWidth:  targetWidth,
		TargetHeight: targetHeight,
		Attempt:      0,
		MaxAttempts:  maxAttempts,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (j *ExtractionJob) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.UpdatedAt = time.Now().UTC()
}

func (j *ExtractionJob) MarkCompleted(archiveKey string, frameCount int, duration float64) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.ArchiveKey = archiveKey
	j.FrameCount = frameCount
	j.VideoDuration = duration
	j.ErrorMessage = ""
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *ExtractionJob) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

func (j *ExtractionJob) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
