package entity

import "github.com/google/uuid"

// ExtractionRequestMessage is the inbound message from the frames.extraction
// queue. SampleRate and target dimensions are optional; zero values fall
// back to the worker defaults.
type ExtractionRequestMessage struct {
	JobID        uuid.UUID `json:"job_id"`
	UserID       string    `json:"user_id"`
	VideoKey     string    `json:"video_key"`
	FileSize     int64     `json:"file_size"`
	SampleRate   int       `json:"sample_rate,omitempty"`
	TargetWidth  int       `json:"target_width,omitempty"`
	TargetHeight int       `json:"target_height,omitempty"`
	UserEmail    string    `json:"user_email"`
}

// ExtractionStatusMessage is the outbound message published to the
// frames.status queue after each state change.
type ExtractionStatusMessage struct {
	JobID        uuid.UUID `json:"job_id"`
	UserID       string    `json:"user_id"`
	Status       JobStatus `json:"status"`
	VideoKey     string    `json:"video_key"`
	ArchiveKey   string    `json:"archive_key,omitempty"`
	FrameCount   int       `json:"frame_count,omitempty"`
	Duration     float64   `json:"duration_seconds,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Attempt      int       `json:"attempt"`
	MaxAttempts  int       `json:"max_attempts"`
}
