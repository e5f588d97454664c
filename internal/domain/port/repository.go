package port

import (
	"context"

	"github.com/CSC4790-Fall2024-Org/Synthetic-Training-Data-UAV-Detector/internal/domain/entity"
	"github.com/google/uuid"
)

type JobRepository interface {
	Create(ctx context.Context, job *entity.ExtractionJob) error
	Update(ctx context.Context, job *entity.ExtractionJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ExtractionJob, error)
}
