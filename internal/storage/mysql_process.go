package storage

import (
	"context"
	"errors"

	"recruitflow-go/internal/storage/models"

	"gorm.io/gorm"
)

// ErrDuplicateCode is returned when a generated process code collides.
var ErrDuplicateCode = errors.New("process code already exists")

// CountProcessesByUser counts every process a user has ever created. Feeds
// the sequence segment of new process codes.
func (m *MySQL) CountProcessesByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := m.db.WithContext(ctx).
		Model(&models.ChargeProcess{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// CreateProcess inserts a new charge process, surfacing code collisions as
// ErrDuplicateCode.
func (m *MySQL) CreateProcess(ctx context.Context, process *models.ChargeProcess) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ChargeProcess{}).
			Where("code = ?", process.Code).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateCode
		}
		return tx.Create(process).Error
	})
}

// GetProcessByID fetches one process with its job, area and author.
func (m *MySQL) GetProcessByID(ctx context.Context, id uint) (*models.ChargeProcess, error) {
	var process models.ChargeProcess
	err := m.db.WithContext(ctx).
		Preload("Job").
		Preload("Job.Area").
		Preload("User").
		First(&process, id).Error
	if err != nil {
		return nil, err
	}
	return &process, nil
}

// GetProcessByCode fetches one process by its unique code.
func (m *MySQL) GetProcessByCode(ctx context.Context, code string) (*models.ChargeProcess, error) {
	var process models.ChargeProcess
	err := m.db.WithContext(ctx).
		Preload("Job").
		Preload("Job.Area").
		Where("code = ?", code).
		First(&process).Error
	if err != nil {
		return nil, err
	}
	return &process, nil
}

// ListProcesses returns processes newest first. ownerID restricts to one
// author (non-admin callers); jobID and state are optional filters.
func (m *MySQL) ListProcesses(ctx context.Context, ownerID, jobID *uint, state *bool) ([]models.ChargeProcess, error) {
	q := m.db.WithContext(ctx).
		Preload("Job").
		Preload("Job.Area").
		Preload("User").
		Order("create_date DESC")
	if ownerID != nil {
		q = q.Where("user_id = ?", *ownerID)
	}
	if jobID != nil {
		q = q.Where("job_id = ?", *jobID)
	}
	if state != nil {
		q = q.Where("state = ?", *state)
	}

	var processes []models.ChargeProcess
	if err := q.Find(&processes).Error; err != nil {
		return nil, err
	}
	return processes, nil
}

// SetProcessState flips the soft-delete flag of a process.
func (m *MySQL) SetProcessState(ctx context.Context, id uint, state bool) error {
	return m.db.WithContext(ctx).
		Model(&models.ChargeProcess{}).
		Where("id = ?", id).
		Update("state", state).Error
}

// SetProcessingFlag mirrors the ingestion lease into the is_processing
// column so list and detail views can show a run in progress.
func (m *MySQL) SetProcessingFlag(ctx context.Context, id uint, processing bool) error {
	return m.db.WithContext(ctx).
		Model(&models.ChargeProcess{}).
		Where("id = ?", id).
		Update("is_processing", processing).Error
}

// SetEndProcess marks a process finalized or reopens it.
func (m *MySQL) SetEndProcess(ctx context.Context, id uint, ended bool) error {
	return m.db.WithContext(ctx).
		Model(&models.ChargeProcess{}).
		Where("id = ?", id).
		Update("end_process", ended).Error
}
