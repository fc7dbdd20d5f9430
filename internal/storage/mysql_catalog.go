package storage

import (
	"context"
	"errors"

	"recruitflow-go/internal/storage/models"

	"gorm.io/gorm"
)

// ErrDuplicateName is returned when a reference-data name collides with an
// active row. Inactive rows do not block reuse.
var ErrDuplicateName = errors.New("name already in use")

// CreateArea inserts a new active area with a unique-among-active name.
func (m *MySQL) CreateArea(ctx context.Context, name string) (*models.Area, error) {
	area := &models.Area{Name: name, State: true}
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Area{}).
			Where("name = ? AND state = ?", name, true).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateName
		}
		return tx.Create(area).Error
	})
	if err != nil {
		return nil, err
	}
	return area, nil
}

// ListAreas returns areas, optionally filtered by state, name ascending.
func (m *MySQL) ListAreas(ctx context.Context, state *bool) ([]models.Area, error) {
	q := m.db.WithContext(ctx).Order("name ASC")
	if state != nil {
		q = q.Where("state = ?", *state)
	}
	var areas []models.Area
	if err := q.Find(&areas).Error; err != nil {
		return nil, err
	}
	return areas, nil
}

// GetAreaByID fetches one area.
func (m *MySQL) GetAreaByID(ctx context.Context, id uint) (*models.Area, error) {
	var area models.Area
	if err := m.db.WithContext(ctx).First(&area, id).Error; err != nil {
		return nil, err
	}
	return &area, nil
}

// RenameArea replaces an area's name. Uniqueness is only enforced at
// creation time; renames may collide with an existing active name.
func (m *MySQL) RenameArea(ctx context.Context, id uint, name string) (*models.Area, error) {
	var area models.Area
	if err := m.db.WithContext(ctx).First(&area, id).Error; err != nil {
		return nil, err
	}
	if err := m.db.WithContext(ctx).Model(&area).Update("name", name).Error; err != nil {
		return nil, err
	}
	area.Name = name
	return &area, nil
}

// ToggleAreaState inverts the soft-delete flag of an area.
func (m *MySQL) ToggleAreaState(ctx context.Context, id uint) (*models.Area, error) {
	var area models.Area
	if err := m.db.WithContext(ctx).First(&area, id).Error; err != nil {
		return nil, err
	}
	newState := !area.State
	if err := m.db.WithContext(ctx).Model(&area).Update("state", newState).Error; err != nil {
		return nil, err
	}
	area.State = newState
	return &area, nil
}

// CreateJobPosition inserts a new active job position under an existing
// area. The name must be unique among active positions of the same area.
func (m *MySQL) CreateJobPosition(ctx context.Context, name string, areaID uint) (*models.JobPosition, error) {
	job := &models.JobPosition{Name: name, AreaID: areaID, State: true}
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var area models.Area
		if err := tx.First(&area, areaID).Error; err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.JobPosition{}).
			Where("name = ? AND area_id = ? AND state = ?", name, areaID, true).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateName
		}
		return tx.Create(job).Error
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ListJobPositions returns positions with their area preloaded, optionally
// filtered by area and state.
func (m *MySQL) ListJobPositions(ctx context.Context, areaID *uint, state *bool) ([]models.JobPosition, error) {
	q := m.db.WithContext(ctx).Preload("Area").Order("name ASC")
	if areaID != nil {
		q = q.Where("area_id = ?", *areaID)
	}
	if state != nil {
		q = q.Where("state = ?", *state)
	}
	var jobs []models.JobPosition
	if err := q.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetJobPositionByID fetches one position with its area.
func (m *MySQL) GetJobPositionByID(ctx context.Context, id uint) (*models.JobPosition, error) {
	var job models.JobPosition
	if err := m.db.WithContext(ctx).Preload("Area").First(&job, id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateJobPosition renames a position and optionally moves it to another
// area. As with areas, uniqueness is only enforced at creation time.
func (m *MySQL) UpdateJobPosition(ctx context.Context, id uint, name string, areaID *uint) (*models.JobPosition, error) {
	var job models.JobPosition
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&job, id).Error; err != nil {
			return err
		}

		targetArea := job.AreaID
		if areaID != nil {
			var area models.Area
			if err := tx.First(&area, *areaID).Error; err != nil {
				return err
			}
			targetArea = *areaID
		}

		updates := map[string]interface{}{"name": name, "area_id": targetArea}
		if err := tx.Model(&job).Updates(updates).Error; err != nil {
			return err
		}
		job.Name = name
		job.AreaID = targetArea
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// SetJobPositionState flips the soft-delete flag of a position.
func (m *MySQL) SetJobPositionState(ctx context.Context, id uint, state bool) (*models.JobPosition, error) {
	var job models.JobPosition
	if err := m.db.WithContext(ctx).First(&job, id).Error; err != nil {
		return nil, err
	}
	if err := m.db.WithContext(ctx).Model(&job).Update("state", state).Error; err != nil {
		return nil, err
	}
	job.State = state
	return &job, nil
}
