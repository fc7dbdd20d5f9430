package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"recruitflow-go/internal/storage/models"

	"gorm.io/gorm"
)

// GetPostulantByDNI fetches one candidate.
func (m *MySQL) GetPostulantByDNI(ctx context.Context, dni string) (*models.Postulant, error) {
	var p models.Postulant
	if err := m.db.WithContext(ctx).Where("dni = ?", dni).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindPostulantByCVURL resolves a candidate through the URL of their stored
// CV. Returns nil without error when no candidate matches.
func (m *MySQL) FindPostulantByCVURL(ctx context.Context, cvURL string) (*models.Postulant, error) {
	if cvURL == "" {
		return nil, nil
	}
	var p models.Postulant
	err := m.db.WithContext(ctx).Where("cv_url = ?", cvURL).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindPostulantByDriveFileID resolves a candidate through the drive file id
// of their stored CV. Returns nil without error when no candidate matches.
func (m *MySQL) FindPostulantByDriveFileID(ctx context.Context, fileID string) (*models.Postulant, error) {
	if fileID == "" {
		return nil, nil
	}
	var p models.Postulant
	err := m.db.WithContext(ctx).Where("cv_drive_file_id = ?", fileID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePostulant inserts a new candidate.
func (m *MySQL) CreatePostulant(ctx context.Context, p *models.Postulant) error {
	if p.RegisDate.IsZero() {
		p.RegisDate = time.Now()
	}
	return m.db.WithContext(ctx).Create(p).Error
}

// UpdatePostulantFields applies a partial update to a candidate.
func (m *MySQL) UpdatePostulantFields(ctx context.Context, dni string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return m.db.WithContext(ctx).
		Model(&models.Postulant{}).
		Where("dni = ?", dni).
		Updates(updates).Error
}

// SearchPostulants does a case-insensitive substring search over name, dni
// and email, returning the page plus the total before pagination.
func (m *MySQL) SearchPostulants(ctx context.Context, search string, offset, limit int) ([]models.Postulant, int64, error) {
	q := m.db.WithContext(ctx).Model(&models.Postulant{})
	if s := strings.TrimSpace(search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(dni) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var postulants []models.Postulant
	if err := q.Order("regis_date DESC").Offset(offset).Limit(limit).Find(&postulants).Error; err != nil {
		return nil, 0, err
	}
	return postulants, total, nil
}

// FindOrCreatePostulation ensures the (postulant, process) pair exists,
// creating it as Pendiente when missing.
func (m *MySQL) FindOrCreatePostulation(ctx context.Context, dni string, processID uint) (*models.Postulation, error) {
	var postulation models.Postulation
	err := m.db.WithContext(ctx).
		Where("postulant_dni = ? AND process_id = ?", dni, processID).
		First(&postulation).Error
	if err == nil {
		return &postulation, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	postulation = models.Postulation{
		PostulantDNI: dni,
		ProcessID:    processID,
		Status:       models.PostulationPending,
		AppliedAt:    time.Now(),
	}
	if err := m.db.WithContext(ctx).Create(&postulation).Error; err != nil {
		return nil, err
	}
	return &postulation, nil
}

// SetPostulationStatus updates the status of one postulation.
func (m *MySQL) SetPostulationStatus(ctx context.Context, postulationID uint, status string) error {
	return m.db.WithContext(ctx).
		Model(&models.Postulation{}).
		Where("id = ?", postulationID).
		Update("status", status).Error
}
