package storage

import (
	"context"
	"strings"
	"time"

	"recruitflow-go/internal/storage/models"

	"gorm.io/gorm"
)

// CreateEvaluacion inserts one evaluation row.
func (m *MySQL) CreateEvaluacion(ctx context.Context, eval *models.EvaluacionCV) error {
	if eval.DateCreate.IsZero() {
		eval.DateCreate = time.Now()
	}
	return m.db.WithContext(ctx).Create(eval).Error
}

// GetEvaluacionByID fetches one evaluation with its process.
func (m *MySQL) GetEvaluacionByID(ctx context.Context, id uint) (*models.EvaluacionCV, error) {
	var eval models.EvaluacionCV
	if err := m.db.WithContext(ctx).Preload("Process").First(&eval, id).Error; err != nil {
		return nil, err
	}
	return &eval, nil
}

// ListEvaluationsByProcess returns every evaluation of one process, newest
// first.
func (m *MySQL) ListEvaluationsByProcess(ctx context.Context, processID uint) ([]models.EvaluacionCV, error) {
	var evals []models.EvaluacionCV
	err := m.db.WithContext(ctx).
		Where("charge_process_id = ?", processID).
		Order("date_create DESC").
		Find(&evals).Error
	if err != nil {
		return nil, err
	}
	return evals, nil
}

// ExistingFileIdentifiers returns the set of file URLs and file names
// already represented by evaluations of a process. Ingestion uses it to
// skip files a previous run already covered.
func (m *MySQL) ExistingFileIdentifiers(ctx context.Context, processID uint) (map[string]struct{}, error) {
	type row struct {
		URLCV         string
		NombreArchivo string
	}
	var rows []row
	err := m.db.WithContext(ctx).
		Model(&models.EvaluacionCV{}).
		Select("url_cv, nombre_archivo").
		Where("charge_process_id = ?", processID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(rows)*2)
	for _, r := range rows {
		if r.URLCV != "" {
			seen[r.URLCV] = struct{}{}
		}
		if r.NombreArchivo != "" {
			seen[r.NombreArchivo] = struct{}{}
		}
	}
	return seen, nil
}

// UpdateEvaluacionScores persists a manual evaluator score and the
// recomputed blend.
func (m *MySQL) UpdateEvaluacionScores(ctx context.Context, id uint, matchEval, matchTotal float64) error {
	return m.db.WithContext(ctx).
		Model(&models.EvaluacionCV{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"match_eval":  matchEval,
			"match_total": matchTotal,
		}).Error
}

// UpdateMatchByDNIAndProcess corrects the engine score of the evaluation
// identified by candidate and process. Rows that already carry a manual
// evaluator score get their blended total recomputed in the same statement,
// so the total never reflects a superseded engine score. Returns the number
// of rows touched so the caller can distinguish a miss.
func (m *MySQL) UpdateMatchByDNIAndProcess(ctx context.Context, dni string, processID uint, match float64) (int64, error) {
	result := m.db.WithContext(ctx).
		Model(&models.EvaluacionCV{}).
		Where("dni_postulante = ? AND charge_process_id = ?", dni, processID).
		Updates(map[string]interface{}{
			"match":       match,
			"match_total": gorm.Expr("CASE WHEN match_eval IS NULL THEN match_total ELSE ROUND((? + match_eval) / 2, 2) END", match),
		})
	return result.RowsAffected, result.Error
}

// QualifiedEvaluations returns processed evaluations of one process whose
// engine score reaches the threshold, best first.
func (m *MySQL) QualifiedEvaluations(ctx context.Context, processID uint, threshold float64) ([]models.EvaluacionCV, error) {
	var evals []models.EvaluacionCV
	err := m.db.WithContext(ctx).
		Where("charge_process_id = ? AND cv_procesado = ? AND `match` >= ?", processID, true, threshold).
		Order("`match` DESC").
		Find(&evals).Error
	if err != nil {
		return nil, err
	}
	return evals, nil
}

// ListEvaluationsByPostulant returns a candidate's evaluation history
// across all processes, newest first.
func (m *MySQL) ListEvaluationsByPostulant(ctx context.Context, dni string) ([]models.EvaluacionCV, error) {
	var evals []models.EvaluacionCV
	err := m.db.WithContext(ctx).
		Preload("Process").
		Preload("Process.Job").
		Where("dni_postulante = ?", dni).
		Order("date_create DESC").
		Find(&evals).Error
	if err != nil {
		return nil, err
	}
	return evals, nil
}

// EvaluationHistoryFilter narrows the cross-process evaluation report.
// Zero values mean "no restriction". OwnerID restricts to processes the
// caller created; admins leave it nil.
type EvaluationHistoryFilter struct {
	Search     string
	PuestoID   *uint
	Proceso    string
	FechaDesde *time.Time
	FechaHasta *time.Time
	MinMatch   *float64
	MaxMatch   *float64
	OwnerID    *uint
	Offset     int
	Limit      int
}

// EvaluationHistoryRow is one line of the report, flattened with the
// process and position it belongs to.
type EvaluationHistoryRow struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Match         float64   `json:"match"`
	MatchEval     *float64  `json:"match_eval"`
	MatchTotal    *float64  `json:"match_total"`
	Reason        string    `json:"reason"`
	Summary       string    `json:"summary"`
	DNIPostulante *string   `json:"dni_postulante"`
	URLCV         string    `json:"url_cv"`
	CVProcesado   bool      `json:"cv_procesado"`
	CVEstado      string    `json:"cv_estado"`
	DateCreate    time.Time `json:"date_create"`
	ProcessID     uint      `json:"process_id"`
	ProcessCode   string    `json:"process_code"`
	PuestoID      uint      `json:"puesto_id"`
	PuestoName    string    `json:"puesto_name"`
}

// EvaluationHistory runs the cross-process report, returning the page and
// the total before pagination.
func (m *MySQL) EvaluationHistory(ctx context.Context, filter EvaluationHistoryFilter) ([]EvaluationHistoryRow, int64, error) {
	q := m.db.WithContext(ctx).
		Model(&models.EvaluacionCV{}).
		Joins("JOIN charge_processes ON charge_processes.id = evaluaciones_cv.charge_process_id").
		Joins("JOIN job_positions ON job_positions.id = charge_processes.job_id")

	if s := strings.TrimSpace(filter.Search); s != "" {
		q = q.Where("LOWER(evaluaciones_cv.name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if filter.PuestoID != nil {
		q = q.Where("charge_processes.job_id = ?", *filter.PuestoID)
	}
	if p := strings.TrimSpace(filter.Proceso); p != "" {
		q = q.Where("charge_processes.code LIKE ?", "%"+p+"%")
	}
	if filter.FechaDesde != nil {
		q = q.Where("evaluaciones_cv.date_create >= ?", *filter.FechaDesde)
	}
	if filter.FechaHasta != nil {
		// Inclusive end date: anything before the following midnight.
		q = q.Where("evaluaciones_cv.date_create < ?", filter.FechaHasta.AddDate(0, 0, 1))
	}
	if filter.MinMatch != nil {
		q = q.Where("evaluaciones_cv.match >= ?", *filter.MinMatch)
	}
	if filter.MaxMatch != nil {
		q = q.Where("evaluaciones_cv.match <= ?", *filter.MaxMatch)
	}
	if filter.OwnerID != nil {
		q = q.Where("charge_processes.user_id = ?", *filter.OwnerID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q = q.Select(`evaluaciones_cv.id, evaluaciones_cv.name, evaluaciones_cv.match,
		evaluaciones_cv.match_eval, evaluaciones_cv.match_total, evaluaciones_cv.reason,
		evaluaciones_cv.summary, evaluaciones_cv.dni_postulante, evaluaciones_cv.url_cv,
		evaluaciones_cv.cv_procesado, evaluaciones_cv.cv_estado, evaluaciones_cv.date_create,
		charge_processes.id AS process_id, charge_processes.code AS process_code,
		job_positions.id AS puesto_id, job_positions.name AS puesto_name`).
		Order("evaluaciones_cv.date_create DESC")
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var rows []EvaluationHistoryRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
