package process

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"recruitflow-go/internal/apperr"
	"recruitflow-go/internal/config"
	"recruitflow-go/internal/engine"
	"recruitflow-go/internal/logger"
	"recruitflow-go/internal/storage"
	"recruitflow-go/internal/storage/models"

	"gorm.io/gorm"
)

// QualifyingMatchThreshold is the minimum engine score a candidate needs to
// be forwarded when a process is finalized.
const QualifyingMatchThreshold = 80.0

// Service orchestrates the charge-process lifecycle: creation with remote
// folder provisioning, CV ingestion, finalization and score blending.
type Service struct {
	store  *storage.Storage
	engine *engine.Client
	cfg    *config.Config
}

// NewService wires the lifecycle service.
func NewService(store *storage.Storage, engineClient *engine.Client, cfg *config.Config) *Service {
	return &Service{
		store:  store,
		engine: engineClient,
		cfg:    cfg,
	}
}

// GenerateCode builds a process code from the owner, the creation date and
// the owner's process sequence number.
func GenerateCode(userID uint, date time.Time, sequence int64) string {
	return fmt.Sprintf("%04d-%s-%05d", userID, date.Format("20060102"), sequence)
}

// NewFormToken returns a random URL-safe token gating the public intake
// form of a process.
func NewFormToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating form token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// BuildFormURL expands the configured public form link template.
func BuildFormURL(template, code, token string) string {
	url := strings.ReplaceAll(template, "{code}", code)
	return strings.ReplaceAll(url, "{token}", token)
}

// Authorize rejects callers who neither own the process nor are admins.
func Authorize(user *models.User, process *models.ChargeProcess) error {
	if user.Role == models.RoleAdmin || process.UserID == user.ID {
		return nil
	}
	return apperr.New(apperr.KindForbidden, "No tienes permiso para este proceso")
}

// GetAuthorized loads a process and checks the caller may act on it.
func (s *Service) GetAuthorized(ctx context.Context, user *models.User, processID uint) (*models.ChargeProcess, error) {
	process, err := s.store.MySQL.GetProcessByID(ctx, processID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "Proceso no encontrado")
	}
	if err != nil {
		return nil, err
	}
	if err := Authorize(user, process); err != nil {
		return nil, err
	}
	return process, nil
}

// Create provisions a new charge process: unique code, remote drive
// folder, form token and public form URL.
func (s *Service) Create(ctx context.Context, user *models.User, jobID uint, reque, functions string) (*models.ChargeProcess, error) {
	job, err := s.store.MySQL.GetJobPositionByID(ctx, jobID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "Puesto no encontrado")
	}
	if err != nil {
		return nil, err
	}

	count, err := s.store.MySQL.CountProcessesByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	code := GenerateCode(user.ID, time.Now(), count+1)

	folder, err := s.engine.CreateFolder(ctx, code)
	if err != nil {
		return nil, err
	}

	token, err := NewFormToken()
	if err != nil {
		return nil, err
	}

	process := &models.ChargeProcess{
		Code:           code,
		JobID:          job.ID,
		Reque:          reque,
		Functions:      functions,
		UserID:         user.ID,
		DriveFolderID:  folder.FolderID,
		DriveFolderURL: folder.FolderURL,
		CreateDate:     time.Now(),
		State:          true,
		FormToken:      token,
		FormURL:        BuildFormURL(s.cfg.Form.PublicBaseURL, code, token),
	}

	if err := s.store.MySQL.CreateProcess(ctx, process); err != nil {
		if errors.Is(err, storage.ErrDuplicateCode) {
			return nil, apperr.New(apperr.KindConflict, "Ya existe un proceso con el código '%s'", code)
		}
		return nil, err
	}

	logger.Info().Str("code", code).Uint("user_id", user.ID).Msg("charge process created")
	return process, nil
}

// Finalize forwards the qualifying candidates of a process to the
// propagate-results webhook and marks it ended. A gateway failure leaves
// the process untouched, so the call is safe to retry.
func (s *Service) Finalize(ctx context.Context, user *models.User, processID uint) (int, error) {
	process, err := s.GetAuthorized(ctx, user, processID)
	if err != nil {
		return 0, err
	}
	if process.EndProcess {
		return 0, apperr.New(apperr.KindValidation, "El proceso ya fue finalizado")
	}

	qualified, err := s.store.MySQL.QualifiedEvaluations(ctx, process.ID, QualifyingMatchThreshold)
	if err != nil {
		return 0, err
	}
	if len(qualified) == 0 {
		return 0, apperr.New(apperr.KindValidation, "No hay evaluaciones con match >= %.0f para finalizar", QualifyingMatchThreshold)
	}

	payload := &engine.PropagatePayload{
		ProcessID:   process.ID,
		ProcessCode: process.Code,
		Candidatos:  make([]engine.Candidate, 0, len(qualified)),
	}
	if process.Job != nil {
		payload.Puesto = process.Job.Name
	}
	for _, eval := range qualified {
		candidate := engine.Candidate{
			Name:    eval.Name,
			Match:   eval.Match,
			Summary: eval.Summary,
			URLCV:   eval.URLCV,
		}
		if eval.DNIPostulante != nil {
			candidate.DNI = *eval.DNIPostulante
			if postulant, perr := s.store.MySQL.GetPostulantByDNI(ctx, *eval.DNIPostulante); perr == nil {
				candidate.Email = postulant.Email
				candidate.Telf = postulant.Telf
			}
		}
		payload.Candidatos = append(payload.Candidatos, candidate)
	}

	if err := s.engine.PropagateResults(ctx, payload); err != nil {
		return 0, err
	}

	if err := s.store.MySQL.SetEndProcess(ctx, process.ID, true); err != nil {
		return 0, err
	}

	logger.Info().Str("code", process.Code).Int("candidatos", len(payload.Candidatos)).Msg("charge process finalized")
	return len(payload.Candidatos), nil
}

// Reactivate reopens a finalized process. Finalization is terminal for the
// owner; only an admin can undo it.
func (s *Service) Reactivate(ctx context.Context, user *models.User, processID uint) error {
	if user.Role != models.RoleAdmin {
		return apperr.New(apperr.KindForbidden, "Solo un administrador puede reactivar un proceso")
	}
	process, err := s.GetAuthorized(ctx, user, processID)
	if err != nil {
		return err
	}
	if !process.EndProcess {
		return apperr.New(apperr.KindValidation, "El proceso no está finalizado")
	}
	return s.store.MySQL.SetEndProcess(ctx, process.ID, false)
}

// RecalcBlend stores a manual evaluator score and the recomputed blended
// total for one evaluation. Allowed to admins and the process owner.
func (s *Service) RecalcBlend(ctx context.Context, user *models.User, evalID uint, matchEval float64) (*models.EvaluacionCV, error) {
	if matchEval < 0 || matchEval > 100 {
		return nil, apperr.New(apperr.KindValidation, "match_eval debe estar entre 0 y 100")
	}

	eval, err := s.store.MySQL.GetEvaluacionByID(ctx, evalID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "Evaluación no encontrada")
	}
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleAdmin && (eval.Process == nil || eval.Process.UserID != user.ID) {
		return nil, apperr.New(apperr.KindForbidden, "No tienes permiso para esta evaluación")
	}

	total := models.BlendScores(eval.Match, matchEval)
	if err := s.store.MySQL.UpdateEvaluacionScores(ctx, eval.ID, matchEval, total); err != nil {
		return nil, err
	}
	eval.MatchEval = &matchEval
	eval.MatchTotal = &total
	return eval, nil
}
