package process

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"recruitflow-go/internal/apperr"
	"recruitflow-go/internal/engine"
	"recruitflow-go/internal/logger"
	"recruitflow-go/internal/storage/models"
	"recruitflow-go/internal/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// IngestSummary reports one ingestion run: how many files succeeded, how
// many failed, the evaluations written and the per-file error messages.
type IngestSummary struct {
	Procesados   int                 `json:"procesados"`
	Fallidos     int                 `json:"fallidos"`
	Evaluaciones []EvaluacionResumen `json:"evaluaciones"`
	Errores      []string            `json:"errores"`
}

// EvaluacionResumen is the per-file slice of the summary.
type EvaluacionResumen struct {
	Name    string    `json:"name"`
	Match   float64   `json:"match"`
	Summary string    `json:"summary"`
	Reason  string    `json:"reason"`
	Skills  string    `json:"skills"`
	Archivo string    `json:"archivo"`
	Fecha   time.Time `json:"fecha"`
}

// Ingest runs one evaluation pass over the process folder. The run is
// idempotent: files already represented by an evaluation row are skipped,
// so re-invoking after a partial failure resumes where it left off. Files
// are processed strictly sequentially; results commit per file.
func (s *Service) Ingest(ctx context.Context, user *models.User, processID uint) (*IngestSummary, error) {
	process, err := s.GetAuthorized(ctx, user, processID)
	if err != nil {
		return nil, err
	}
	if process.DriveFolderID == "" {
		return nil, apperr.New(apperr.KindValidation, "El proceso no tiene carpeta asociada")
	}

	// One run per process at a time. The lease expires on its own, so a
	// crashed run cannot wedge the process.
	leaseOwner := uuid.NewString()
	acquired, err := s.store.Redis.AcquireIngestLease(ctx, process.ID, leaseOwner)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, apperr.New(apperr.KindConflict, "El proceso ya está siendo procesado")
	}
	defer func() {
		// Clearing runs against a fresh context: the request context may
		// already be cancelled when the run ends.
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.store.MySQL.SetProcessingFlag(cleanupCtx, process.ID, false); err != nil {
			logger.Error().Err(err).Uint("process_id", process.ID).Msg("failed to clear is_processing flag")
		}
		if err := s.store.Redis.ReleaseIngestLease(cleanupCtx, process.ID, leaseOwner); err != nil {
			logger.Error().Err(err).Uint("process_id", process.ID).Msg("failed to release ingest lease")
		}
	}()

	// Mirror the lease into the column so list/detail views show the run.
	if err := s.store.MySQL.SetProcessingFlag(ctx, process.ID, true); err != nil {
		return nil, err
	}

	files, err := s.engine.ListFolderFiles(ctx, process.DriveFolderID, process.ID)
	if err != nil {
		return nil, err
	}

	seen, err := s.store.MySQL.ExistingFileIdentifiers(ctx, process.ID)
	if err != nil {
		return nil, err
	}

	pending := pendingFiles(files, seen)

	logger.Info().
		Uint("process_id", process.ID).
		Int("total", len(files)).
		Int("pending", len(pending)).
		Msg("ingestion run starting")

	summary := &IngestSummary{
		Evaluaciones: []EvaluacionResumen{},
		Errores:      []string{},
	}

	for _, file := range pending {
		// Renew between files so a long run cannot outlive its lease.
		if held, rerr := s.store.Redis.RenewIngestLease(ctx, process.ID, leaseOwner); rerr != nil {
			logger.Warn().Err(rerr).Uint("process_id", process.ID).Msg("ingest lease renewal failed")
		} else if !held {
			logger.Warn().Uint("process_id", process.ID).Msg("ingest lease no longer held")
		}

		eval, ferr := s.ingestFile(ctx, process, file)
		if ferr != nil {
			summary.Fallidos++
			summary.Errores = append(summary.Errores, fmt.Sprintf("%s: %v", file.Identifier(), ferr))
			logger.Warn().Err(ferr).Str("file", file.Identifier()).Msg("file ingestion failed")
			tracing.RecordErrorWithInfo(trace.SpanFromContext(ctx), ferr, tracing.ErrorTypeExternal,
				attribute.String("file", file.Identifier()),
				attribute.String("process_code", process.Code))
			continue
		}
		summary.Procesados++
		summary.Evaluaciones = append(summary.Evaluaciones, EvaluacionResumen{
			Name:    eval.Name,
			Match:   eval.Match,
			Summary: eval.Summary,
			Reason:  eval.Reason,
			Skills:  eval.Skills,
			Archivo: eval.NombreArchivo,
			Fecha:   eval.DateCreate,
		})
	}

	return summary, nil
}

// pendingFiles filters the folder listing down to files no evaluation row
// covers yet, matching on URL first and file name second. Empty identifiers
// never match: a row without a URL must not swallow every other URL-less
// file.
func pendingFiles(files []engine.DriveFile, seen map[string]struct{}) []engine.DriveFile {
	var pending []engine.DriveFile
	for _, f := range files {
		if _, ok := seen[f.URL]; ok && f.URL != "" {
			continue
		}
		if _, ok := seen[f.Name]; ok && f.Name != "" {
			continue
		}
		pending = append(pending, f)
	}
	return pending
}

// ingestFile evaluates one file and persists the outcome. Its own error
// return covers failures before anything was written; engine-side
// processing failures still yield a placeholder evaluation row.
func (s *Service) ingestFile(ctx context.Context, process *models.ChargeProcess, file engine.DriveFile) (*models.EvaluacionCV, error) {
	req := &engine.EvaluateRequest{
		FolderID:  process.DriveFolderID,
		ProcessID: process.ID,
		FileID:    file.ID,
		FileName:  file.Name,
		FileURL:   file.URL,
		Reque:     process.Reque,
		Functions: process.Functions,
		PuestoID:  process.JobID,
	}
	if process.Job != nil {
		req.Puesto = process.Job.Name
	}

	result, err := s.engine.EvaluateCV(ctx, req)
	if err != nil {
		return nil, err
	}

	return s.upsertResult(ctx, process, result)
}

// upsertResult applies one engine result: resolve or create the candidate,
// refresh their profile and insert the evaluation row.
//
// Resolution precedence: stored CV URL, then stored drive file id, then the
// extracted document number. A match by file means "same submission", which
// is stronger evidence than an extracted name, so core identity fields are
// left alone on that branch; a match by document number refreshes them.
func (s *Service) upsertResult(ctx context.Context, process *models.ChargeProcess, result *engine.EvaluationResult) (*models.EvaluacionCV, error) {
	postulant, err := s.store.MySQL.FindPostulantByCVURL(ctx, result.FileURL)
	if err != nil {
		return nil, err
	}
	foundByFile := postulant != nil

	if postulant == nil {
		postulant, err = s.store.MySQL.FindPostulantByDriveFileID(ctx, result.FileID)
		if err != nil {
			return nil, err
		}
		foundByFile = postulant != nil
	}

	if postulant == nil && result.DNI != "" {
		postulant, err = s.store.MySQL.GetPostulantByDNI(ctx, result.DNI)
		if err != nil && !isNotFound(err) {
			return nil, err
		}
		err = nil
	}

	processed := result.Processed()

	switch {
	case postulant == nil && (result.DNI != "" || processed):
		dni := result.DNI
		if dni == "" {
			dni = "temp-" + uuid.NewString()
		}
		postulant = &models.Postulant{
			DNI:           dni,
			Name:          result.Name,
			Email:         result.Email,
			Telf:          result.Telf,
			Address:       result.Address,
			CVURL:         result.FileURL,
			CVDriveFileID: result.FileID,
		}
		applyProfile(postulant, result)
		if err := s.store.MySQL.CreatePostulant(ctx, postulant); err != nil {
			return nil, err
		}

	case postulant != nil:
		updates := profileUpdates(result)
		if !foundByFile {
			if result.Name != "" {
				updates["name"] = result.Name
			}
			if result.Email != "" {
				updates["email"] = result.Email
			}
			if result.Telf != "" {
				updates["telf"] = result.Telf
			}
			if result.Address != "" {
				updates["address"] = result.Address
			}
		}
		if result.FileURL != "" {
			updates["cv_url"] = result.FileURL
		}
		if result.FileID != "" {
			updates["cv_drive_file_id"] = result.FileID
		}
		if err := s.store.MySQL.UpdatePostulantFields(ctx, postulant.DNI, updates); err != nil {
			return nil, err
		}
	}

	eval := &models.EvaluacionCV{
		PuestoID:        process.JobID,
		ChargeProcessID: process.ID,
		URLCV:           result.FileURL,
		NombreArchivo:   result.FileName,
		DateCreate:      time.Now(),
	}
	if postulant != nil {
		dni := postulant.DNI
		eval.DNIPostulante = &dni
	}

	if processed {
		ev := result.Evaluacion
		eval.Name = ev.Name
		if eval.Name == "" {
			eval.Name = result.Name
		}
		eval.Match = ev.Match
		eval.Reason = ev.Reason
		eval.Skills = ev.Skills.Join()
		eval.Summary = ev.Summary
		eval.Functions = ev.Functions.Join()
		eval.YearsExper = result.YearsExper
		eval.LevelEduca = result.LevelEduca
		eval.Certif = result.Certif.Join()
		eval.Languages = result.Languages.Join()
		eval.DifferentialAdvantages = result.DifferentialAdvantages.Join()
		eval.CVProcesado = true
		eval.CVEstado = "Procesado"
	} else {
		reason := result.Error
		if reason == "" {
			reason = "El motor no pudo procesar el archivo"
		}
		eval.Name = result.Name
		eval.Match = 0
		eval.CVProcesado = false
		eval.CVEstado = reason
	}

	if err := s.store.MySQL.CreateEvaluacion(ctx, eval); err != nil {
		return nil, err
	}
	return eval, nil
}

// applyProfile copies the supplementary profile fields onto a candidate.
func applyProfile(p *models.Postulant, result *engine.EvaluationResult) {
	p.YearsExper = result.YearsExper
	p.LevelEduca = result.LevelEduca
	p.Certif = result.Certif.Join()
	p.DifferentialAdvantages = result.DifferentialAdvantages.Join()
	if langs := marshalLanguages(result.Languages); langs != nil {
		p.Languages = langs
	}
}

// profileUpdates builds the supplementary-field update map for an existing
// candidate. Only fields the engine actually extracted are touched.
func profileUpdates(result *engine.EvaluationResult) map[string]interface{} {
	updates := map[string]interface{}{}
	if result.YearsExper != nil {
		updates["years_exper"] = *result.YearsExper
	}
	if result.LevelEduca != "" {
		updates["level_educa"] = result.LevelEduca
	}
	if len(result.Certif) > 0 {
		updates["certif"] = result.Certif.Join()
	}
	if len(result.DifferentialAdvantages) > 0 {
		updates["differential_advantages"] = result.DifferentialAdvantages.Join()
	}
	if langs := marshalLanguages(result.Languages); langs != nil {
		updates["languages"] = langs
	}
	return updates
}

func marshalLanguages(langs engine.FlexStrings) datatypes.JSON {
	if len(langs) == 0 {
		return nil
	}
	data, err := json.Marshal([]string(langs))
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
