package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"recruitflow-go/internal/apperr"
	"recruitflow-go/internal/config"
	"recruitflow-go/internal/constants"
	"recruitflow-go/internal/engine"
	"recruitflow-go/internal/logger"
	"recruitflow-go/internal/storage"
	"recruitflow-go/internal/storage/models"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"gorm.io/gorm"
)

// FormHandler serves the public intake form. These endpoints are the only
// unauthenticated surface besides login and health.
type FormHandler struct {
	store  *storage.Storage
	engine *engine.Client
	cfg    *config.Config
}

// NewFormHandler wires the public intake endpoints.
func NewFormHandler(store *storage.Storage, engineClient *engine.Client, cfg *config.Config) *FormHandler {
	return &FormHandler{store: store, engine: engineClient, cfg: cfg}
}

// Apply receives one application: candidate data plus a CV file. The CV is
// archived, forwarded to the engine for storage in the process folder, and
// the postulation tracks the upload outcome.
func (h *FormHandler) Apply(ctx context.Context, c *app.RequestContext) {
	name := strings.TrimSpace(c.PostForm("name"))
	dni := strings.TrimSpace(c.PostForm("dni"))
	telf := strings.TrimSpace(c.PostForm("telf"))
	email := strings.TrimSpace(c.PostForm("email"))
	address := strings.TrimSpace(c.PostForm("address"))
	processCode := strings.TrimSpace(c.PostForm("process_code"))
	formToken := c.PostForm("form_token")

	if name == "" || dni == "" || email == "" || processCode == "" {
		writeError(c, apperr.New(apperr.KindValidation, "name, dni, email y process_code son obligatorios"))
		return
	}

	fileHeader, err := c.FormFile("cv")
	if err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "Archivo CV no encontrado"))
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if _, ok := constants.AllowedCVContentTypes[contentType]; !ok {
		writeError(c, apperr.New(apperr.KindValidation, "Formato CV no permitido"))
		return
	}
	maxBytes := h.cfg.Form.MaxUploadBytes
	if maxBytes == 0 {
		maxBytes = constants.MaxCVUploadBytes
	}
	if fileHeader.Size > maxBytes {
		writeError(c, apperr.New(apperr.KindValidation, "CV excede tamaño máximo"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	contents, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		writeError(c, err)
		return
	}
	if int64(len(contents)) > maxBytes {
		writeError(c, apperr.New(apperr.KindValidation, "CV excede tamaño máximo"))
		return
	}

	proc, err := h.resolveProcess(ctx, processCode)
	if err != nil {
		writeError(c, err)
		return
	}
	if proc.FormToken != "" && proc.FormToken != formToken {
		writeError(c, apperr.New(apperr.KindForbidden, "Token de formulario inválido o faltante"))
		return
	}

	if err := h.upsertPostulant(ctx, dni, name, email, telf, address); err != nil {
		writeError(c, err)
		return
	}

	postulation, err := h.store.MySQL.FindOrCreatePostulation(ctx, dni, proc.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	// Archival copy; losing it does not block the application.
	if h.store.MinIO != nil {
		if _, aerr := h.store.MinIO.UploadCV(ctx, proc.Code, dni, fileHeader.Filename,
			bytes.NewReader(contents), int64(len(contents)), contentType); aerr != nil {
			logger.Warn().Err(aerr).Str("process", proc.Code).Str("dni", dni).Msg("CV archival failed")
		}
	}

	upload, err := h.engine.UploadCV(ctx, proc.DriveFolderID, proc.Code, dni, postulation.ID,
		fileHeader.Filename, contentType, contents)
	if err != nil {
		if serr := h.store.MySQL.SetPostulationStatus(ctx, postulation.ID, models.PostulationErrorUpload); serr != nil {
			logger.Error().Err(serr).Uint("postulation_id", postulation.ID).Msg("failed to mark postulation ErrorUpload")
		}
		writeError(c, err)
		return
	}

	updates := map[string]interface{}{}
	if upload.FileURL != "" {
		updates["cv_url"] = upload.FileURL
	}
	if upload.FileID != "" {
		updates["cv_drive_file_id"] = upload.FileID
	}
	if err := h.store.MySQL.UpdatePostulantFields(ctx, dni, updates); err != nil {
		writeError(c, err)
		return
	}
	if err := h.store.MySQL.SetPostulationStatus(ctx, postulation.ID, models.PostulationReceived); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(consts.StatusOK, utils.H{
		"detail":         "Postulación registrada",
		"postulant_dni":  dni,
		"postulation_id": postulation.ID,
		"file_url":       upload.FileURL,
	})
}

// Info returns the public process data for a form link, requiring the
// token to match. A mismatch looks identical to a missing form.
func (h *FormHandler) Info(ctx context.Context, c *app.RequestContext) {
	processCode := c.Param("process_code")
	token := c.Param("token")

	proc, err := h.resolveProcess(ctx, processCode)
	if err != nil || proc.FormToken != token {
		writeError(c, apperr.New(apperr.KindNotFound, "Formulario no encontrado o token inválido"))
		return
	}

	puesto := ""
	if proc.Job != nil {
		puesto = proc.Job.Name
	}
	c.JSON(consts.StatusOK, utils.H{
		"process_code":    proc.Code,
		"process_id":      proc.ID,
		"process_name":    puesto,
		"puesto":          puesto,
		"drive_folder_id": proc.DriveFolderID,
		"form_url":        proc.FormURL,
	})
}

// resolveProcess finds a process by code, falling back to a numeric ID for
// older form links.
func (h *FormHandler) resolveProcess(ctx context.Context, code string) (*models.ChargeProcess, error) {
	proc, err := h.store.MySQL.GetProcessByCode(ctx, code)
	if err == nil {
		return proc, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if id, perr := strconv.ParseUint(code, 10, 32); perr == nil {
		proc, err = h.store.MySQL.GetProcessByID(ctx, uint(id))
		if err == nil {
			return proc, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "Proceso no encontrado")
}

// upsertPostulant creates the candidate or refreshes only the provided
// fields that actually changed.
func (h *FormHandler) upsertPostulant(ctx context.Context, dni, name, email, telf, address string) error {
	existing, err := h.store.MySQL.GetPostulantByDNI(ctx, dni)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return h.store.MySQL.CreatePostulant(ctx, &models.Postulant{
			DNI:     dni,
			Name:    name,
			Email:   email,
			Telf:    telf,
			Address: address,
		})
	}
	if err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if name != "" && existing.Name != name {
		updates["name"] = name
	}
	if email != "" && existing.Email != email {
		updates["email"] = email
	}
	if telf != "" && existing.Telf != telf {
		updates["telf"] = telf
	}
	if address != "" && existing.Address != address {
		updates["address"] = address
	}
	return h.store.MySQL.UpdatePostulantFields(ctx, dni, updates)
}
