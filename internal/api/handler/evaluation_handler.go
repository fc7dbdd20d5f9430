package handler

import (
	"context"
	"time"

	"recruitflow-go/internal/apperr"
	"recruitflow-go/internal/auth"
	"recruitflow-go/internal/storage"
	"recruitflow-go/internal/storage/models"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// EvaluationHandler serves the cross-process evaluation report and direct
// match corrections.
type EvaluationHandler struct {
	store *storage.Storage
}

// NewEvaluationHandler wires the evaluation reporting endpoints.
func NewEvaluationHandler(store *storage.Storage) *EvaluationHandler {
	return &EvaluationHandler{store: store}
}

// History runs the filtered, paginated report. Non-admin callers only see
// evaluations of processes they own. Invalid date strings are ignored, as
// the frontend sends partial filters freely.
func (h *EvaluationHandler) History(ctx context.Context, c *app.RequestContext) {
	user, _ := auth.CurrentUser(c)

	filter := storage.EvaluationHistoryFilter{
		Search:  c.Query("search"),
		Proceso: c.Query("proceso"),
		Offset:  intQueryDefault(c, "offset", 0),
		Limit:   intQueryDefault(c, "limit", 20),
	}

	puestoID, err := optionalUintQuery(c, "puesto_id")
	if err != nil {
		writeError(c, err)
		return
	}
	filter.PuestoID = puestoID

	if raw := c.Query("fecha_desde"); raw != "" {
		if t, perr := time.Parse("2006-01-02", raw); perr == nil {
			filter.FechaDesde = &t
		}
	}
	if raw := c.Query("fecha_hasta"); raw != "" {
		if t, perr := time.Parse("2006-01-02", raw); perr == nil {
			filter.FechaHasta = &t
		}
	}

	if filter.MinMatch, err = optionalFloatQuery(c, "min_match"); err != nil {
		writeError(c, err)
		return
	}
	if filter.MaxMatch, err = optionalFloatQuery(c, "max_match"); err != nil {
		writeError(c, err)
		return
	}

	if user.Role != models.RoleAdmin {
		filter.OwnerID = &user.ID
	}

	rows, total, err := h.store.MySQL.EvaluationHistory(ctx, filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{
		"total":      total,
		"resultados": rows,
	})
}

type matchCorrection struct {
	DNI       string   `json:"dni"`
	ProcessID uint     `json:"process_id"`
	Match     *float64 `json:"match"`
}

// CorrectMatch overwrites the engine score of the evaluation identified by
// candidate and process.
func (h *EvaluationHandler) CorrectMatch(ctx context.Context, c *app.RequestContext) {
	var req matchCorrection
	if err := c.BindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "Cuerpo de la petición inválido"))
		return
	}
	if req.DNI == "" || req.ProcessID == 0 || req.Match == nil {
		writeError(c, apperr.New(apperr.KindValidation, "dni, process_id y match son obligatorios"))
		return
	}
	if *req.Match < 0 || *req.Match > 100 {
		writeError(c, apperr.New(apperr.KindValidation, "match debe estar entre 0 y 100"))
		return
	}

	affected, err := h.store.MySQL.UpdateMatchByDNIAndProcess(ctx, req.DNI, req.ProcessID, *req.Match)
	if err != nil {
		writeError(c, err)
		return
	}
	if affected == 0 {
		writeError(c, apperr.New(apperr.KindNotFound, "Evaluación no encontrada para ese postulante y proceso"))
		return
	}
	c.JSON(consts.StatusOK, utils.H{"ok": true, "actualizadas": affected})
}
