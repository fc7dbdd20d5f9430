package handler

import (
	"context"
	"errors"

	"recruitflow-go/internal/apperr"
	"recruitflow-go/internal/storage"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"gorm.io/gorm"
)

// PostulantHandler serves the candidate registry.
type PostulantHandler struct {
	store *storage.Storage
}

// NewPostulantHandler wires the candidate endpoints.
func NewPostulantHandler(store *storage.Storage) *PostulantHandler {
	return &PostulantHandler{store: store}
}

// List searches candidates by name, document number or email substring.
func (h *PostulantHandler) List(ctx context.Context, c *app.RequestContext) {
	search := c.Query("search")
	offset := intQueryDefault(c, "offset", 0)
	limit := intQueryDefault(c, "limit", 20)

	postulants, total, err := h.store.MySQL.SearchPostulants(ctx, search, offset, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{
		"total":      total,
		"resultados": postulants,
	})
}

// History returns one candidate's evaluations across all processes.
func (h *PostulantHandler) History(ctx context.Context, c *app.RequestContext) {
	dni := c.Param("dni")
	if dni == "" {
		writeError(c, apperr.New(apperr.KindValidation, "dni es obligatorio"))
		return
	}

	if _, err := h.store.MySQL.GetPostulantByDNI(ctx, dni); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(c, apperr.New(apperr.KindNotFound, "Postulante no encontrado"))
			return
		}
		writeError(c, err)
		return
	}

	evals, err := h.store.MySQL.ListEvaluationsByPostulant(ctx, dni)
	if err != nil {
		writeError(c, err)
		return
	}

	type historyEntry struct {
		ID         uint     `json:"id"`
		Match      float64  `json:"match"`
		MatchEval  *float64 `json:"match_eval"`
		MatchTotal *float64 `json:"match_total"`
		Summary    string   `json:"summary"`
		Reason     string   `json:"reason"`
		Skills     string   `json:"skills"`
		Proceso    string   `json:"proceso"`
		Puesto     string   `json:"puesto"`
		Fecha      string   `json:"fecha"`
	}
	entries := make([]historyEntry, 0, len(evals))
	for _, e := range evals {
		entry := historyEntry{
			ID:         e.ID,
			Match:      e.Match,
			MatchEval:  e.MatchEval,
			MatchTotal: e.MatchTotal,
			Summary:    e.Summary,
			Reason:     e.Reason,
			Skills:     e.Skills,
			Fecha:      e.DateCreate.Format("2006-01-02 15:04:05"),
		}
		if e.Process != nil {
			entry.Proceso = e.Process.Code
			if e.Process.Job != nil {
				entry.Puesto = e.Process.Job.Name
			}
		}
		entries = append(entries, entry)
	}
	c.JSON(consts.StatusOK, entries)
}
