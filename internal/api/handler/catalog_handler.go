package handler

import (
	"context"
	"errors"
	"strings"

	"recruitflow-go/internal/apperr"
	"recruitflow-go/internal/storage"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"gorm.io/gorm"
)

// CatalogHandler serves the Area and JobPosition reference data.
type CatalogHandler struct {
	store *storage.Storage
}

// NewCatalogHandler wires the catalog endpoints.
func NewCatalogHandler(store *storage.Storage) *CatalogHandler {
	return &CatalogHandler{store: store}
}

type nameRequest struct {
	Name string `json:"name"`
}

// CreateArea adds an area. The name must be non-blank and unique among
// active areas.
func (h *CatalogHandler) CreateArea(ctx context.Context, c *app.RequestContext) {
	var req nameRequest
	if err := c.BindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "Cuerpo de la petición inválido"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(c, apperr.New(apperr.KindValidation, "El nombre del área es obligatorio"))
		return
	}

	area, err := h.store.MySQL.CreateArea(ctx, req.Name)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateName) {
			writeError(c, apperr.New(apperr.KindValidation, "Ya existe un área activa con ese nombre"))
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusCreated, area)
}

// ListActiveAreas returns only active areas.
func (h *CatalogHandler) ListActiveAreas(ctx context.Context, c *app.RequestContext) {
	active := true
	areas, err := h.store.MySQL.ListAreas(ctx, &active)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, areas)
}

// ListAllAreas returns every area regardless of state.
func (h *CatalogHandler) ListAllAreas(ctx context.Context, c *app.RequestContext) {
	areas, err := h.store.MySQL.ListAreas(ctx, nil)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, areas)
}

// GetArea returns one area.
func (h *CatalogHandler) GetArea(ctx context.Context, c *app.RequestContext) {
	id, err := uintParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	area, err := h.store.MySQL.GetAreaByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(c, apperr.New(apperr.KindNotFound, "Área no encontrada"))
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, area)
}

// UpdateArea replaces an area's name.
func (h *CatalogHandler) UpdateArea(ctx context.Context, c *app.RequestContext) {
	id, err := uintParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	var req nameRequest
	if err := c.BindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "Cuerpo de la petición inválido"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(c, apperr.New(apperr.KindValidation, "El nombre del área es obligatorio"))
		return
	}

	area, err := h.store.MySQL.RenameArea(ctx, id, req.Name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(c, apperr.New(apperr.KindNotFound, "Área no encontrada"))
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, area)
}

// ToggleAreaState flips an area between active and inactive.
func (h *CatalogHandler) ToggleAreaState(ctx context.Context, c *app.RequestContext) {
	id, err := uintParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	area, err := h.store.MySQL.ToggleAreaState(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(c, apperr.New(apperr.KindNotFound, "Área no encontrada"))
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, area)
}

type jobRequest struct {
	Name   string `json:"name"`
	AreaID uint   `json:"area_id"`
}

// CreateJob adds a job position under an existing area.
func (h *CatalogHandler) CreateJob(ctx context.Context, c *app.RequestContext) {
	var req jobRequest
	if err := c.BindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "Cuerpo de la petición inválido"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(c, apperr.New(apperr.KindValidation, "El nombre del puesto es obligatorio"))
		return
	}

	job, err := h.store.MySQL.CreateJobPosition(ctx, req.Name, req.AreaID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(c, apperr.New(apperr.KindNotFound, "Área no encontrada"))
		return
	}
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateName) {
			writeError(c, apperr.New(apperr.KindValidation, "Ya existe un puesto activo con ese nombre"))
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusCreated, job)
}

// ListActiveJobs returns active positions, optionally filtered by area.
func (h *CatalogHandler) ListActiveJobs(ctx context.Context, c *app.RequestContext) {
	areaID, err := optionalUintQuery(c, "area_id")
	if err != nil {
		writeError(c, err)
		return
	}
	active := true
	jobs, err := h.store.MySQL.ListJobPositions(ctx, areaID, &active)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, jobs)
}

// ListAllJobs returns every position regardless of state.
func (h *CatalogHandler) ListAllJobs(ctx context.Context, c *app.RequestContext) {
	jobs, err := h.store.MySQL.ListJobPositions(ctx, nil, nil)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, jobs)
}

// GetJob returns one position.
func (h *CatalogHandler) GetJob(ctx context.Context, c *app.RequestContext) {
	id, err := uintParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	job, err := h.store.MySQL.GetJobPositionByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(c, apperr.New(apperr.KindNotFound, "Puesto no encontrado"))
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, job)
}

// UpdateJob renames a position and optionally moves it to another area.
func (h *CatalogHandler) UpdateJob(ctx context.Context, c *app.RequestContext) {
	id, err := uintParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	var req struct {
		Name   string `json:"name"`
		AreaID *uint  `json:"area_id"`
	}
	if err := c.BindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "Cuerpo de la petición inválido"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(c, apperr.New(apperr.KindValidation, "El nombre del puesto es obligatorio"))
		return
	}

	job, err := h.store.MySQL.UpdateJobPosition(ctx, id, req.Name, req.AreaID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(c, apperr.New(apperr.KindNotFound, "Puesto no encontrado"))
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, job)
}

// EnableJob reactivates a position.
func (h *CatalogHandler) EnableJob(ctx context.Context, c *app.RequestContext) {
	h.setJobState(ctx, c, true)
}

// DisableJob deactivates a position.
func (h *CatalogHandler) DisableJob(ctx context.Context, c *app.RequestContext) {
	h.setJobState(ctx, c, false)
}

func (h *CatalogHandler) setJobState(ctx context.Context, c *app.RequestContext, state bool) {
	id, err := uintParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	job, err := h.store.MySQL.SetJobPositionState(ctx, id, state)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(c, apperr.New(apperr.KindNotFound, "Puesto no encontrado"))
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, job)
}
