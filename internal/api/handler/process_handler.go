package handler

import (
	"context"
	"strconv"
	"time"

	"recruitflow-go/internal/apperr"
	"recruitflow-go/internal/auth"
	"recruitflow-go/internal/process"
	"recruitflow-go/internal/storage"
	"recruitflow-go/internal/storage/models"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// ProcessHandler serves the charge-process lifecycle.
type ProcessHandler struct {
	store   *storage.Storage
	service *process.Service
}

// NewProcessHandler wires the process endpoints.
func NewProcessHandler(store *storage.Storage, service *process.Service) *ProcessHandler {
	return &ProcessHandler{store: store, service: service}
}

// processView is the serialized process, with the author's username only
// exposed to admins.
type processView struct {
	ID             uint      `json:"id"`
	Code           string    `json:"code"`
	JobID          uint      `json:"job_id"`
	Puesto         string    `json:"puesto,omitempty"`
	Area           string    `json:"area,omitempty"`
	Reque          string    `json:"reque"`
	Functions      string    `json:"functions"`
	Autor          string    `json:"autor,omitempty"`
	State          bool      `json:"state"`
	EndProcess     bool      `json:"end_process"`
	IsProcessing   bool      `json:"is_processing"`
	DriveFolderURL string    `json:"drive_folder_url"`
	FormURL        string    `json:"form_url"`
	CreateDate     time.Time `json:"create_date"`
}

func toProcessView(p *models.ChargeProcess, includeAutor bool) processView {
	view := processView{
		ID:             p.ID,
		Code:           p.Code,
		JobID:          p.JobID,
		Reque:          p.Reque,
		Functions:      p.Functions,
		State:          p.State,
		EndProcess:     p.EndProcess,
		IsProcessing:   p.IsProcessing,
		DriveFolderURL: p.DriveFolderURL,
		FormURL:        p.FormURL,
		CreateDate:     p.CreateDate,
	}
	if p.Job != nil {
		view.Puesto = p.Job.Name
		if p.Job.Area != nil {
			view.Area = p.Job.Area.Name
		}
	}
	if includeAutor && p.User != nil {
		view.Autor = p.User.Username
	}
	return view
}

// Create provisions a new process from form fields.
func (h *ProcessHandler) Create(ctx context.Context, c *app.RequestContext) {
	user, _ := auth.CurrentUser(c)

	jobIDRaw := c.PostForm("job_id")
	jobID, err := strconv.ParseUint(jobIDRaw, 10, 32)
	if err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "job_id inválido"))
		return
	}
	reque := c.PostForm("reque")
	functions := c.PostForm("functions")

	created, err := h.service.Create(ctx, user, uint(jobID), reque, functions)
	if err != nil {
		writeError(c, err)
		return
	}
	created.Job, _ = h.store.MySQL.GetJobPositionByID(ctx, created.JobID)
	c.JSON(consts.StatusCreated, toProcessView(created, user.Role == models.RoleAdmin))
}

// List returns processes visible to the caller, newest first.
func (h *ProcessHandler) List(ctx context.Context, c *app.RequestContext) {
	user, _ := auth.CurrentUser(c)

	jobID, err := optionalUintQuery(c, "job_id")
	if err != nil {
		writeError(c, err)
		return
	}
	state, err := optionalBoolQuery(c, "state")
	if err != nil {
		writeError(c, err)
		return
	}

	var ownerID *uint
	isAdmin := user.Role == models.RoleAdmin
	if !isAdmin {
		ownerID = &user.ID
	}

	processes, err := h.store.MySQL.ListProcesses(ctx, ownerID, jobID, state)
	if err != nil {
		writeError(c, err)
		return
	}

	views := make([]processView, 0, len(processes))
	for i := range processes {
		views = append(views, toProcessView(&processes[i], isAdmin))
	}
	c.JSON(consts.StatusOK, views)
}

// Detail returns one process the caller may see.
func (h *ProcessHandler) Detail(ctx context.Context, c *app.RequestContext) {
	user, _ := auth.CurrentUser(c)
	id, err := uintParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}

	proc, err := h.service.GetAuthorized(ctx, user, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, toProcessView(proc, user.Role == models.RoleAdmin))
}

// Activate reverses a soft delete.
func (h *ProcessHandler) Activate(ctx context.Context, c *app.RequestContext) {
	h.setState(ctx, c, true)
}

// Deactivate soft-deletes a process.
func (h *ProcessHandler) Deactivate(ctx context.Context, c *app.RequestContext) {
	h.setState(ctx, c, false)
}

func (h *ProcessHandler) setState(ctx context.Context, c *app.RequestContext, state bool) {
	user, _ := auth.CurrentUser(c)
	id, err := uintParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}

	proc, err := h.service.GetAuthorized(ctx, user, id)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.store.MySQL.SetProcessState(ctx, proc.ID, state); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"ok": true, "state": state})
}

// Ingest runs one CV ingestion pass over the process folder.
func (h *ProcessHandler) Ingest(ctx context.Context, c *app.RequestContext) {
	user, _ := auth.CurrentUser(c)
	id, err := uintParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}

	summary, err := h.service.Ingest(ctx, user, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, summary)
}

// Evaluations lists the evaluations of one process.
func (h *ProcessHandler) Evaluations(ctx context.Context, c *app.RequestContext) {
	user, _ := auth.CurrentUser(c)
	id, err := uintParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}

	proc, err := h.service.GetAuthorized(ctx, user, id)
	if err != nil {
		writeError(c, err)
		return
	}

	evals, err := h.store.MySQL.ListEvaluationsByProcess(ctx, proc.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, evals)
}

// Finalize forwards qualifying candidates and closes the process.
func (h *ProcessHandler) Finalize(ctx context.Context, c *app.RequestContext) {
	user, _ := auth.CurrentUser(c)
	id, err := uintParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}

	forwarded, err := h.service.Finalize(ctx, user, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"ok": true, "candidatos_enviados": forwarded})
}

// Reactivate reopens a finalized process.
func (h *ProcessHandler) Reactivate(ctx context.Context, c *app.RequestContext) {
	user, _ := auth.CurrentUser(c)
	id, err := uintParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.service.Reactivate(ctx, user, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"ok": true})
}

type blendRequest struct {
	MatchEval *float64 `json:"match_eval"`
}

// UpdateBlend stores a manual evaluator score and the recomputed blended
// total.
func (h *ProcessHandler) UpdateBlend(ctx context.Context, c *app.RequestContext) {
	user, _ := auth.CurrentUser(c)
	evalID, err := uintParam(c, "eval_id")
	if err != nil {
		writeError(c, err)
		return
	}

	var req blendRequest
	if err := c.BindJSON(&req); err != nil || req.MatchEval == nil {
		writeError(c, apperr.New(apperr.KindValidation, "match_eval es obligatorio"))
		return
	}

	eval, err := h.service.RecalcBlend(ctx, user, evalID, *req.MatchEval)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{
		"id":          eval.ID,
		"match":       eval.Match,
		"match_eval":  eval.MatchEval,
		"match_total": eval.MatchTotal,
	})
}
