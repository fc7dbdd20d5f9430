package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"recruitflow-go/internal/apperr"
	"recruitflow-go/internal/auth"
	"recruitflow-go/internal/logger"
	"recruitflow-go/internal/storage"
	"recruitflow-go/internal/storage/models"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// UserHandler serves account administration. Every endpoint here is
// admin-gated in the router.
type UserHandler struct {
	store *storage.Storage
}

// NewUserHandler wires the user administration endpoints.
func NewUserHandler(store *storage.Storage) *UserHandler {
	return &UserHandler{store: store}
}

// userView is the account shape returned to clients; it never carries the
// password hash.
type userView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	State    bool   `json:"state"`
}

func toUserView(u *models.User) userView {
	return userView{ID: u.ID, Username: u.Username, Role: u.Role, State: u.State}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a standard user account.
func (h *UserHandler) Register(ctx context.Context, c *app.RequestContext) {
	var req registerRequest
	if err := c.BindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "Cuerpo de la petición inválido"))
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(c, apperr.New(apperr.KindValidation, "username y password son obligatorios"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         models.RoleUsuario,
		State:        true,
	}
	if err := h.store.MySQL.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicateUsername) {
			writeError(c, apperr.New(apperr.KindValidation, "El nombre de usuario ya existe"))
			return
		}
		writeError(c, err)
		return
	}

	logger.Info().Str("username", user.Username).Msg("user registered")
	c.JSON(consts.StatusCreated, toUserView(user))
}

// List returns every account.
func (h *UserHandler) List(ctx context.Context, c *app.RequestContext) {
	users, err := h.store.MySQL.ListUsers(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]userView, 0, len(users))
	for i := range users {
		views = append(views, toUserView(&users[i]))
	}
	c.JSON(consts.StatusOK, views)
}

type roleRequest struct {
	NewRole string `json:"new_role"`
}

// ChangeRole switches an account between admin and usuario.
func (h *UserHandler) ChangeRole(ctx context.Context, c *app.RequestContext) {
	id, err := uintParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	var req roleRequest
	if err := c.BindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "Cuerpo de la petición inválido"))
		return
	}
	if req.NewRole != models.RoleAdmin && req.NewRole != models.RoleUsuario {
		writeError(c, apperr.New(apperr.KindValidation, "Rol no válido. Se debe usar 'admin' o 'usuario'."))
		return
	}

	user, err := h.store.MySQL.SetUserRole(ctx, id, req.NewRole)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"ok": true, "message": fmt.Sprintf("Rol cambiado a %s", user.Role)})
}

type renameRequest struct {
	NewUsername string `json:"new_username"`
}

// Rename changes a username and logs the change.
func (h *UserHandler) Rename(ctx context.Context, c *app.RequestContext) {
	id, err := uintParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	var req renameRequest
	if err := c.BindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "Cuerpo de la petición inválido"))
		return
	}
	req.NewUsername = strings.TrimSpace(req.NewUsername)
	if req.NewUsername == "" {
		writeError(c, apperr.New(apperr.KindValidation, "new_username es obligatorio"))
		return
	}

	admin, _ := auth.CurrentUser(c)
	user, err := h.store.MySQL.RenameUser(ctx, id, req.NewUsername, admin.Username)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateUsername) {
			writeError(c, apperr.New(apperr.KindValidation, "El nombre de usuario ya existe"))
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"ok": true, "message": fmt.Sprintf("Usuario actualizado a %s", user.Username)})
}

// Enable reactivates an account.
func (h *UserHandler) Enable(ctx context.Context, c *app.RequestContext) {
	id, err := uintParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	user, err := h.store.MySQL.SetUserState(ctx, id, true)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"ok": true, "message": fmt.Sprintf("Usuario %s reactivado", user.Username)})
}

// Disable deactivates an account. Admin accounts cannot be disabled.
func (h *UserHandler) Disable(ctx context.Context, c *app.RequestContext) {
	id, err := uintParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}

	user, err := h.store.MySQL.GetUserByID(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	if user.Role == models.RoleAdmin {
		writeError(c, apperr.New(apperr.KindForbidden, "No puedes deshabilitar a un administrador"))
		return
	}

	if _, err := h.store.MySQL.SetUserState(ctx, id, false); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"ok": true, "message": fmt.Sprintf("Usuario %s desactivado", user.Username)})
}

type passwordRequest struct {
	NuevaPassword string `json:"nueva_password"`
	Confirmacion  string `json:"confirmacion"`
}

// ChangePassword resets an account's password and logs who did it.
func (h *UserHandler) ChangePassword(ctx context.Context, c *app.RequestContext) {
	id, err := uintParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	var req passwordRequest
	if err := c.BindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "Cuerpo de la petición inválido"))
		return
	}
	if req.NuevaPassword == "" || req.NuevaPassword != req.Confirmacion {
		writeError(c, apperr.New(apperr.KindValidation, "Las contraseñas no coinciden"))
		return
	}

	hash, err := auth.HashPassword(req.NuevaPassword)
	if err != nil {
		writeError(c, err)
		return
	}

	admin, _ := auth.CurrentUser(c)
	if err := h.store.MySQL.ChangePassword(ctx, id, hash, admin.Username); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"ok": true, "message": "Contraseña actualizada"})
}

// Audit returns the username and password change history of an account.
func (h *UserHandler) Audit(ctx context.Context, c *app.RequestContext) {
	id, err := uintParam(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	audit, err := h.store.MySQL.GetUserAudit(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{
		"updates":          audit.UsernameChanges,
		"password_changes": audit.PasswordChanges,
	})
}
