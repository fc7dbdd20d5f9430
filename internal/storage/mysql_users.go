package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recruitflow-go/internal/storage/models"

	"gorm.io/gorm"
)

// ErrDuplicateUsername is returned when a username is already taken.
var ErrDuplicateUsername = errors.New("username already exists")

// GetUserByID fetches one account.
func (m *MySQL) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := m.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername fetches one account by its unique username.
func (m *MySQL) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := m.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a new account, rejecting duplicate usernames up front
// so the caller gets a clean conflict instead of a driver error.
func (m *MySQL) CreateUser(ctx context.Context, user *models.User) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateUsername
		}
		return tx.Create(user).Error
	})
}

// ListUsers returns every account, newest first.
func (m *MySQL) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := m.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// RenameUser changes a username and appends the change to the audit log in
// the same transaction.
func (m *MySQL) RenameUser(ctx context.Context, userID uint, newUsername, changedBy string) (*models.User, error) {
	var user models.User
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.User{}).
			Where("username = ? AND id <> ?", newUsername, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateUsername
		}

		oldUsername := user.Username
		if err := tx.Model(&user).Update("username", newUsername).Error; err != nil {
			return err
		}
		user.Username = newUsername

		entry := models.UserUpdate{
			UserID:      userID,
			UsernameOld: oldUsername,
			UsernameNew: newUsername,
			UpdatedBy:   changedBy,
			DateUpdate:  time.Now(),
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetUserRole updates the role of an account.
func (m *MySQL) SetUserRole(ctx context.Context, userID uint, role string) (*models.User, error) {
	var user models.User
	if err := m.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	if err := m.db.WithContext(ctx).Model(&user).Update("role", role).Error; err != nil {
		return nil, err
	}
	user.Role = role
	return &user, nil
}

// SetUserState enables or disables an account.
func (m *MySQL) SetUserState(ctx context.Context, userID uint, state bool) (*models.User, error) {
	var user models.User
	if err := m.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	if err := m.db.WithContext(ctx).Model(&user).Update("state", state).Error; err != nil {
		return nil, err
	}
	user.State = state
	return &user, nil
}

// ChangePassword stores a new password hash and logs who performed the
// reset, in the same transaction.
func (m *MySQL) ChangePassword(ctx context.Context, userID uint, passwordHash, changedBy string) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		if err := tx.Model(&user).Update("password_hash", passwordHash).Error; err != nil {
			return err
		}
		entry := models.PasswordChangeLog{
			UserID:      userID,
			ChangedBy:   changedBy,
			DateChanged: time.Now(),
		}
		return tx.Create(&entry).Error
	})
}

// UserAudit bundles the change history of one account.
type UserAudit struct {
	UsernameChanges []models.UserUpdate        `json:"cambios_username"`
	PasswordChanges []models.PasswordChangeLog `json:"cambios_password"`
}

// GetUserAudit returns the full change history of an account, newest first.
func (m *MySQL) GetUserAudit(ctx context.Context, userID uint) (*UserAudit, error) {
	var exists int64
	if err := m.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	audit := &UserAudit{}
	if err := m.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date_update DESC").
		Find(&audit.UsernameChanges).Error; err != nil {
		return nil, fmt.Errorf("loading username changes: %w", err)
	}
	if err := m.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date_changed DESC").
		Find(&audit.PasswordChanges).Error; err != nil {
		return nil, fmt.Errorf("loading password changes: %w", err)
	}
	return audit, nil
}
