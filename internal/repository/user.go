package repository

import (
	"context"

	"myblog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines the interface for user and permission data operations
type UserRepository interface {
	// Create inserts user and grants perms atomically.
	Create(ctx context.Context, user *models.User, perms ...string) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	SetActive(ctx context.Context, id uint, active bool) error
	SetSuperuser(ctx context.Context, id uint, superuser bool) error
	Grant(ctx context.Context, userID uint, perms ...string) error
	Revoke(ctx context.Context, userID uint, perms ...string) error
	Permissions(ctx context.Context, userID uint) ([]string, error)
	HasPermission(ctx context.Context, userID uint, codename string) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User, perms ...string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Permissions").Create(user).Error; err != nil {
			return err
		}
		return grant(tx, user.ID, perms)
	})
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailTaken reports whether any user is registered with email, ignoring case.
func (r *userRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(email) = LOWER(?)", email).
		Count(&n).Error
	return n > 0, err
}

func (r *userRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return r.updateFlag(ctx, id, "is_active", active)
}

func (r *userRepository) SetSuperuser(ctx context.Context, id uint, superuser bool) error {
	return r.updateFlag(ctx, id, "is_superuser", superuser)
}

func (r *userRepository) updateFlag(ctx context.Context, id uint, column string, value bool) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) Grant(ctx context.Context, userID uint, perms ...string) error {
	return grant(r.db.WithContext(ctx), userID, perms)
}

func grant(db *gorm.DB, userID uint, perms []string) error {
	if len(perms) == 0 {
		return nil
	}
	rows := make([]models.UserPermission, 0, len(perms))
	for _, p := range perms {
		rows = append(rows, models.UserPermission{UserID: userID, Codename: p})
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (r *userRepository) Revoke(ctx context.Context, userID uint, perms ...string) error {
	if len(perms) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("user_id = ? AND codename IN ?", userID, perms).
		Delete(&models.UserPermission{}).Error
}

func (r *userRepository) Permissions(ctx context.Context, userID uint) ([]string, error) {
	var perms []string
	err := r.db.WithContext(ctx).Model(&models.UserPermission{}).
		Where("user_id = ?", userID).
		Order("codename").
		Pluck("codename", &perms).Error
	return perms, err
}

// HasPermission is true for superusers and for explicit grants. Inactive
// users hold no permissions.
func (r *userRepository) HasPermission(ctx context.Context, userID uint, codename string) (bool, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if !user.IsActive {
		return false, nil
	}
	if user.IsSuperuser {
		return true, nil
	}

	var n int64
	err = r.db.WithContext(ctx).Model(&models.UserPermission{}).
		Where("user_id = ? AND codename = ?", userID, codename).
		Count(&n).Error
	return n > 0, err
}
