package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"research-review-portal/models"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmails(ctx context.Context, emails []string) ([]models.User, error)
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
	// Upsert inserts user, or updates the profile fields of an existing row with the same id.
	Upsert(ctx context.Context, user *models.User) error
	// EnsureExists inserts user only when no row with its id exists.
	EnsureExists(ctx context.Context, user *models.User) error
	UpdateRole(ctx context.Context, id string, role models.UserRole) error
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := conn(ctx, r.db).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("user", id)
	}
	if err != nil {
		return nil, models.NewDependencyError("get user", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmails(ctx context.Context, emails []string) ([]models.User, error) {
	var users []models.User
	if len(emails) == 0 {
		return users, nil
	}
	if err := conn(ctx, r.db).Where("email IN ?", emails).Find(&users).Error; err != nil {
		return nil, models.NewDependencyError("get users by email", err)
	}
	return users, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	var users []models.User
	err := conn(ctx, r.db).Where("role = ?", string(role)).
		Order("last_name asc, first_name asc").
		Find(&users).Error
	if err != nil {
		return nil, models.NewDependencyError("list users", err)
	}
	return users, nil
}

func (r *userRepository) Upsert(ctx context.Context, user *models.User) error {
	err := conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "email", "updated_at"}),
	}).Create(user).Error
	if err != nil {
		return storeError("upsert user", err)
	}
	return nil
}

func (r *userRepository) EnsureExists(ctx context.Context, user *models.User) error {
	err := conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(user).Error
	if err != nil {
		return storeError("create user", err)
	}
	return nil
}

func (r *userRepository) UpdateRole(ctx context.Context, id string, role models.UserRole) error {
	result := conn(ctx, r.db).Model(&models.User{}).Where("id = ?", id).Update("role", string(role))
	if result.Error != nil {
		return models.NewDependencyError("update role", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("user", id)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	result := conn(ctx, r.db).Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		return storeError("delete user", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("user", id)
	}
	return nil
}
