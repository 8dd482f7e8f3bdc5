package repositories

import (
	"context"
	"time"

	"emandate/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// UpsertByEmail creates the user, or merges the non-empty fields of user
	// into the existing row with the same email. UserID is kept on merge.
	UpsertByEmail(ctx context.Context, user *models.User) (*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByUserID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error; err != nil {
		return nil, notFound(err, "user %q not found", userID)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err, "user with email %q not found", email)
	}
	return &user, nil
}

func (r *userRepository) UpsertByEmail(ctx context.Context, user *models.User) (*models.User, error) {
	updates := map[string]interface{}{"updated_at": time.Now()}
	if user.Name != "" {
		updates["name"] = user.Name
	}
	if user.Mobile != "" {
		updates["mobile"] = user.Mobile
	}
	if user.PAN != "" {
		updates["pan"] = user.PAN
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(user).Error
	if err != nil {
		return nil, err
	}
	return r.GetByEmail(ctx, user.Email)
}
