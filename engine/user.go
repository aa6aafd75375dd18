package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gavel/models"
)

// CreateUserParams carries a registration. Identity verification happens
// upstream; by the time this is called the caller is a verified fact.
type CreateUserParams struct {
	Name         string
	Email        string
	Address      string
	Phone        string
	Role         models.Role
	ProfileImage []byte
}

// CreateUser registers a marketplace participant with a zeroed balance.
func (e *Engine) CreateUser(ctx context.Context, params CreateUserParams) (models.User, error) {
	const op = "CreateUser"
	switch params.Role {
	case models.RoleAuctioneer, models.RoleBidder, models.RoleSuperAdmin:
	default:
		return models.User{}, fmt.Errorf("%w: %q", ErrInvalidRole, params.Role)
	}
	if params.Name == "" {
		return models.User{}, fmt.Errorf("%w: name is required", ErrInvalidRole)
	}

	var stored StoredImage
	if len(params.ProfileImage) > 0 {
		uploaded, err := e.images.Upload(ctx, params.ProfileImage, FolderProfilePhotos)
		if err != nil {
			return models.User{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		stored = uploaded
	}
	user := models.User{
		Name:                 params.Name,
		Email:                params.Email,
		Address:              params.Address,
		Phone:                params.Phone,
		Role:                 params.Role,
		ProfileImagePublicID: stored.PublicID,
		ProfileImageURL:      stored.URL,
	}
	if result := e.db.WithContext(ctx).Create(&user); result.Error != nil {
		return models.User{}, fmt.Errorf("[%s] fail to create user, err=%w", op, result.Error)
	}
	return user, nil
}

// GetUser returns one user by ID.
func (e *Engine) GetUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	const op = "GetUser"
	var user models.User
	if result := e.db.WithContext(ctx).First(&user, "id = ?", userID); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("[%s] fail to find user, err=%w", op, result.Error)
	}
	return user, nil
}
