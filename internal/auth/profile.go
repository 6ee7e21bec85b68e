package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type Profile struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
	Theme       string `json:"theme"`
}

type ProfileUpdate struct {
	DisplayName *string
	PhotoURL    *string
	Theme       *string
}

func (u *User) Profile() Profile {
	return Profile{
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
		Theme:       u.Theme,
	}
}

func (s *Service) GetProfile(ctx context.Context, userID string) (Profile, error) {
	var user User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Profile{}, ErrUserNotFound
	case err != nil:
		return Profile{}, fmt.Errorf("find user: %w", err)
	}
	return user.Profile(), nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (Profile, error) {
	changes := map[string]any{}

	if update.DisplayName != nil {
		name := strings.TrimSpace(*update.DisplayName)
		if len([]rune(name)) > MaxDisplayNameLen {
			return Profile{}, &ValidationError{Field: "display_name", Reason: "too long"}
		}
		changes["display_name"] = name
	}
	if update.Theme != nil {
		switch *update.Theme {
		case ThemeLight, ThemeDark, ThemeSystem:
			changes["theme"] = *update.Theme
		default:
			return Profile{}, &ValidationError{Field: "theme", Reason: "must be light, dark or system"}
		}
	}
	if update.PhotoURL != nil {
		changes["photo_url"] = *update.PhotoURL
	}

	if len(changes) > 0 {
		res := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Updates(changes)
		if res.Error != nil {
			return Profile{}, fmt.Errorf("update profile: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return Profile{}, ErrUserNotFound
		}
	}
	return s.GetProfile(ctx, userID)
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.UserID != ""
}
