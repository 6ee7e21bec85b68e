package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"taskit/internal/auth"
	"taskit/internal/blob"
	"taskit/internal/logger"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

type ProfileService struct {
	profiles ProfileStore
	avatars  AvatarStore
}

func NewProfileService(profiles ProfileStore, avatars AvatarStore) *ProfileService {
	return &ProfileService{profiles: profiles, avatars: avatars}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (auth.Profile, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return auth.Profile{}, profileError(userID, err)
	}
	return p, nil
}

func (s *ProfileService) Update(ctx context.Context, userID string, update auth.ProfileUpdate) (auth.Profile, error) {
	p, err := s.profiles.UpdateProfile(ctx, userID, update)
	if err != nil {
		return auth.Profile{}, profileError(userID, err)
	}
	return p, nil
}

// UploadAvatar stores the image at profile-pictures/{userID} and points the
// profile at it.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID string, r io.Reader) (auth.Profile, error) {
	obj, err := s.avatars.PutImage(ctx, blob.AvatarKey(userID), r)
	switch {
	case errors.Is(err, blob.ErrTooLarge):
		return auth.Profile{}, NewBusinessError(CodePayloadTooLarge, "image must be "+humanize.Bytes(uint64(s.avatars.MaxBytes()))+" or smaller")
	case errors.Is(err, blob.ErrUnsupportedType):
		return auth.Profile{}, NewBusinessError(CodeUnsupportedMedia, "only image uploads are accepted")
	case err != nil:
		return auth.Profile{}, fmt.Errorf("store avatar: %w", err)
	}

	logger.Info("Service: avatar uploaded", zap.String("user_id", userID), zap.Int64("size", obj.Size))
	url := obj.URL
	return s.Update(ctx, userID, auth.ProfileUpdate{PhotoURL: &url})
}

func profileError(userID string, err error) error {
	var verr *auth.ValidationError
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		return NewNotFound(ResourceProfile, userID)
	case errors.As(err, &verr):
		return NewValidationError(verr.Field, verr.Reason)
	default:
		return fmt.Errorf("profile: %w", err)
	}
}
