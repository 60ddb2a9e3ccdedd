package service

import (
	"context"

	"conduit/internal/apperr"
	"conduit/internal/models"
	"conduit/internal/repository"
)

const reasonProfileNotFound = "profile not found"

type ProfileService struct {
	users   repository.Users
	follows repository.Follows
}

func NewProfileService(users repository.Users, follows repository.Follows) *ProfileService {
	return &ProfileService{users: users, follows: follows}
}

func (s *ProfileService) Get(ctx context.Context, viewer *models.LoggedInUser, username string) (*models.Profile, error) {
	u, err := s.find(ctx, username)
	if err != nil {
		return nil, err
	}
	following, err := s.follows.IsFollowing(ctx, viewerID(viewer), u.ID)
	if err != nil {
		return nil, err
	}
	return profileOf(u, following), nil
}

func (s *ProfileService) Follow(ctx context.Context, viewer *models.LoggedInUser, username string) (*models.Profile, error) {
	u, err := s.find(ctx, username)
	if err != nil {
		return nil, err
	}
	if u.ID == viewer.ID {
		return nil, apperr.InvalidInput("cannot follow yourself")
	}
	if err := s.follows.Follow(ctx, viewer.ID, u.ID); err != nil {
		return nil, err
	}
	return profileOf(u, true), nil
}

func (s *ProfileService) Unfollow(ctx context.Context, viewer *models.LoggedInUser, username string) (*models.Profile, error) {
	u, err := s.find(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.follows.Unfollow(ctx, viewer.ID, u.ID); err != nil {
		return nil, err
	}
	return profileOf(u, false), nil
}

func (s *ProfileService) find(ctx context.Context, username string) (*models.User, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound(reasonProfileNotFound)
	}
	return u, nil
}

func profileOf(u *models.User, following bool) *models.Profile {
	return &models.Profile{
		Username:  u.Username,
		Bio:       u.Bio,
		Image:     u.Image,
		Following: following,
	}
}
