package service

import (
	"context"

	"conduit/internal/repository"
)

type TagService struct {
	tags repository.Tags
}

func NewTagService(tags repository.Tags) *TagService {
	return &TagService{tags: tags}
}

func (s *TagService) List(ctx context.Context) ([]string, error) {
	return s.tags.List(ctx)
}
