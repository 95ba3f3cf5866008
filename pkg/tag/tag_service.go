package tag

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"recipe-catalog/domain"
	"recipe-catalog/entities"
)

type (
	TagService interface {
		GetTags(ctx context.Context) ([]domain.TagResponse, error)
		GetTag(ctx context.Context, id uint) (domain.TagResponse, error)
		CreateTag(ctx context.Context, req domain.TagRequest) (domain.TagResponse, error)
		UpdateTag(ctx context.Context, id uint, req domain.TagRequest) (domain.TagResponse, error)
		DeleteTag(ctx context.Context, id uint) error
	}

	tagService struct {
		tagRepository TagRepository
	}
)

func NewTagService(tagRepository TagRepository) TagService {
	return &tagService{tagRepository: tagRepository}
}

func (s *tagService) GetTags(ctx context.Context) ([]domain.TagResponse, error) {
	tags, err := s.tagRepository.GetTags(ctx)
	if err != nil {
		return nil, err
	}

	response := make([]domain.TagResponse, 0, len(tags))
	for _, tag := range tags {
		response = append(response, domain.TagResponse{ID: tag.ID, Name: tag.Name})
	}
	return response, nil
}

func (s *tagService) GetTag(ctx context.Context, id uint) (domain.TagResponse, error) {
	tag, err := s.tagRepository.GetTagByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.TagResponse{}, domain.ErrTagNotFound
		}
		return domain.TagResponse{}, err
	}
	return domain.TagResponse{ID: tag.ID, Name: tag.Name}, nil
}

func (s *tagService) CreateTag(ctx context.Context, req domain.TagRequest) (domain.TagResponse, error) {
	exists, err := s.tagRepository.ExistsByName(ctx, req.Name)
	if err != nil {
		return domain.TagResponse{}, err
	}
	if exists {
		return domain.TagResponse{}, domain.ErrTagNameExists
	}

	tag := &entities.Tag{Name: req.Name}
	if err := s.tagRepository.CreateTag(ctx, tag); err != nil {
		return domain.TagResponse{}, err
	}
	return domain.TagResponse{ID: tag.ID, Name: tag.Name}, nil
}

func (s *tagService) UpdateTag(ctx context.Context, id uint, req domain.TagRequest) (domain.TagResponse, error) {
	tag, err := s.tagRepository.GetTagByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.TagResponse{}, domain.ErrTagNotFound
		}
		return domain.TagResponse{}, err
	}

	if req.Name != tag.Name {
		exists, err := s.tagRepository.ExistsByName(ctx, req.Name)
		if err != nil {
			return domain.TagResponse{}, err
		}
		if exists {
			return domain.TagResponse{}, domain.ErrTagNameExists
		}
	}

	tag.Name = req.Name
	if err := s.tagRepository.UpdateTag(ctx, tag); err != nil {
		return domain.TagResponse{}, err
	}
	return domain.TagResponse{ID: tag.ID, Name: tag.Name}, nil
}

func (s *tagService) DeleteTag(ctx context.Context, id uint) error {
	if _, err := s.tagRepository.GetTagByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrTagNotFound
		}
		return err
	}
	return s.tagRepository.DeleteTag(ctx, id)
}
