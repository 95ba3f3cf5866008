package ingredient

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"recipe-catalog/domain"
	"recipe-catalog/entities"
)

type (
	IngredientService interface {
		GetIngredients(ctx context.Context) ([]domain.IngredientResponse, error)
		GetIngredient(ctx context.Context, id uint) (domain.IngredientResponse, error)
		CreateIngredient(ctx context.Context, req domain.IngredientRequest) (domain.IngredientResponse, error)
		UpdateIngredient(ctx context.Context, id uint, req domain.IngredientRequest) (domain.IngredientResponse, error)
		DeleteIngredient(ctx context.Context, id uint) error
	}

	ingredientService struct {
		ingredientRepository IngredientRepository
	}
)

func NewIngredientService(ingredientRepository IngredientRepository) IngredientService {
	return &ingredientService{ingredientRepository: ingredientRepository}
}

func (s *ingredientService) GetIngredients(ctx context.Context) ([]domain.IngredientResponse, error) {
	ingredients, err := s.ingredientRepository.GetIngredients(ctx)
	if err != nil {
		return nil, err
	}

	response := make([]domain.IngredientResponse, 0, len(ingredients))
	for _, ingredient := range ingredients {
		response = append(response, domain.IngredientResponse{
			ID:   ingredient.ID,
			Name: ingredient.Name,
		})
	}
	return response, nil
}

func (s *ingredientService) GetIngredient(ctx context.Context, id uint) (domain.IngredientResponse, error) {
	ingredient, err := s.ingredientRepository.GetIngredientByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.IngredientResponse{}, domain.ErrIngredientNotFound
		}
		return domain.IngredientResponse{}, err
	}

	return domain.IngredientResponse{ID: ingredient.ID, Name: ingredient.Name}, nil
}

func (s *ingredientService) CreateIngredient(ctx context.Context, req domain.IngredientRequest) (domain.IngredientResponse, error) {
	exists, err := s.ingredientRepository.ExistsByName(ctx, req.Name)
	if err != nil {
		return domain.IngredientResponse{}, err
	}
	if exists {
		return domain.IngredientResponse{}, domain.ErrIngredientNameExists
	}

	ingredient := &entities.Ingredient{Name: req.Name}
	if err := s.ingredientRepository.CreateIngredient(ctx, ingredient); err != nil {
		return domain.IngredientResponse{}, err
	}

	return domain.IngredientResponse{ID: ingredient.ID, Name: ingredient.Name}, nil
}

func (s *ingredientService) UpdateIngredient(ctx context.Context, id uint, req domain.IngredientRequest) (domain.IngredientResponse, error) {
	ingredient, err := s.ingredientRepository.GetIngredientByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.IngredientResponse{}, domain.ErrIngredientNotFound
		}
		return domain.IngredientResponse{}, err
	}

	if req.Name != ingredient.Name {
		exists, err := s.ingredientRepository.ExistsByName(ctx, req.Name)
		if err != nil {
			return domain.IngredientResponse{}, err
		}
		if exists {
			return domain.IngredientResponse{}, domain.ErrIngredientNameExists
		}
	}

	ingredient.Name = req.Name
	if err := s.ingredientRepository.UpdateIngredient(ctx, ingredient); err != nil {
		return domain.IngredientResponse{}, err
	}

	return domain.IngredientResponse{ID: ingredient.ID, Name: ingredient.Name}, nil
}

func (s *ingredientService) DeleteIngredient(ctx context.Context, id uint) error {
	if _, err := s.ingredientRepository.GetIngredientByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrIngredientNotFound
		}
		return err
	}
	return s.ingredientRepository.DeleteIngredient(ctx, id)
}
