package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"time"

	"gorm.io/gorm"

	"recipe-catalog/domain"
	"recipe-catalog/entities"
	"recipe-catalog/internal/utils/images"
	"recipe-catalog/internal/utils/storage"
	"recipe-catalog/pkg/ingredient"
	"recipe-catalog/pkg/tag"
)

const coverKeyPrefix = "recipe_covers/"

type (
	RecipeService interface {
		GetRecipes(ctx context.Context) ([]domain.RecipeListResponse, error)
		GetRecipeDetail(ctx context.Context, id uint) (domain.RecipeDetailResponse, error)
		CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, cover *multipart.FileHeader) (domain.UpsertRecipeResponse, error)
		UpdateRecipe(ctx context.Context, id uint, req domain.UpdateRecipeRequest, cover *multipart.FileHeader) (domain.UpsertRecipeResponse, error)
		DeleteRecipe(ctx context.Context, id uint) error
		MarkCooked(ctx context.Context, id uint) (domain.MarkCookedResponse, error)
	}

	recipeService struct {
		recipeRepository     RecipeRepository
		ingredientRepository ingredient.IngredientRepository
		tagRepository        tag.TagRepository
		media                storage.MediaStorage
	}
)

func NewRecipeService(
	recipeRepository RecipeRepository,
	ingredientRepository ingredient.IngredientRepository,
	tagRepository tag.TagRepository,
	media storage.MediaStorage,
) RecipeService {
	return &recipeService{
		recipeRepository:     recipeRepository,
		ingredientRepository: ingredientRepository,
		tagRepository:        tagRepository,
		media:                media,
	}
}

func (s *recipeService) GetRecipes(ctx context.Context) ([]domain.RecipeListResponse, error) {
	recipes, err := s.recipeRepository.GetRecipes(ctx)
	if err != nil {
		return nil, err
	}

	recipeIDs := make([]uint, 0, len(recipes))
	for _, recipe := range recipes {
		recipeIDs = append(recipeIDs, recipe.ID)
	}

	tagsByRecipe, err := s.recipeRepository.GetTagIDsByRecipeIDs(ctx, recipeIDs)
	if err != nil {
		return nil, err
	}

	response := make([]domain.RecipeListResponse, 0, len(recipes))
	for _, recipe := range recipes {
		tagIDs := tagsByRecipe[recipe.ID]
		if tagIDs == nil {
			tagIDs = []uint{}
		}
		response = append(response, domain.RecipeListResponse{
			ID:          recipe.ID,
			Name:        recipe.Name,
			CoverImage:  recipe.CoverImage,
			Description: recipe.Description,
			Tags:        tagIDs,
		})
	}
	return response, nil
}

func (s *recipeService) GetRecipeDetail(ctx context.Context, id uint) (domain.RecipeDetailResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeDetailResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeDetailResponse{}, err
	}

	rows, err := s.recipeRepository.GetRecipeIngredients(ctx, recipe.ID)
	if err != nil {
		return domain.RecipeDetailResponse{}, err
	}

	// Quantity is a property of the (recipe, ingredient) pairing, not of the
	// ingredient. Build the quantity map first, then render each distinct
	// ingredient with its quantity looked up from the map.
	quantities := make(map[uint]string, len(rows))
	for _, row := range rows {
		quantities[row.IngredientID] = row.Quantity
	}

	ingredients := make([]domain.IngredientInlineResponse, 0, len(rows))
	seen := make(map[uint]bool, len(rows))
	for _, row := range rows {
		if row.Ingredient == nil || seen[row.Ingredient.ID] {
			continue
		}
		seen[row.Ingredient.ID] = true

		item := domain.IngredientInlineResponse{
			ID:   row.Ingredient.ID,
			Name: row.Ingredient.Name,
		}
		if quantity, ok := quantities[row.Ingredient.ID]; ok {
			item.Quantity = &quantity
		}
		ingredients = append(ingredients, item)
	}

	tags, err := s.recipeRepository.GetRecipeTags(ctx, recipe.ID)
	if err != nil {
		return domain.RecipeDetailResponse{}, err
	}
	tagResponses := make([]domain.TagResponse, 0, len(tags))
	for _, t := range tags {
		tagResponses = append(tagResponses, domain.TagResponse{ID: t.ID, Name: t.Name})
	}

	return domain.RecipeDetailResponse{
		ID:           recipe.ID,
		Name:         recipe.Name,
		CoverImage:   recipe.CoverImage,
		Description:  recipe.Description,
		Servings:     recipe.Servings,
		Instructions: instructionsDocument(recipe.Instructions),
		Ingredients:  ingredients,
		Tags:         tagResponses,
	}, nil
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, cover *multipart.FileHeader) (domain.UpsertRecipeResponse, error) {
	exists, err := s.recipeRepository.ExistsByName(ctx, req.Name)
	if err != nil {
		return domain.UpsertRecipeResponse{}, err
	}
	if exists {
		return domain.UpsertRecipeResponse{}, domain.ErrRecipeNameExists
	}

	instructions, err := normalizeInstructions(req.Instructions)
	if err != nil {
		return domain.UpsertRecipeResponse{}, err
	}

	items, tagIDs, err := s.resolveAssociations(ctx, req.Ingredients, req.Tags)
	if err != nil {
		return domain.UpsertRecipeResponse{}, err
	}

	servings := uint(2)
	if req.Servings != nil {
		servings = *req.Servings
	}

	recipe := &entities.Recipe{
		Name:         req.Name,
		Description:  req.Description,
		Servings:     servings,
		Instructions: instructions,
	}

	if err := s.recipeRepository.CreateRecipe(ctx, recipe, items, tagIDs); err != nil {
		return domain.UpsertRecipeResponse{}, err
	}

	// The record is persisted first so a stable name exists for the derived
	// cover file; a failed cover makes the whole create fail, so the fresh
	// row is removed again.
	if cover != nil {
		if err := s.attachCover(ctx, recipe, cover); err != nil {
			_ = s.recipeRepository.DeleteRecipe(ctx, recipe.ID)
			return domain.UpsertRecipeResponse{}, err
		}
	}

	return upsertResponse(recipe, tagIDs), nil
}

func (s *recipeService) UpdateRecipe(ctx context.Context, id uint, req domain.UpdateRecipeRequest, cover *multipart.FileHeader) (domain.UpsertRecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UpsertRecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.UpsertRecipeResponse{}, err
	}

	if req.Name != nil && *req.Name != recipe.Name {
		exists, err := s.recipeRepository.ExistsByName(ctx, *req.Name)
		if err != nil {
			return domain.UpsertRecipeResponse{}, err
		}
		if exists {
			return domain.UpsertRecipeResponse{}, domain.ErrRecipeNameExists
		}
		recipe.Name = *req.Name
	}
	if req.Description != nil {
		recipe.Description = *req.Description
	}
	if req.Servings != nil {
		recipe.Servings = *req.Servings
	}
	if len(req.Instructions) > 0 {
		instructions, err := normalizeInstructions(req.Instructions)
		if err != nil {
			return domain.UpsertRecipeResponse{}, err
		}
		recipe.Instructions = instructions
	}

	items, tagIDs, err := s.resolveAssociations(ctx, req.Ingredients, req.Tags)
	if err != nil {
		return domain.UpsertRecipeResponse{}, err
	}

	if err := s.recipeRepository.UpdateRecipe(ctx, recipe, items, tagIDs); err != nil {
		return domain.UpsertRecipeResponse{}, err
	}

	if cover != nil {
		if err := s.attachCover(ctx, recipe, cover); err != nil {
			return domain.UpsertRecipeResponse{}, err
		}
	}

	return upsertResponse(recipe, tagIDs), nil
}

func (s *recipeService) DeleteRecipe(ctx context.Context, id uint) error {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	if err := s.recipeRepository.DeleteRecipe(ctx, id); err != nil {
		return err
	}

	if recipe.CoverImage != "" {
		_ = s.media.Delete(ctx, s.media.KeyFromRef(recipe.CoverImage))
	}
	return nil
}

func (s *recipeService) MarkCooked(ctx context.Context, id uint) (domain.MarkCookedResponse, error) {
	recipe, err := s.recipeRepository.MarkCooked(ctx, id, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.MarkCookedResponse{}, domain.ErrRecipeNotFound
		}
		return domain.MarkCookedResponse{}, err
	}

	response := domain.MarkCookedResponse{
		ID:          recipe.ID,
		TimesCooked: recipe.TimesCooked,
	}
	if recipe.LastCookedAt != nil {
		response.LastCookedAt = *recipe.LastCookedAt
	}
	return response, nil
}

// resolveAssociations checks every referenced ingredient and tag before any
// write and deduplicates repeated entries, so the pair-uniqueness invariant
// holds even for sloppy payloads. For a repeated ingredient the last
// submitted quantity wins.
func (s *recipeService) resolveAssociations(ctx context.Context, inputs []domain.RecipeIngredientInput, tagIDs []uint) ([]entities.RecipeIngredient, []uint, error) {
	items := make([]entities.RecipeIngredient, 0, len(inputs))
	seen := make(map[uint]int, len(inputs))
	for _, input := range inputs {
		if index, ok := seen[input.ID]; ok {
			items[index].Quantity = input.Quantity
			continue
		}
		if _, err := s.ingredientRepository.GetIngredientByID(ctx, input.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, domain.ErrIngredientNotFound
			}
			return nil, nil, err
		}
		seen[input.ID] = len(items)
		items = append(items, entities.RecipeIngredient{
			IngredientID: input.ID,
			Quantity:     input.Quantity,
		})
	}

	resolvedTags := make([]uint, 0, len(tagIDs))
	tagSeen := make(map[uint]bool, len(tagIDs))
	for _, tagID := range tagIDs {
		if tagSeen[tagID] {
			continue
		}
		if _, err := s.tagRepository.GetTagByID(ctx, tagID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, domain.ErrTagNotFound
			}
			return nil, nil, err
		}
		tagSeen[tagID] = true
		resolvedTags = append(resolvedTags, tagID)
	}

	return items, resolvedTags, nil
}

// attachCover normalizes the upload, stores the derived file, and persists
// the cover reference as an explicit second write.
func (s *recipeService) attachCover(ctx context.Context, recipe *entities.Recipe, cover *multipart.FileHeader) error {
	if !storage.AllowedImage(cover.Filename) {
		return domain.ErrInvalidImageFormat
	}

	file, err := cover.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := images.Process(file)
	if err != nil {
		return domain.ErrInvalidCoverImage
	}

	key := coverKeyPrefix + images.CoverFileName(recipe.Name)
	ref, err := s.media.Save(ctx, key, data, "image/jpeg")
	if err != nil {
		return err
	}

	if recipe.CoverImage != "" && recipe.CoverImage != ref {
		_ = s.media.Delete(ctx, s.media.KeyFromRef(recipe.CoverImage))
	}

	recipe.CoverImage = ref
	return s.recipeRepository.UpdateCoverImage(ctx, recipe.ID, ref)
}

func normalizeInstructions(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "[]", nil
	}
	if !json.Valid(raw) {
		return "", domain.ErrInvalidInstructions
	}
	return string(raw), nil
}

// instructionsDocument passes the stored document through unmodified.
func instructionsDocument(stored string) json.RawMessage {
	if stored == "" {
		return json.RawMessage("[]")
	}
	return json.RawMessage(stored)
}

func upsertResponse(recipe *entities.Recipe, tagIDs []uint) domain.UpsertRecipeResponse {
	if tagIDs == nil {
		tagIDs = []uint{}
	}
	return domain.UpsertRecipeResponse{
		ID:           recipe.ID,
		Name:         recipe.Name,
		CoverImage:   recipe.CoverImage,
		Description:  recipe.Description,
		Servings:     recipe.Servings,
		Instructions: instructionsDocument(recipe.Instructions),
		Tags:         tagIDs,
	}
}
