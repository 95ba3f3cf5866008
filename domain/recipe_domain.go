package domain

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	MessageSuccessGetRecipes      = "success get recipes"
	MessageSuccessGetRecipeDetail = "success get recipe detail"
	MessageSuccessCreateRecipe    = "recipe created successfully"
	MessageSuccessUpdateRecipe    = "recipe updated successfully"
	MessageSuccessDeleteRecipe    = "recipe deleted successfully"
	MessageSuccessMarkCooked      = "recipe marked as cooked successfully"

	MessageFailedGetRecipes      = "failed to get recipes"
	MessageFailedGetRecipeDetail = "failed to get recipe detail"
	MessageFailedCreateRecipe    = "failed to create recipe"
	MessageFailedUpdateRecipe    = "failed to update recipe"
	MessageFailedDeleteRecipe    = "failed to delete recipe"
	MessageFailedMarkCooked      = "failed to mark recipe as cooked"

	ErrRecipeNotFound      = errors.New("recipe not found")
	ErrRecipeNameExists    = errors.New("recipe name already exists")
	ErrInvalidInstructions = errors.New("instructions must be a valid JSON document")
	ErrInvalidCoverImage   = errors.New("cover image could not be decoded")
	ErrInvalidImageFormat  = errors.New("invalid image format")
)

type (
	// RecipeIngredientInput is one entry of the ingredients list on
	// create/update: an existing ingredient id plus a free-text quantity.
	RecipeIngredientInput struct {
		ID       uint   `json:"id" validate:"required"`
		Quantity string `json:"quantity" validate:"required,max=50"`
	}

	CreateRecipeRequest struct {
		Name         string                  `json:"name" form:"name" validate:"required,max=50"`
		Description  string                  `json:"description" form:"description" validate:"max=100"`
		Servings     *uint                   `json:"servings" form:"servings"`
		Instructions json.RawMessage         `json:"instructions"`
		Ingredients  []RecipeIngredientInput `json:"ingredients" validate:"dive"`
		Tags         []uint                  `json:"tags"`
	}

	// UpdateRecipeRequest applies partial semantics to scalar fields (nil
	// keeps the stored value). The ingredient and tag sets are always
	// replaced to match the submitted lists exactly; an absent list clears
	// the set.
	UpdateRecipeRequest struct {
		Name         *string                 `json:"name" validate:"omitempty,max=50"`
		Description  *string                 `json:"description" validate:"omitempty,max=100"`
		Servings     *uint                   `json:"servings"`
		Instructions json.RawMessage         `json:"instructions"`
		Ingredients  []RecipeIngredientInput `json:"ingredients" validate:"dive"`
		Tags         []uint                  `json:"tags"`
	}

	RecipeListResponse struct {
		ID          uint   `json:"id"`
		Name        string `json:"name"`
		CoverImage  string `json:"cover_image,omitempty"`
		Description string `json:"description"`
		Tags        []uint `json:"tags"`
	}

	// IngredientInlineResponse renders an ingredient together with the
	// quantity of its pairing with one specific recipe. Quantity is nil if
	// no pairing row carries one.
	IngredientInlineResponse struct {
		ID       uint    `json:"id"`
		Name     string  `json:"name"`
		Quantity *string `json:"quantity"`
	}

	RecipeDetailResponse struct {
		ID           uint                       `json:"id"`
		Name         string                     `json:"name"`
		CoverImage   string                     `json:"cover_image,omitempty"`
		Description  string                     `json:"description"`
		Servings     uint                       `json:"servings"`
		Instructions json.RawMessage            `json:"instructions"`
		Ingredients  []IngredientInlineResponse `json:"ingredients"`
		Tags         []TagResponse              `json:"tags"`
	}

	UpsertRecipeResponse struct {
		ID           uint            `json:"id"`
		Name         string          `json:"name"`
		CoverImage   string          `json:"cover_image,omitempty"`
		Description  string          `json:"description"`
		Servings     uint            `json:"servings"`
		Instructions json.RawMessage `json:"instructions"`
		Tags         []uint          `json:"tags"`
	}

	MarkCookedResponse struct {
		ID           uint      `json:"id"`
		TimesCooked  uint      `json:"times_cooked"`
		LastCookedAt time.Time `json:"last_cooked_at"`
	}
)
