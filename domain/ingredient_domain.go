package domain

import "errors"

var (
	MessageSuccessGetIngredients   = "success get ingredients"
	MessageSuccessGetIngredient    = "success get ingredient"
	MessageSuccessCreateIngredient = "ingredient created successfully"
	MessageSuccessUpdateIngredient = "ingredient updated successfully"
	MessageSuccessDeleteIngredient = "ingredient deleted successfully"

	MessageFailedGetIngredients   = "failed to get ingredients"
	MessageFailedGetIngredient    = "failed to get ingredient"
	MessageFailedCreateIngredient = "failed to create ingredient"
	MessageFailedUpdateIngredient = "failed to update ingredient"
	MessageFailedDeleteIngredient = "failed to delete ingredient"

	ErrIngredientNotFound   = errors.New("ingredient not found")
	ErrIngredientNameExists = errors.New("ingredient name already exists")
)

type (
	IngredientRequest struct {
		Name string `json:"name" validate:"required,max=30"`
	}

	IngredientResponse struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	}
)
