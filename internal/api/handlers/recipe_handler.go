package handlers

import (
	"encoding/json"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"recipe-catalog/domain"
	"recipe-catalog/internal/api/presenters"
	"recipe-catalog/pkg/recipe"
)

type (
	RecipeHandler interface {
		GetRecipes(c *fiber.Ctx) error
		GetRecipeDetail(c *fiber.Ctx) error
		CreateRecipe(c *fiber.Ctx) error
		UpdateRecipe(c *fiber.Ctx) error
		DeleteRecipe(c *fiber.Ctx) error
		MarkCooked(c *fiber.Ctx) error
	}

	recipeHandler struct {
		recipeService recipe.RecipeService
		validator     *validator.Validate
	}
)

func NewRecipeHandler(recipeService recipe.RecipeService, validator *validator.Validate) RecipeHandler {
	return &recipeHandler{
		recipeService: recipeService,
		validator:     validator,
	}
}

func (h *recipeHandler) GetRecipes(c *fiber.Ctx) error {
	res, err := h.recipeService.GetRecipes(c.Context())
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedGetRecipes, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetRecipes)
}

func (h *recipeHandler) GetRecipeDetail(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedGetRecipeDetail, err)
	}

	res, err := h.recipeService.GetRecipeDetail(c.Context(), id)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedGetRecipeDetail, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetRecipeDetail)
}

func (h *recipeHandler) CreateRecipe(c *fiber.Ctx) error {
	req, cover, err := parseCreateRequest(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateRecipe, err)
	}

	res, err := h.recipeService.CreateRecipe(c.Context(), *req, cover)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedCreateRecipe, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCreateRecipe)
}

func (h *recipeHandler) UpdateRecipe(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedUpdateRecipe, err)
	}

	req, cover, err := parseUpdateRequest(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateRecipe, err)
	}

	res, err := h.recipeService.UpdateRecipe(c.Context(), id, *req, cover)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedUpdateRecipe, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateRecipe)
}

func (h *recipeHandler) DeleteRecipe(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedDeleteRecipe, err)
	}

	if err := h.recipeService.DeleteRecipe(c.Context(), id); err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedDeleteRecipe, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *recipeHandler) MarkCooked(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedMarkCooked, err)
	}

	res, err := h.recipeService.MarkCooked(c.Context(), id)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedMarkCooked, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessMarkCooked)
}

// parseCreateRequest accepts either a plain JSON body or a multipart form
// carrying an optional cover_image file next to JSON-encoded ingredients,
// tags, and instructions fields.
func parseCreateRequest(c *fiber.Ctx) (*domain.CreateRecipeRequest, *multipart.FileHeader, error) {
	req := new(domain.CreateRecipeRequest)

	if !isMultipart(c) {
		if err := c.BodyParser(req); err != nil {
			return nil, nil, err
		}
		return req, nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, err
	}

	req.Name = c.FormValue("name")
	req.Description = c.FormValue("description")
	if v := c.FormValue("servings"); v != "" {
		servings, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, nil, err
		}
		value := uint(servings)
		req.Servings = &value
	}
	if v := c.FormValue("instructions"); v != "" {
		req.Instructions = json.RawMessage(v)
	}
	if v := c.FormValue("ingredients"); v != "" {
		if err := json.Unmarshal([]byte(v), &req.Ingredients); err != nil {
			return nil, nil, err
		}
	}
	if v := c.FormValue("tags"); v != "" {
		if err := json.Unmarshal([]byte(v), &req.Tags); err != nil {
			return nil, nil, err
		}
	}

	return req, formFile(form, "cover_image"), nil
}

// parseUpdateRequest mirrors parseCreateRequest; multipart scalar fields are
// only applied when present so partial updates survive the form encoding.
func parseUpdateRequest(c *fiber.Ctx) (*domain.UpdateRecipeRequest, *multipart.FileHeader, error) {
	req := new(domain.UpdateRecipeRequest)

	if !isMultipart(c) {
		if err := c.BodyParser(req); err != nil {
			return nil, nil, err
		}
		return req, nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, err
	}

	if values, ok := form.Value["name"]; ok && len(values) > 0 {
		req.Name = &values[0]
	}
	if values, ok := form.Value["description"]; ok && len(values) > 0 {
		req.Description = &values[0]
	}
	if v := c.FormValue("servings"); v != "" {
		servings, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, nil, err
		}
		value := uint(servings)
		req.Servings = &value
	}
	if v := c.FormValue("instructions"); v != "" {
		req.Instructions = json.RawMessage(v)
	}
	if v := c.FormValue("ingredients"); v != "" {
		if err := json.Unmarshal([]byte(v), &req.Ingredients); err != nil {
			return nil, nil, err
		}
	}
	if v := c.FormValue("tags"); v != "" {
		if err := json.Unmarshal([]byte(v), &req.Tags); err != nil {
			return nil, nil, err
		}
	}

	return req, formFile(form, "cover_image"), nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}

func formFile(form *multipart.Form, name string) *multipart.FileHeader {
	if files := form.File[name]; len(files) > 0 {
		return files[0]
	}
	return nil
}
