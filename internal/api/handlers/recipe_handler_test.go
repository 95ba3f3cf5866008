package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"recipe-catalog/entities"
	"recipe-catalog/internal/api/handlers"
	"recipe-catalog/internal/api/routes"
	"recipe-catalog/internal/middleware"
	"recipe-catalog/internal/utils/storage"
	"recipe-catalog/pkg/ingredient"
	"recipe-catalog/pkg/recipe"
	"recipe-catalog/pkg/tag"
)

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	mediaDir string
}

func setupTestApp(t *testing.T) *testEnv {
	dbPath := filepath.Join(t.TempDir(), "api.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.Ingredient{},
		&entities.Tag{},
		&entities.Recipe{},
		&entities.RecipeIngredient{},
		&entities.RecipeTag{},
	)
	require.NoError(t, err)

	mediaDir := t.TempDir()
	media, err := storage.NewLocalStorage(mediaDir, "/media")
	require.NoError(t, err)

	validate := validator.New()

	recipeService := recipe.NewRecipeService(
		recipe.NewRecipeRepository(db),
		ingredient.NewIngredientRepository(db),
		tag.NewTagRepository(db),
		media,
	)
	ingredientService := ingredient.NewIngredientService(ingredient.NewIngredientRepository(db))
	tagService := tag.NewTagService(tag.NewTagRepository(db))

	app := fiber.New()
	routesConfig := routes.Config{
		App:               app,
		RecipeHandler:     handlers.NewRecipeHandler(recipeService, validate),
		IngredientHandler: handlers.NewIngredientHandler(ingredientService, validate),
		TagHandler:        handlers.NewTagHandler(tagService, validate),
		Middleware:        middleware.NewMiddleware(),
	}
	routesConfig.Setup()

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return &testEnv{app: app, db: db, mediaDir: mediaDir}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	if json.Valid(raw) {
		require.NoError(t, json.Unmarshal(raw, &env))
	}
	return resp, env
}

func (e *testEnv) seedIngredient(t *testing.T, name string) uint {
	t.Helper()
	row := entities.Ingredient{Name: name}
	require.NoError(t, e.db.Create(&row).Error)
	return row.ID
}

func (e *testEnv) seedTag(t *testing.T, name string) uint {
	t.Helper()
	row := entities.Tag{Name: name}
	require.NoError(t, e.db.Create(&row).Error)
	return row.ID
}

func TestCreateRecipeEndpoint(t *testing.T) {
	env := setupTestApp(t)

	waterID := env.seedIngredient(t, "Water")
	dinnerID := env.seedTag(t, "Dinner")

	resp, body := env.request(t, fiber.MethodPost, "/api/v1/recipes", fiber.Map{
		"name":         "Soup",
		"description":  "warm and simple",
		"servings":     4,
		"instructions": []string{"boil water", "simmer"},
		"ingredients":  []fiber.Map{{"id": waterID, "quantity": "2 cups"}},
		"tags":         []uint{dinnerID},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.True(t, body.Success)

	var created struct {
		ID       uint   `json:"id"`
		Name     string `json:"name"`
		Servings uint   `json:"servings"`
		Tags     []uint `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Soup", created.Name)
	assert.Equal(t, uint(4), created.Servings)
	assert.Equal(t, []uint{dinnerID}, created.Tags)

	resp, body = env.request(t, fiber.MethodGet, fmt.Sprintf("/api/v1/recipes/%d", created.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var detail struct {
		Name        string `json:"name"`
		Ingredients []struct {
			ID       uint    `json:"id"`
			Name     string  `json:"name"`
			Quantity *string `json:"quantity"`
		} `json:"ingredients"`
		Tags []struct {
			ID   uint   `json:"id"`
			Name string `json:"name"`
		} `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &detail))
	require.Len(t, detail.Ingredients, 1)
	assert.Equal(t, waterID, detail.Ingredients[0].ID)
	assert.Equal(t, "Water", detail.Ingredients[0].Name)
	require.NotNil(t, detail.Ingredients[0].Quantity)
	assert.Equal(t, "2 cups", *detail.Ingredients[0].Quantity)
	require.Len(t, detail.Tags, 1)
	assert.Equal(t, "Dinner", detail.Tags[0].Name)
}

func TestCreateRecipeEndpoint_UnknownIngredient(t *testing.T) {
	env := setupTestApp(t)

	resp, body := env.request(t, fiber.MethodPost, "/api/v1/recipes", fiber.Map{
		"name":        "Mystery Stew",
		"ingredients": []fiber.Map{{"id": 999, "quantity": "1 pinch"}},
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.False(t, body.Success)

	var count int64
	require.NoError(t, env.db.Model(&entities.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateRecipeEndpoint_MissingName(t *testing.T) {
	env := setupTestApp(t)

	resp, body := env.request(t, fiber.MethodPost, "/api/v1/recipes", fiber.Map{
		"description": "anonymous dish",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.False(t, body.Success)
}

func TestListRecipesEndpoint_TagIDsOnly(t *testing.T) {
	env := setupTestApp(t)

	veganID := env.seedTag(t, "Vegan")

	resp, _ := env.request(t, fiber.MethodPost, "/api/v1/recipes", fiber.Map{
		"name": "Hummus",
		"tags": []uint{veganID},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body := env.request(t, fiber.MethodGet, "/api/v1/recipes", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var list []struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
		Tags []uint `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Hummus", list[0].Name)
	assert.Equal(t, []uint{veganID}, list[0].Tags)
}

func TestUpdateRecipeEndpoint_PartialScalar(t *testing.T) {
	env := setupTestApp(t)

	resp, body := env.request(t, fiber.MethodPost, "/api/v1/recipes", fiber.Map{
		"name":        "Ratatouille",
		"description": "vegetable stew",
		"servings":    6,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &created))

	resp, body = env.request(t, fiber.MethodPatch, fmt.Sprintf("/api/v1/recipes/%d", created.ID), fiber.Map{
		"description": "classic vegetable stew",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Servings    uint   `json:"servings"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &updated))
	assert.Equal(t, "Ratatouille", updated.Name)
	assert.Equal(t, "classic vegetable stew", updated.Description)
	assert.Equal(t, uint(6), updated.Servings)
}

func TestDeleteRecipeEndpoint(t *testing.T) {
	env := setupTestApp(t)

	resp, body := env.request(t, fiber.MethodPost, "/api/v1/recipes", fiber.Map{"name": "Toast"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &created))

	resp, _ = env.request(t, fiber.MethodDelete, fmt.Sprintf("/api/v1/recipes/%d", created.ID), nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, _ = env.request(t, fiber.MethodGet, fmt.Sprintf("/api/v1/recipes/%d", created.ID), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestDeleteRecipeEndpoint_UnknownID(t *testing.T) {
	env := setupTestApp(t)

	resp, _ := env.request(t, fiber.MethodDelete, "/api/v1/recipes/424242", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = env.request(t, fiber.MethodDelete, "/api/v1/recipes/not-a-number", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestMarkCookedEndpoint(t *testing.T) {
	env := setupTestApp(t)

	resp, body := env.request(t, fiber.MethodPost, "/api/v1/recipes", fiber.Map{"name": "Chili"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &created))

	resp, body = env.request(t, fiber.MethodPost, fmt.Sprintf("/api/v1/recipes/%d/cooked", created.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var cooked struct {
		ID          uint `json:"id"`
		TimesCooked uint `json:"times_cooked"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &cooked))
	assert.Equal(t, created.ID, cooked.ID)
	assert.Equal(t, uint(1), cooked.TimesCooked)
}

func TestCreateRecipeEndpoint_MultipartWithCover(t *testing.T) {
	env := setupTestApp(t)

	flourID := env.seedIngredient(t, "Flour")

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	require.NoError(t, writer.WriteField("name", "Grilled Cheese"))
	require.NoError(t, writer.WriteField("servings", "1"))
	require.NoError(t, writer.WriteField("ingredients",
		fmt.Sprintf(`[{"id":%d,"quantity":"100 g"}]`, flourID)))

	part, err := writer.CreateFormFile("cover_image", "cover.png")
	require.NoError(t, err)
	img := image.NewRGBA(image.Rect(0, 0, 1000, 500))
	for x := 0; x < 1000; x++ {
		for y := 0; y < 500; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	require.NoError(t, png.Encode(part, img))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/recipes", &form)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())

	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()

	var created struct {
		CoverImage string `json:"cover_image"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &created))
	assert.Equal(t, "/media/recipe_covers/grilled_cheese_cover.jpg", created.CoverImage)

	_, err = os.Stat(filepath.Join(env.mediaDir, "recipe_covers", "grilled_cheese_cover.jpg"))
	assert.NoError(t, err)
}

func TestCreateRecipeEndpoint_RejectedCoverRollsBack(t *testing.T) {
	env := setupTestApp(t)

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	require.NoError(t, writer.WriteField("name", "Broken Cover"))

	part, err := writer.CreateFormFile("cover_image", "cover.png")
	require.NoError(t, err)
	_, err = io.Copy(part, strings.NewReader("definitely not a png"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/recipes", &form)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())

	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	var count int64
	require.NoError(t, env.db.Model(&entities.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestIngredientEndpoints_CreateAndDuplicate(t *testing.T) {
	env := setupTestApp(t)

	resp, body := env.request(t, fiber.MethodPost, "/api/v1/ingredients", fiber.Map{"name": "Basil"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &created))
	assert.Equal(t, "Basil", created.Name)

	resp, body = env.request(t, fiber.MethodPost, "/api/v1/ingredients", fiber.Map{"name": "Basil"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.False(t, body.Success)
}

func TestTagEndpoints_DeleteReturnsNoContent(t *testing.T) {
	env := setupTestApp(t)

	resp, body := env.request(t, fiber.MethodPost, "/api/v1/tags", fiber.Map{"name": "Quick"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &created))

	resp, _ = env.request(t, fiber.MethodDelete, fmt.Sprintf("/api/v1/tags/%d", created.ID), nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, _ = env.request(t, fiber.MethodGet, fmt.Sprintf("/api/v1/tags/%d", created.ID), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
