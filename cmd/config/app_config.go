package config

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	"recipe-catalog/internal/api/handlers"
	"recipe-catalog/internal/api/routes"
	"recipe-catalog/internal/middleware"
	"recipe-catalog/internal/utils"
	"recipe-catalog/internal/utils/storage"
	"recipe-catalog/pkg/ingredient"
	"recipe-catalog/pkg/recipe"
	"recipe-catalog/pkg/tag"
)

func NewApp(db *gorm.DB) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: true,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	// setting up logging and limiter
	err := os.MkdirAll("./logs", os.ModePerm)
	if err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Second,
	}))

	// media storage
	media, err := newMediaStorage()
	if err != nil {
		return nil, err
	}
	if utils.GetConfig("APP_ENV") != "production" {
		app.Static("/media", mediaDir())
	}

	// Repository
	ingredientRepository := ingredient.NewIngredientRepository(db)
	tagRepository := tag.NewTagRepository(db)
	recipeRepository := recipe.NewRecipeRepository(db)

	// Service
	ingredientService := ingredient.NewIngredientService(ingredientRepository)
	tagService := tag.NewTagService(tagRepository)
	recipeService := recipe.NewRecipeService(recipeRepository, ingredientRepository, tagRepository, media)

	// Handler
	ingredientHandler := handlers.NewIngredientHandler(ingredientService, validator)
	tagHandler := handlers.NewTagHandler(tagService, validator)
	recipeHandler := handlers.NewRecipeHandler(recipeService, validator)

	// routes
	routesConfig := routes.Config{
		App:               app,
		RecipeHandler:     recipeHandler,
		IngredientHandler: ingredientHandler,
		TagHandler:        tagHandler,
		Middleware:        middlewares,
	}
	routesConfig.Setup()
	return app, nil
}

func newMediaStorage() (storage.MediaStorage, error) {
	if utils.GetConfig("STORAGE_DRIVER") == "s3" {
		return storage.NewAwsS3()
	}

	mediaURL := utils.GetConfig("MEDIA_URL")
	if mediaURL == "" {
		mediaURL = "/media"
	}
	return storage.NewLocalStorage(mediaDir(), mediaURL)
}

func mediaDir() string {
	if dir := utils.GetConfig("MEDIA_DIR"); dir != "" {
		return dir
	}
	return "./media"
}
