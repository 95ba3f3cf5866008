package routes

import (
	"github.com/gofiber/fiber/v2"

	"recipe-catalog/internal/api/handlers"
	"recipe-catalog/internal/middleware"
)

type Config struct {
	App               *fiber.App
	RecipeHandler     handlers.RecipeHandler
	IngredientHandler handlers.IngredientHandler
	TagHandler        handlers.TagHandler
	Middleware        middleware.Middleware
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.Recipes()
	c.Ingredients()
	c.Tags()
	c.GuestRoute()
}

func (c *Config) Recipes() {
	recipes := c.App.Group("/api/v1/recipes")
	{
		recipes.Get("", c.RecipeHandler.GetRecipes)
		recipes.Post("", c.RecipeHandler.CreateRecipe)
		recipes.Get("/:id", c.RecipeHandler.GetRecipeDetail)
		recipes.Put("/:id", c.RecipeHandler.UpdateRecipe)
		recipes.Patch("/:id", c.RecipeHandler.UpdateRecipe)
		recipes.Delete("/:id", c.RecipeHandler.DeleteRecipe)
		recipes.Post("/:id/cooked", c.RecipeHandler.MarkCooked)
	}
}

func (c *Config) Ingredients() {
	ingredients := c.App.Group("/api/v1/ingredients")
	{
		ingredients.Get("", c.IngredientHandler.GetIngredients)
		ingredients.Post("", c.IngredientHandler.CreateIngredient)
		ingredients.Get("/:id", c.IngredientHandler.GetIngredient)
		ingredients.Put("/:id", c.IngredientHandler.UpdateIngredient)
		ingredients.Patch("/:id", c.IngredientHandler.UpdateIngredient)
		ingredients.Delete("/:id", c.IngredientHandler.DeleteIngredient)
	}
}

func (c *Config) Tags() {
	tags := c.App.Group("/api/v1/tags")
	{
		tags.Get("", c.TagHandler.GetTags)
		tags.Post("", c.TagHandler.CreateTag)
		tags.Get("/:id", c.TagHandler.GetTag)
		tags.Put("/:id", c.TagHandler.UpdateTag)
		tags.Patch("/:id", c.TagHandler.UpdateTag)
		tags.Delete("/:id", c.TagHandler.DeleteTag)
	}
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
}
