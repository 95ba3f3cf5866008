package migration

import (
	"fmt"

	"gorm.io/gorm"

	"recipe-catalog/entities"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entities.Ingredient{}); err != nil {
		return fmt.Errorf("migrate ingredients: %w", err)
	}
	if err := db.AutoMigrate(&entities.Tag{}); err != nil {
		return fmt.Errorf("migrate tags: %w", err)
	}
	if err := db.AutoMigrate(&entities.Recipe{}); err != nil {
		return fmt.Errorf("migrate recipes: %w", err)
	}
	if err := db.AutoMigrate(&entities.RecipeIngredient{}); err != nil {
		return fmt.Errorf("migrate recipe ingredients: %w", err)
	}
	if err := db.AutoMigrate(&entities.RecipeTag{}); err != nil {
		return fmt.Errorf("migrate recipe tags: %w", err)
	}

	fmt.Println("Database migration complete")
	return nil
}
