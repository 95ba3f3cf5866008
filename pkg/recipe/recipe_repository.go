package recipe

import (
	"context"
	"time"

	"gorm.io/gorm"

	"recipe-catalog/entities"
)

type (
	RecipeRepository interface {
		CreateRecipe(ctx context.Context, recipe *entities.Recipe, items []entities.RecipeIngredient, tagIDs []uint) error
		GetRecipes(ctx context.Context) ([]*entities.Recipe, error)
		GetRecipeByID(ctx context.Context, id uint) (*entities.Recipe, error)
		GetRecipeIngredients(ctx context.Context, recipeID uint) ([]*entities.RecipeIngredient, error)
		GetRecipeTags(ctx context.Context, recipeID uint) ([]*entities.Tag, error)
		GetTagIDsByRecipeIDs(ctx context.Context, recipeIDs []uint) (map[uint][]uint, error)
		UpdateRecipe(ctx context.Context, recipe *entities.Recipe, items []entities.RecipeIngredient, tagIDs []uint) error
		UpdateCoverImage(ctx context.Context, id uint, coverImage string) error
		DeleteRecipe(ctx context.Context, id uint) error
		MarkCooked(ctx context.Context, id uint, cookedAt time.Time) (*entities.Recipe, error)
		ExistsByName(ctx context.Context, name string) (bool, error)
	}

	recipeRepository struct {
		db *gorm.DB
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

// CreateRecipe writes the recipe row and all of its association rows in a
// single transaction: either everything lands or nothing does.
func (r *recipeRepository) CreateRecipe(ctx context.Context, recipe *entities.Recipe, items []entities.RecipeIngredient, tagIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(recipe).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].RecipeID = recipe.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		for _, tagID := range tagIDs {
			row := entities.RecipeTag{RecipeID: recipe.ID, TagID: tagID}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *recipeRepository) GetRecipes(ctx context.Context) ([]*entities.Recipe, error) {
	var recipes []*entities.Recipe
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *recipeRepository) GetRecipeByID(ctx context.Context, id uint) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := r.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) GetRecipeIngredients(ctx context.Context, recipeID uint) ([]*entities.RecipeIngredient, error) {
	var rows []*entities.RecipeIngredient
	if err := r.db.WithContext(ctx).
		Preload("Ingredient").
		Where("recipe_id = ?", recipeID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *recipeRepository) GetRecipeTags(ctx context.Context, recipeID uint) ([]*entities.Tag, error) {
	var tags []*entities.Tag
	if err := r.db.WithContext(ctx).
		Joins("JOIN recipe_tags ON recipe_tags.tag_id = tags.id").
		Where("recipe_tags.recipe_id = ?", recipeID).
		Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// GetTagIDsByRecipeIDs fetches tag ids for a whole page of recipes in one
// query, keyed by recipe id.
func (r *recipeRepository) GetTagIDsByRecipeIDs(ctx context.Context, recipeIDs []uint) (map[uint][]uint, error) {
	result := make(map[uint][]uint, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return result, nil
	}

	var rows []entities.RecipeTag
	if err := r.db.WithContext(ctx).
		Where("recipe_id IN ?", recipeIDs).
		Order("tag_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.RecipeID] = append(result[row.RecipeID], row.TagID)
	}
	return result, nil
}

// UpdateRecipe saves the recipe row and reconciles its ingredient and tag
// sets against the submitted ones inside a single transaction. Associations
// are diff-and-patched rather than wiped and reinserted, so a failure mid
// sequence rolls back to a consistent state and untouched rows keep their
// identity.
func (r *recipeRepository) UpdateRecipe(ctx context.Context, recipe *entities.Recipe, items []entities.RecipeIngredient, tagIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(recipe).Error; err != nil {
			return err
		}
		if err := reconcileIngredients(tx, recipe.ID, items); err != nil {
			return err
		}
		return reconcileTags(tx, recipe.ID, tagIDs)
	})
}

func reconcileIngredients(tx *gorm.DB, recipeID uint, items []entities.RecipeIngredient) error {
	var current []entities.RecipeIngredient
	if err := tx.Where("recipe_id = ?", recipeID).Find(&current).Error; err != nil {
		return err
	}

	desired := make(map[uint]string, len(items))
	for _, item := range items {
		desired[item.IngredientID] = item.Quantity
	}

	kept := make(map[uint]bool, len(current))
	for _, row := range current {
		quantity, ok := desired[row.IngredientID]
		if !ok {
			if err := tx.Delete(&entities.RecipeIngredient{}, row.ID).Error; err != nil {
				return err
			}
			continue
		}
		kept[row.IngredientID] = true
		if quantity != row.Quantity {
			if err := tx.Model(&entities.RecipeIngredient{}).
				Where("id = ?", row.ID).
				Update("quantity", quantity).Error; err != nil {
				return err
			}
		}
	}

	for _, item := range items {
		if kept[item.IngredientID] {
			continue
		}
		item.RecipeID = recipeID
		item.ID = 0
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
	}
	return nil
}

func reconcileTags(tx *gorm.DB, recipeID uint, tagIDs []uint) error {
	var current []entities.RecipeTag
	if err := tx.Where("recipe_id = ?", recipeID).Find(&current).Error; err != nil {
		return err
	}

	desired := make(map[uint]bool, len(tagIDs))
	for _, tagID := range tagIDs {
		desired[tagID] = true
	}

	kept := make(map[uint]bool, len(current))
	for _, row := range current {
		if !desired[row.TagID] {
			if err := tx.Delete(&entities.RecipeTag{}, row.ID).Error; err != nil {
				return err
			}
			continue
		}
		kept[row.TagID] = true
	}

	for _, tagID := range tagIDs {
		if kept[tagID] {
			continue
		}
		row := entities.RecipeTag{RecipeID: recipeID, TagID: tagID}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// UpdateCoverImage persists only the cover image column. This is the second
// write of a save-with-image: the recipe row must already exist so the
// derived file name is stable.
func (r *recipeRepository) UpdateCoverImage(ctx context.Context, id uint, coverImage string) error {
	return r.db.WithContext(ctx).
		Model(&entities.Recipe{}).
		Where("id = ?", id).
		Update("cover_image", coverImage).Error
}

func (r *recipeRepository) DeleteRecipe(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).
			Delete(&entities.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).
			Delete(&entities.RecipeTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Recipe{}, id).Error
	})
}

// MarkCooked bumps times_cooked and stamps last_cooked_at. Nothing else may
// touch those two columns.
func (r *recipeRepository) MarkCooked(ctx context.Context, id uint, cookedAt time.Time) (*entities.Recipe, error) {
	var recipe entities.Recipe
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&recipe, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&recipe).Updates(map[string]interface{}{
			"times_cooked":   gorm.Expr("times_cooked + 1"),
			"last_cooked_at": cookedAt,
		}).Error; err != nil {
			return err
		}
		return tx.First(&recipe, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Recipe{}).
		Where("name = ?", name).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
