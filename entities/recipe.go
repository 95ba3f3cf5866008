package entities

import "time"

type Recipe struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Name         string     `gorm:"size:50;uniqueIndex;not null" json:"name"`
	CoverImage   string     `json:"cover_image,omitempty"`
	LastCookedAt *time.Time `gorm:"type:timestamp" json:"last_cooked_at,omitempty"`
	Servings     uint       `gorm:"default:2" json:"servings"`
	TimesCooked  uint       `gorm:"default:0" json:"times_cooked"`
	Instructions string     `gorm:"type:text" json:"instructions"`
	Description  string     `gorm:"size:100" json:"description"`

	Timestamp
}

// RecipeIngredient links a recipe to an ingredient and carries the
// quantity of that ingredient for this particular recipe.
type RecipeIngredient struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	RecipeID     uint   `gorm:"uniqueIndex:idx_recipe_ingredient;not null" json:"recipe_id"`
	IngredientID uint   `gorm:"uniqueIndex:idx_recipe_ingredient;not null" json:"ingredient_id"`
	Quantity     string `gorm:"size:50" json:"quantity"`

	Recipe     *Recipe     `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
	Ingredient *Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE" json:"-"`
}

type RecipeTag struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	RecipeID uint `gorm:"uniqueIndex:idx_recipe_tag;not null" json:"recipe_id"`
	TagID    uint `gorm:"uniqueIndex:idx_recipe_tag;not null" json:"tag_id"`

	Recipe *Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
	Tag    *Tag    `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE" json:"-"`
}
