package tag

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"recipe-catalog/domain"
	"recipe-catalog/entities"
)

func setupTestService(t *testing.T) (TagService, *gorm.DB) {
	dbPath := filepath.Join(t.TempDir(), "tags.db")

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

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return NewTagService(NewTagRepository(db)), db
}

func TestCreateTag(t *testing.T) {
	service, _ := setupTestService(t)

	created, err := service.CreateTag(context.Background(), domain.TagRequest{Name: "Breakfast"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Breakfast", created.Name)
}

func TestCreateTag_DuplicateName(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	_, err := service.CreateTag(ctx, domain.TagRequest{Name: "Vegan"})
	require.NoError(t, err)

	_, err = service.CreateTag(ctx, domain.TagRequest{Name: "Vegan"})
	assert.ErrorIs(t, err, domain.ErrTagNameExists)
}

func TestGetTags_SortedByName(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	for _, name := range []string{"Winter", "Baking", "Quick"} {
		_, err := service.CreateTag(ctx, domain.TagRequest{Name: name})
		require.NoError(t, err)
	}

	tags, err := service.GetTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "Baking", tags[0].Name)
	assert.Equal(t, "Quick", tags[1].Name)
	assert.Equal(t, "Winter", tags[2].Name)
}

func TestGetTag_NotFound(t *testing.T) {
	service, _ := setupTestService(t)

	_, err := service.GetTag(context.Background(), 17)
	assert.ErrorIs(t, err, domain.ErrTagNotFound)
}

func TestUpdateTag(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	created, err := service.CreateTag(ctx, domain.TagRequest{Name: "Diner"})
	require.NoError(t, err)

	updated, err := service.UpdateTag(ctx, created.ID, domain.TagRequest{Name: "Dinner"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Dinner", updated.Name)
}

func TestDeleteTag_DetachesFromRecipes(t *testing.T) {
	service, db := setupTestService(t)
	ctx := context.Background()

	created, err := service.CreateTag(ctx, domain.TagRequest{Name: "Holiday"})
	require.NoError(t, err)

	recipe := entities.Recipe{Name: "Roast Turkey", Servings: 8}
	require.NoError(t, db.Create(&recipe).Error)
	require.NoError(t, db.Create(&entities.RecipeTag{
		RecipeID: recipe.ID,
		TagID:    created.ID,
	}).Error)

	require.NoError(t, service.DeleteTag(ctx, created.ID))

	_, err = service.GetTag(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrTagNotFound)

	var pairings int64
	require.NoError(t, db.Model(&entities.RecipeTag{}).
		Where("tag_id = ?", created.ID).Count(&pairings).Error)
	assert.Zero(t, pairings)

	var recipes int64
	require.NoError(t, db.Model(&entities.Recipe{}).Count(&recipes).Error)
	assert.Equal(t, int64(1), recipes)
}

func TestDeleteTag_NotFound(t *testing.T) {
	service, _ := setupTestService(t)

	err := service.DeleteTag(context.Background(), 33)
	assert.ErrorIs(t, err, domain.ErrTagNotFound)
}
