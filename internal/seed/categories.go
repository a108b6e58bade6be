package seed

import (
	_ "embed"
	"fmt"

	"inkraft/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed fixtures/categories.yml
var categoriesFixture []byte

// BuiltInCategory is one entry of the category fixture.
type BuiltInCategory struct {
	Slug        string `yaml:"slug"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type categoryFile struct {
	Categories []BuiltInCategory `yaml:"categories"`
}

// ParseCategories decodes a category fixture document.
func ParseCategories(raw []byte) ([]BuiltInCategory, error) {
	var file categoryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse category fixture: %w", err)
	}
	seen := make(map[string]bool, len(file.Categories))
	for _, c := range file.Categories {
		if c.Slug == "" || c.Name == "" {
			return nil, fmt.Errorf("category fixture entry needs slug and name: %+v", c)
		}
		if seen[c.Slug] {
			return nil, fmt.Errorf("duplicate category slug %q in fixture", c.Slug)
		}
		seen[c.Slug] = true
	}
	return file.Categories, nil
}

// BuiltInCategories returns the embedded category fixture.
func BuiltInCategories() ([]BuiltInCategory, error) {
	return ParseCategories(categoriesFixture)
}

// Categories upserts the built-in categories by slug.
func Categories(db *gorm.DB) ([]models.Category, error) {
	items, err := BuiltInCategories()
	if err != nil {
		return nil, err
	}

	out := make([]models.Category, 0, len(items))
	for _, item := range items {
		cat := models.Category{Slug: item.Slug, Name: item.Name, Description: item.Description}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description"}),
		}).Create(&cat).Error; err != nil {
			return nil, fmt.Errorf("seed category %s: %w", item.Slug, err)
		}
		// The upsert does not report the ID of an existing row on every driver.
		if err := db.Where("slug = ?", item.Slug).First(&cat).Error; err != nil {
			return nil, fmt.Errorf("reload category %s: %w", item.Slug, err)
		}
		out = append(out, cat)
	}
	return out, nil
}
