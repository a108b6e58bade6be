package database

import "inkraft/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Category{},
		&models.Publication{},
		&models.PublicationMember{},
		&models.Post{},
		&models.Comment{},
		&models.Vote{},
		&models.Follow{},
		&models.SavedPost{},
		&models.ReadingHistory{},
		&models.Digest{},
		&models.DigestItem{},
		&models.Alert{},
		&models.ViewEvent{},
	}
}
