package models

import "gorm.io/gorm"

// All returns every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Company{},
		&Project{},
		&UserStory{},
		&ProjectApproval{},
		&StoryApproval{},
		&Evidence{},
	}
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}

// CreateDefaultCompanies seeds a company so a fresh install can accept projects
func CreateDefaultCompanies(db *gorm.DB, names ...string) error {
	for _, name := range names {
		company := Company{Name: name}
		if err := db.FirstOrCreate(&company, "name = ?", name).Error; err != nil {
			return err
		}
	}
	return nil
}
