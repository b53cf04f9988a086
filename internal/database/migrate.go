package database

import "github.com/killallgit/depthtrack-api/internal/models"

// Models lists every table owned by the service, in migration order
func Models() []any {
	return []any{
		&models.VideoAsset{},
		&models.Job{},
	}
}

// Migrate brings the schema up to date for all service tables
func (db *DB) Migrate() error {
	return db.AutoMigrate(Models()...)
}
