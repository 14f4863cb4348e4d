package database

import (
	"encore/internal/logger"
	"encore/internal/models"
)

// MigrateModels runs GORM AutoMigrate for all models
func (db *DB) MigrateModels() error {
	log := logger.New("database").Function("MigrateModels")
	log.Info("Starting database migration")

	modelsToMigrate := []interface{}{
		&models.User{},
		&models.Band{},
		&models.Song{},
		&models.Vote{},
		&models.RateWindow{},
		&models.Rehearsal{},
		&models.SetlistItem{},
		&models.RehearsalSeries{},
	}

	for _, model := range modelsToMigrate {
		if err := db.SQL.AutoMigrate(model); err != nil {
			log.Error("Failed to migrate model", "model", model, "error", err)
			return err
		}
	}

	log.Info("Database migration completed successfully")
	return nil
}

// CreateIndexes creates the uniqueness constraints the engine's concurrency
// model relies on, plus lookup indexes GORM doesn't create automatically.
func (db *DB) CreateIndexes() error {
	log := logger.New("database").Function("CreateIndexes")
	log.Info("Creating additional database indexes")

	indexes := []string{
		// One ballot per (voter, song); castVote upserts against this.
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_votes_voter_song ON votes(voter_id, song_id)",
		// One generated rehearsal per (series, date); expansion idempotence.
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_rehearsals_series_date ON rehearsals(series_id, date) WHERE series_id IS NOT NULL",
		// One rolling window row per (user, band).
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_rate_windows_user_band ON rate_windows(user_id, band_id)",
		"CREATE INDEX IF NOT EXISTS idx_votes_band_created_at ON votes(band_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_setlist_items_rehearsal_position ON setlist_items(rehearsal_id, position)",
	}

	for _, indexSQL := range indexes {
		if err := db.SQL.Exec(indexSQL).Error; err != nil {
			log.Warn("Failed to create index", "sql", indexSQL, "error", err)
		}
	}

	log.Info("Additional database indexes created")
	return nil
}
