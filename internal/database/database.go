package database

import (
	"fmt"
	"log"

	"github.com/jeskokaiser/altfragen-io-sub002/internal/config"
	"github.com/jeskokaiser/altfragen-io-sub002/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	log.Println("database connected")
	return db
}

func AutoMigrate(db *gorm.DB) {
	// Sessions created before the close/reopen flow existed have no active
	// flag; backfill them as active.
	db.Exec(`DO $$
	BEGIN
		IF EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'sessions')
		   AND NOT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = 'sessions' AND column_name = 'active')
		THEN
			ALTER TABLE sessions ADD COLUMN active boolean NOT NULL DEFAULT true;
		END IF;
	END $$;`)

	err := db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.SessionParticipant{},
		&models.DraftQuestion{},
		&models.Question{},
		&models.ActivityEntry{},
	)
	if err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}
	log.Println("database migrated")
}
