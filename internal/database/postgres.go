package database

import (
	"fmt"
	"log"
	"strings"

	"flow-chat-service/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewPostgresConnection(dburi string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dburi), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate applies the schema. Shared with the test setup, which runs it
// against sqlite.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.FriendRequest{},
		&models.Friendship{},
		&models.ChatMessage{},
	)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			log.Println("Tables already exist, continuing with existing schema")
			return nil
		}
		return fmt.Errorf("failed to migrate database: %v", err)
	}
	return nil
}
