package db

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"boardly/internal/config"
	"boardly/internal/models"
	"boardly/internal/utils"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database and migrates the schema.
// TranslateError is required: the vote ledger detects lost races through
// gorm.ErrDuplicatedKey.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres", "":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", driver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect: %w", err)
	}

	if driver == "sqlite" {
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, err
		}
		// Single connection: pragmas are per connection and sqlite has one
		// writer anyway.
		sqlDB.SetMaxOpenConns(1)
		if err := conn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("db: enable foreign keys: %w", err)
		}
	}

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{},
		&models.Board{},
		&models.Post{},
		&models.Comment{},
		&models.PostVote{},
		&models.CommentVote{},
	)
	if err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	return nil
}

// Init opens the database from cfg and seeds it. Used by cmd/server.
func Init(cfg config.Config) (*gorm.DB, error) {
	conn, err := Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	slog.Info("database connection established", "driver", cfg.DBDriver)

	if err := SeedBoards(conn); err != nil {
		return nil, err
	}
	if err := SeedAdmin(conn, cfg.Admin); err != nil {
		return nil, err
	}
	return conn, nil
}

// DefaultBoards is the initial catalog created on an empty database.
var DefaultBoards = []models.Board{
	{Name: "Free Talk", Slug: "free", Description: "Talk about anything", Order: 1},
	{Name: "Q&A", Slug: "qna", Description: "Ask the community", Order: 2},
	{Name: "Info", Slug: "info", Description: "Share useful information", Order: 3},
	{Name: "Hobbies", Slug: "hobby", Description: "Hobbies and interests", Order: 4},
}

func SeedBoards(conn *gorm.DB) error {
	var count int64
	if err := conn.Model(&models.Board{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		slog.Debug("boards already seeded, skipping")
		return nil
	}

	for _, b := range DefaultBoards {
		board := b
		if err := conn.Create(&board).Error; err != nil {
			return fmt.Errorf("db: seed board %s: %w", b.Slug, err)
		}
	}
	slog.Info("initial boards created", "count", len(DefaultBoards))
	return nil
}

// SeedAdmin creates the configured admin account unless the email is taken.
func SeedAdmin(conn *gorm.DB, seed config.AdminSeed) error {
	email := strings.ToLower(strings.TrimSpace(seed.Email))
	if email == "" || seed.Password == "" {
		return nil
	}

	var existing models.User
	err := conn.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := utils.HashPassword(seed.Password)
	if err != nil {
		return err
	}
	admin := models.User{
		Email:    email,
		Username: seed.Username,
		Password: hash,
		Role:     models.RoleAdmin,
		Bio:      "Community administrator",
	}
	if err := conn.Create(&admin).Error; err != nil {
		return fmt.Errorf("db: seed admin: %w", err)
	}
	slog.Info("admin account created", "username", admin.Username)
	return nil
}
