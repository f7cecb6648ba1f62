package db

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/lissants/berkaraoke/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
func InitDB() error {
	if err := createUsersTable(); err != nil {
		return err
	}
	if err := createKaraokeTracksTable(); err != nil {
		return err
	}
	if err := createUserKaraokeTracksTable(); err != nil {
		return err
	}

	log.Println("Database initialization completed.")
	return nil
}

func createUsersTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(64) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

func createKaraokeTracksTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS karaoke_tracks (
		id VARCHAR(36) PRIMARY KEY,
		song_name VARCHAR(255) NOT NULL,
		artist VARCHAR(255) NOT NULL DEFAULT '',
		genre VARCHAR(128) NOT NULL DEFAULT '',
		lyrics TEXT,
		audio_path VARCHAR(512) NOT NULL DEFAULT '',
		duration FLOAT NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		INDEX idx_song_name (song_name),
		INDEX idx_artist (artist),
		INDEX idx_genre (genre)
	)`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create karaoke_tracks table: %w", err)
	}
	return nil
}

func createUserKaraokeTracksTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS user_karaoke_tracks (
		id VARCHAR(36) PRIMARY KEY,
		user_id BIGINT NOT NULL,
		file_ids TEXT,
		file_id VARCHAR(64) NOT NULL DEFAULT '',
		processing_status VARCHAR(32) NOT NULL DEFAULT 'pending',
		recording_date DATETIME NOT NULL,
		genre_filter VARCHAR(128) NOT NULL DEFAULT 'all',
		artist_filter VARCHAR(255) NOT NULL DEFAULT 'all',
		recommendations TEXT,
		performance_data TEXT,
		accuracy_score DOUBLE NOT NULL DEFAULT 0,
		child_documents TEXT,
		is_master_document BOOLEAN NOT NULL DEFAULT FALSE,
		INDEX idx_user_id (user_id),
		INDEX idx_recording_date (recording_date)
	)`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create user_karaoke_tracks table: %w", err)
	}
	return nil
}
