package credstore

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
)

type credential struct {
	Key       string `gorm:"primaryKey;size:32"`
	Value     string
	UpdatedAt time.Time
}

func (credential) TableName() string { return "credentials" }

// Gorm persists the pair as two fixed-key rows. It is the durable
// analogue of a browser's local storage slots.
type Gorm struct {
	mu sync.Mutex
	db *gorm.DB
}

// OpenSQLite opens (and migrates) a sqlite-backed store at path. Use
// ":memory:" for a throwaway store.
func OpenSQLite(path string) (*Gorm, error) {
	if path == "" {
		return nil, fmt.Errorf("credstore: sqlite path is empty")
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("credstore: open sqlite: %w", err)
	}
	return newGorm(db)
}

// OpenPostgres opens a postgres-backed store, for multi-seat back-office
// deployments that share one credential slot.
func OpenPostgres(dsn string) (*Gorm, error) {
	if dsn == "" {
		return nil, fmt.Errorf("credstore: postgres dsn is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt: true,
		NowFunc:     func() time.Time { return time.Now().UTC() },
		Logger:      logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("credstore: open postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("credstore: unwrap sql.DB: %w", err)
	}
	configurePool(sqlDB)
	return newGorm(db)
}

func configurePool(sqlDB *sql.DB) {
	const (
		maxOpenConns    = 5
		maxIdleConns    = 2
		connMaxLifetime = 30 * time.Minute
		connMaxIdleTime = 5 * time.Minute
	)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
}

func newGorm(db *gorm.DB) (*Gorm, error) {
	if err := db.AutoMigrate(&credential{}); err != nil {
		return nil, fmt.Errorf("credstore: migrate: %w", err)
	}
	return &Gorm{db: db}, nil
}

func (g *Gorm) Get() (Pair, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var rows []credential
	if err := g.db.Where("key IN ?", []string{keyAccessToken, keyRefreshToken}).Find(&rows).Error; err != nil {
		return Pair{}, false
	}
	var pair Pair
	found := false
	for _, r := range rows {
		switch r.Key {
		case keyAccessToken:
			pair.AccessToken = r.Value
			found = true
		case keyRefreshToken:
			pair.RefreshToken = r.Value
			found = true
		}
	}
	return pair, found
}

func (g *Gorm) Set(pair Pair) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.db.Transaction(func(tx *gorm.DB) error {
		if err := upsert(tx, keyAccessToken, pair.AccessToken); err != nil {
			return err
		}
		return upsert(tx, keyRefreshToken, pair.RefreshToken)
	})
}

func (g *Gorm) SetAccessToken(token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return upsert(g.db, keyAccessToken, token)
}

func (g *Gorm) Clear() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	err := g.db.Where("key IN ?", []string{keyAccessToken, keyRefreshToken}).Delete(&credential{}).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("credstore: clear: %w", err)
	}
	return nil
}

func upsert(tx *gorm.DB, key, value string) error {
	row := credential{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("credstore: write %s: %w", key, err)
	}
	return nil
}
