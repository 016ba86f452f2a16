// Package sessionstore guarda la sesion del BaaS en un archivo SQLite local.
package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"taste-test/internal/domain"
)

// SessionKey es la clave fija del blob de sesion.
const SessionKey = "supabaseSession"

type deviceState struct {
	Key       string `gorm:"column:state_key;primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (deviceState) TableName() string {
	return "device_state"
}

// SQLiteStore implementa auth.SessionStore sobre gorm.
type SQLiteStore struct {
	db *gorm.DB
}

// Open abre (o crea) el archivo en path. ":memory:" sirve para tests.
func Open(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if err := db.AutoMigrate(&deviceState{}); err != nil {
		return nil, fmt.Errorf("migrate session db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, session domain.AuthSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	row := deviceState{Key: SessionKey, Value: string(raw), UpdatedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "state_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error
}

func (s *SQLiteStore) Load(ctx context.Context) (domain.AuthSession, bool, error) {
	var row deviceState
	err := s.db.WithContext(ctx).Where("state_key = ?", SessionKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.AuthSession{}, false, nil
	}
	if err != nil {
		return domain.AuthSession{}, false, err
	}

	var session domain.AuthSession
	if err := json.Unmarshal([]byte(row.Value), &session); err != nil {
		return domain.AuthSession{}, false, fmt.Errorf("decode session: %w", err)
	}
	return session, true, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("state_key = ?", SessionKey).Delete(&deviceState{}).Error
}

// Close libera la conexion subyacente.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
