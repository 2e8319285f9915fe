package infra

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"focusguard/internal/domain"
)

// sessionRecord is the gorm model backing domain.Session.
type sessionRecord struct {
	ID              string `gorm:"primaryKey"`
	AppName         string `gorm:"index;not null"`
	Mode            string `gorm:"not null"`
	StartedAt       time.Time
	EndedAt         *time.Time
	DurationSeconds int64
	CreatedAt       time.Time
}

func (sessionRecord) TableName() string {
	return "sessions"
}

func (r sessionRecord) toDomain() domain.Session {
	return domain.Session{
		ID:              domain.SessionID(r.ID),
		AppName:         r.AppName,
		Mode:            domain.FocusState(r.Mode),
		StartedAt:       r.StartedAt,
		EndedAt:         r.EndedAt,
		DurationSeconds: r.DurationSeconds,
	}
}

// SessionStore implements domain.SessionRepository on SQLite via gorm.
type SessionStore struct {
	db *gorm.DB
}

// NewSessionStore opens (or creates) the session database and runs
// the schema migration.
func NewSessionStore(path string) (*SessionStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open session database %s", path)
	}

	if err := db.AutoMigrate(&sessionRecord{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate sessions schema")
	}

	return &SessionStore{db: db}, nil
}

// OpenSession appends a new open session record.
func (s *SessionStore) OpenSession(appName string, mode domain.FocusState, start time.Time) (domain.SessionID, error) {
	rec := sessionRecord{
		ID:        uuid.NewString(),
		AppName:   appName,
		Mode:      string(mode),
		StartedAt: start,
	}
	if err := s.db.Create(&rec).Error; err != nil {
		return "", errors.Wrap(err, "failed to insert session")
	}
	return domain.SessionID(rec.ID), nil
}

// CloseSession sets the end timestamp and derived duration. Closing a
// session that is already closed (or unknown) is a no-op success so a
// failed close can be retried. An end before the session start is
// rejected with ErrOutOfOrderClose.
func (s *SessionStore) CloseSession(id domain.SessionID, end time.Time) error {
	var rec sessionRecord
	err := s.db.Where("id = ? AND ended_at IS NULL", string(id)).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to load session")
	}

	if end.Before(rec.StartedAt) {
		return domain.ErrOutOfOrderClose
	}

	updates := map[string]interface{}{
		"ended_at":         end,
		"duration_seconds": int64(end.Sub(rec.StartedAt).Seconds()),
	}
	if err := s.db.Model(&sessionRecord{}).Where("id = ?", string(id)).Updates(updates).Error; err != nil {
		return errors.Wrap(err, "failed to close session")
	}
	return nil
}

// SetAppName retags the still-open session. Closed sessions are
// immutable; retagging one returns ErrSessionClosed.
func (s *SessionStore) SetAppName(id domain.SessionID, appName string) error {
	res := s.db.Model(&sessionRecord{}).
		Where("id = ? AND ended_at IS NULL", string(id)).
		Update("app_name", appName)
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to retag session")
	}
	if res.RowsAffected == 0 {
		return domain.ErrSessionClosed
	}
	return nil
}

// Recent returns the most recently started sessions, newest first.
func (s *SessionStore) Recent(limit int) ([]domain.Session, error) {
	if limit <= 0 {
		limit = 10
	}

	var recs []sessionRecord
	err := s.db.Order("started_at DESC").Limit(limit).Find(&recs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to query sessions")
	}

	out := make([]domain.Session, len(recs))
	for i, r := range recs {
		out[i] = r.toDomain()
	}
	return out, nil
}

// Close closes the underlying database connection.
func (s *SessionStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get database handle")
	}
	return sqlDB.Close()
}

// Ensure SessionStore implements domain.SessionRepository.
var _ domain.SessionRepository = (*SessionStore)(nil)
