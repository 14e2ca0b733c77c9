// Package history records generation batches in a SQLite database under the
// docs meta directory.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/richhaase/repowiki/internal/generator"
)

// FileName is the database file inside the meta directory.
const FileName = "history.db"

// Batch is one Initialize/Update/Regenerate run.
type Batch struct {
	ID         string    `gorm:"primaryKey;size:36"`
	Operation  string    `gorm:"size:32;not null;index"`
	StartedAt  time.Time `gorm:"index"`
	Succeeded  int
	Failed     int
	Skipped    int
	DurationMs int64
	// Errors is newline-separated.
	Errors    string `gorm:"type:text"`
	CreatedAt time.Time
}

// Generation is one item of a batch.
type Generation struct {
	ID         uint   `gorm:"primaryKey"`
	BatchID    string `gorm:"size:36;not null;index"`
	Source     string `gorm:"size:1024"`
	Doc        string `gorm:"size:1024;index"`
	Title      string `gorm:"size:512"`
	Status     string `gorm:"size:16"`
	Agent      string `gorm:"size:32"`
	Success    bool
	TimedOut   bool
	Error      string `gorm:"type:text"`
	DurationMs int64
	CreatedAt  time.Time
}

// Config holds DB configuration.
type Config struct {
	Path     string
	LogLevel logger.LogLevel
	// Diag receives GORM log lines; nil discards them.
	Diag *slog.Logger
}

// Store is the history database. It implements generator.Recorder.
type Store struct {
	db *gorm.DB
}

var _ generator.Recorder = (*Store)(nil)

// Open opens (creating if needed) the database and runs migrations.
func Open(cfg Config) (*Store, error) {
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logger.Warn
	}
	diag := cfg.Diag
	if diag == nil {
		diag = slog.New(slog.DiscardHandler)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", cfg.Path)

	gormLogger := logger.New(
		slog.NewLogLogger(diag.Handler(), slog.LevelDebug),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  cfg.LogLevel,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One connection avoids "database is locked" under WAL.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(&Batch{}, &Generation{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RecordItem implements generator.Recorder.
func (s *Store) RecordItem(ctx context.Context, batchID string, item generator.ItemResult) error {
	row := Generation{
		BatchID:    batchID,
		Source:     item.Mapping.Source,
		Doc:        item.Mapping.Doc,
		Title:      item.Mapping.Title,
		Status:     string(item.Status),
		Agent:      string(item.Agent),
		Success:    item.Success,
		TimedOut:   item.TimedOut,
		Error:      item.Error,
		DurationMs: item.Duration.Milliseconds(),
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// RecordBatch implements generator.Recorder. Recording the same batch again
// updates its totals.
func (s *Store) RecordBatch(ctx context.Context, b generator.BatchResult) error {
	if b.BatchID == "" {
		return fmt.Errorf("batch ID is required")
	}
	row := Batch{
		ID:         b.BatchID,
		Operation:  string(b.Operation),
		StartedAt:  b.StartedAt,
		Succeeded:  b.Success,
		Failed:     b.Failed,
		Skipped:    b.Skipped,
		DurationMs: b.Duration.Milliseconds(),
		Errors:     strings.Join(b.Errors, "\n"),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"succeeded", "failed", "skipped", "duration_ms", "errors"}),
	}).Create(&row).Error
}

// RecentBatches returns up to limit batches, newest first.
func (s *Store) RecentBatches(ctx context.Context, limit int) ([]Batch, error) {
	var batches []Batch
	q := s.db.WithContext(ctx).Order("started_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// ErrAmbiguousID is returned when a batch ID prefix matches several batches.
var ErrAmbiguousID = errors.New("batch ID prefix is ambiguous")

// FindBatch returns the batch whose ID starts with prefix, or nil if none.
func (s *Store) FindBatch(ctx context.Context, prefix string) (*Batch, error) {
	var batches []Batch
	err := s.db.WithContext(ctx).
		Where("id LIKE ?", stripWildcards(prefix)+"%").
		Limit(2).
		Find(&batches).Error
	if err != nil {
		return nil, err
	}
	switch len(batches) {
	case 0:
		return nil, nil
	case 1:
		return &batches[0], nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrAmbiguousID, prefix)
	}
}

// Generations returns the items of a batch in processing order.
func (s *Store) Generations(ctx context.Context, batchID string) ([]Generation, error) {
	var gens []Generation
	if err := s.db.WithContext(ctx).Where("batch_id = ?", batchID).Order("id asc").Find(&gens).Error; err != nil {
		return nil, err
	}
	return gens, nil
}

// LastSuccess returns the most recent successful generation of doc, or nil.
func (s *Store) LastSuccess(ctx context.Context, doc string) (*Generation, error) {
	var gen Generation
	res := s.db.WithContext(ctx).Where("doc = ? AND success = ?", doc, true).Order("id desc").Take(&gen)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, res.Error
	}
	return &gen, nil
}

// Duration returns the batch duration.
func (b Batch) Duration() time.Duration {
	return time.Duration(b.DurationMs) * time.Millisecond
}

// Duration returns how long the item took.
func (g Generation) Duration() time.Duration {
	return time.Duration(g.DurationMs) * time.Millisecond
}

// ErrorList returns the batch's error lines.
func (b Batch) ErrorList() []string {
	if b.Errors == "" {
		return nil
	}
	return strings.Split(b.Errors, "\n")
}

func stripWildcards(s string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(s)
}
