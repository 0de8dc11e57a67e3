// Package history persists executed trades with their full signal context,
// for later analysis and model training.
package history

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Record is one executed (or dry-run) trade and the signals behind it.
type Record struct {
	ID        string `gorm:"primaryKey"`
	Bot       string `gorm:"index"`
	Ticker    string `gorm:"index"`
	Side      string // "yes" or "no"
	Action    string // "buy" or "sell"
	Price     int    // cents
	Count     int
	CostCents int
	Edge      int

	SpotTrend      string
	SpotConfidence float64
	SpotChange1h   float64
	FlowDirection  string
	FlowStrength   float64
	BidAskRatio    float64
	ConvergeProb   float64

	OrderID string
	DryRun  bool
	Pnl     decimal.Decimal `gorm:"type:decimal(20,6)"`
	Status  string          `gorm:"index"` // "open", "won", "lost"

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store wraps the trade-history database. A zero path disables persistence
// and turns every method into a no-op, so bots run fine without a DB.
type Store struct {
	db      *gorm.DB
	enabled bool
}

// Open connects to Postgres when the path is a postgres:// DSN, otherwise
// treats it as a SQLite file path. Empty path disables the store.
func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return &Store{}, nil
	}

	var db *gorm.DB
	var err error
	if strings.HasPrefix(dbPath, "postgres://") || strings.HasPrefix(dbPath, "postgresql://") {
		db, err = gorm.Open(postgres.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("Trade history connected (PostgreSQL)")
	} else {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, err
		}
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", dbPath).Msg("Trade history initialized (SQLite)")
	}

	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, err
	}
	return &Store{db: db, enabled: true}, nil
}

// Log saves one record.
func (s *Store) Log(rec *Record) error {
	if !s.enabled {
		return nil
	}
	return s.db.Create(rec).Error
}

// Update persists changes to an existing record.
func (s *Store) Update(rec *Record) error {
	if !s.enabled {
		return nil
	}
	return s.db.Save(rec).Error
}

// Recent returns the newest records, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	if !s.enabled {
		return nil, nil
	}
	var recs []Record
	err := s.db.Order("created_at DESC").Limit(limit).Find(&recs).Error
	return recs, err
}

// OpenTrades returns records still awaiting settlement.
func (s *Store) OpenTrades() ([]Record, error) {
	if !s.enabled {
		return nil, nil
	}
	var recs []Record
	err := s.db.Where("status = ?", "open").Order("created_at DESC").Find(&recs).Error
	return recs, err
}

// BotStats aggregates win/loss counts and total P&L for one bot.
func (s *Store) BotStats(bot string) (won, lost int64, pnl decimal.Decimal, err error) {
	if !s.enabled {
		return 0, 0, decimal.Zero, nil
	}
	if err = s.db.Model(&Record{}).Where("bot = ? AND status = ?", bot, "won").Count(&won).Error; err != nil {
		return
	}
	if err = s.db.Model(&Record{}).Where("bot = ? AND status = ?", bot, "lost").Count(&lost).Error; err != nil {
		return
	}
	var result struct{ Total decimal.Decimal }
	err = s.db.Model(&Record{}).Where("bot = ?", bot).
		Select("COALESCE(SUM(pnl), 0) as total").Scan(&result).Error
	pnl = result.Total
	return
}
