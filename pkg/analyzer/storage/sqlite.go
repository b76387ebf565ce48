package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sevkunovoleksandr/librosa-api/pkg/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "librosa-api.sqlite3"

const errDBClientNil = "db client is nil"

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

// Analysis is the persisted row for one archived analysis summary.
type Analysis struct {
	ID            string `gorm:"primaryKey;type:varchar(36)"`
	SongLabel     string `gorm:"index:idx_analysis_meta,priority:1" json:"song_label"`
	Artist        string `gorm:"index:idx_analysis_meta,priority:2" json:"artist"`
	Genre         string `json:"genre"`
	Tempo         float64
	DurationSec   float64
	BeatCount     int
	OnsetCount    int
	DownbeatCount int
	CreatedAt     time.Time
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("ANALYZER_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Analysis{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *DBClient) SaveAnalysis(rec *models.AnalysisRecord) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	row := Analysis{
		ID:            rec.ID,
		SongLabel:     rec.SongLabel,
		Artist:        rec.Artist,
		Genre:         rec.Genre,
		Tempo:         rec.Tempo,
		DurationSec:   rec.DurationSec,
		BeatCount:     rec.BeatCount,
		OnsetCount:    rec.OnsetCount,
		DownbeatCount: rec.DownbeatCount,
	}
	if err := c.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("saving analysis: %w", err)
	}
	rec.CreatedAt = row.CreatedAt
	return nil
}

func (c *DBClient) ListAnalyses() ([]models.AnalysisRecord, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var rows []Analysis
	if err := c.DB.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	records := make([]models.AnalysisRecord, len(rows))
	for i, row := range rows {
		records[i] = row.toRecord()
	}
	return records, nil
}

func (c *DBClient) GetAnalysisByID(id string) (*models.AnalysisRecord, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var row Analysis
	if err := c.DB.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("analysis %s not found", id)
		}
		return nil, fmt.Errorf("querying analysis: %w", err)
	}
	rec := row.toRecord()
	return &rec, nil
}

func (c *DBClient) DeleteAnalysisByID(id string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	res := c.DB.Delete(&Analysis{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("deleting analysis: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("analysis %s not found", id)
	}
	return nil
}

func (c *DBClient) CountAnalyses() (int64, error) {
	if c == nil || c.DB == nil {
		return 0, errors.New(errDBClientNil)
	}
	var count int64
	if err := c.DB.Model(&Analysis{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting analyses: %w", err)
	}
	return count, nil
}

func (a Analysis) toRecord() models.AnalysisRecord {
	return models.AnalysisRecord{
		ID:            a.ID,
		SongLabel:     a.SongLabel,
		Artist:        a.Artist,
		Genre:         a.Genre,
		Tempo:         a.Tempo,
		DurationSec:   a.DurationSec,
		BeatCount:     a.BeatCount,
		OnsetCount:    a.OnsetCount,
		DownbeatCount: a.DownbeatCount,
		CreatedAt:     a.CreatedAt,
	}
}
