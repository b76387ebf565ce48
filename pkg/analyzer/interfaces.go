package analyzer

import (
	"context"

	"github.com/sevkunovoleksandr/librosa-api/pkg/models"
)

type Service interface {
	AnalyzeFile(ctx context.Context, path string) (*Report, error)
	AnalyzeBuffer(ctx context.Context, data []byte, name string) (*Report, error)
	AnalyzeYouTube(ctx context.Context, youtubeURL string) (*Report, error)
	ListAnalyses() ([]models.AnalysisRecord, error)
	GetAnalysis(id string) (*models.AnalysisRecord, error)
	DeleteAnalysis(id string) error
	DownbeatCapable() bool
	Close() error
}

type Storage interface {
	SaveAnalysis(rec *models.AnalysisRecord) error
	ListAnalyses() ([]models.AnalysisRecord, error)
	GetAnalysisByID(id string) (*models.AnalysisRecord, error)
	DeleteAnalysisByID(id string) error
	CountAnalyses() (int64, error)
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
