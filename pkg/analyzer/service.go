package analyzer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sevkunovoleksandr/librosa-api/pkg/analyzer/audio"
	"github.com/sevkunovoleksandr/librosa-api/pkg/analyzer/feature"
	"github.com/sevkunovoleksandr/librosa-api/pkg/analyzer/render"
	"github.com/sevkunovoleksandr/librosa-api/pkg/analyzer/rhythm"
	"github.com/sevkunovoleksandr/librosa-api/pkg/analyzer/storage"
	"github.com/sevkunovoleksandr/librosa-api/pkg/analyzer/timeline"
	"github.com/sevkunovoleksandr/librosa-api/pkg/logger"
	"github.com/sevkunovoleksandr/librosa-api/pkg/models"
	"github.com/sevkunovoleksandr/librosa-api/pkg/utils"
)

// analysisService is the default implementation of the Service interface.
// It orchestrates the pipeline stages in dependency order and substitutes
// safe defaults for every non-fatal failure.
type analysisService struct {
	storage  Storage
	log      Logger
	config   *Config
	downbeat rhythm.Detector // nil when the capability is absent
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	var stor Storage
	var err error
	if cfg.Storage != nil {
		stor = cfg.Storage
	} else {
		stor, err = storage.NewDBClientWithPath(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	s := &analysisService{
		storage: stor,
		log:     cfg.Logger,
		config:  cfg,
	}

	// Capability probe: resolved exactly once per process. All requests in
	// this service's lifetime see the same branch.
	if cfg.DownbeatTracking {
		s.downbeat = rhythm.NewBarTracker(cfg.BeatsPerBar)
		s.log.Infof("downbeat tracking enabled (%s, %d beats per bar)", s.downbeat.Name(), cfg.BeatsPerBar)
	} else {
		s.log.Warnf("downbeat tracking unavailable; reports will carry empty downbeats")
	}

	return s, nil
}

func (s *analysisService) DownbeatCapable() bool { return s.downbeat != nil }

// AnalyzeBuffer buffers one uploaded file and runs the full pipeline on it.
func (s *analysisService) AnalyzeBuffer(ctx context.Context, data []byte, name string) (*Report, error) {
	if len(data) == 0 {
		return nil, &audio.DecodeError{Reason: "empty input"}
	}
	if err := utils.MakeDir(s.config.TempDir); err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}

	base := filepath.Base(name)
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	tmpPath := filepath.Join(s.config.TempDir, fmt.Sprintf("analyze_%d_%s", time.Now().UnixNano(), base))
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("buffering upload: %w", err)
	}
	defer os.Remove(tmpPath)

	return s.AnalyzeFile(ctx, tmpPath)
}

// AnalyzeFile runs the full pipeline on an audio file. Decode failure is the
// only fatal input error; metadata, downbeats and rendering degrade to
// empty values.
func (s *analysisService) AnalyzeFile(ctx context.Context, path string) (*Report, error) {
	meta, err := audio.ReadMetadata(ctx, path)
	if err != nil {
		s.log.Warnf("metadata extraction failed for %s: %v", filepath.Base(path), err)
		meta = &audio.Metadata{}
	}

	wave, err := audio.DecodeFile(ctx, path, s.config.TempDir, s.config.SampleRate)
	if err != nil {
		return nil, err
	}
	s.log.Infof("decoded %s: %.2fs at %d Hz", filepath.Base(path), wave.Duration(), wave.SampleRate)

	report, err := s.analyzeWaveform(wave, meta)
	if err != nil {
		return nil, err
	}

	s.archive(report)
	return report, nil
}

// AnalyzeYouTube downloads a video's audio via yt-dlp and analyzes it,
// preferring the video metadata over container tags.
func (s *analysisService) AnalyzeYouTube(ctx context.Context, youtubeURL string) (*Report, error) {
	downloadedPath, ytMeta, err := audio.DownloadYouTubeAudio(ctx, youtubeURL, s.config.TempDir)
	if err != nil {
		return nil, fmt.Errorf("youtube download failed: %w", err)
	}
	defer os.Remove(downloadedPath)

	report, err := s.AnalyzeFile(ctx, downloadedPath)
	if err != nil {
		return nil, err
	}

	if report.SongLabel == "" {
		report.SongLabel = ytMeta.Title
	}
	if report.Artist == "" {
		report.Artist = ytMeta.Artist
	}
	if report.Genre == "" {
		report.Genre = ytMeta.Genre
	}
	return report, nil
}

// analyzeWaveform chains the numeric stages. Any panic inside them is
// converted to an InternalError; the input is deterministic so the request
// fails rather than retrying.
func (s *analysisService) analyzeWaveform(wave *audio.Waveform, meta *audio.Metadata) (report *Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			report, err = nil, &InternalError{Stage: "pipeline", Err: fmt.Errorf("%v", r)}
		}
	}()

	cfg := s.config
	duration := wave.Duration()

	spec := feature.STFT(wave.Samples, cfg.FrameSize, cfg.HopSize)
	env := feature.OnsetEnvelope(spec)

	onsets := feature.DetectOnsets(env, wave.SampleRate, cfg.HopSize)
	tempo := rhythm.EstimateTempo(env, wave.SampleRate, cfg.HopSize)
	beats := rhythm.TrackBeats(env, wave.SampleRate, cfg.HopSize, tempo)
	s.log.Infof("tempo %.2f BPM, %d beats, %d onsets", tempo, len(beats), len(onsets))

	plp := feature.PLP(env, wave.SampleRate, cfg.HopSize)
	frameRate := float64(wave.SampleRate) / float64(cfg.HopSize)
	var plpBeats []float64
	for _, i := range feature.LocalMaxima(plp) {
		plpBeats = append(plpBeats, float64(i)/frameRate)
	}

	rms := feature.RMS(wave.Samples, cfg.RMSFrameSize, cfg.RMSHopSize)

	harm, perc := feature.HPSS(spec)
	harmEnv := feature.ComponentEnvelope(harm)
	percEnv := feature.ComponentEnvelope(perc)

	downbeats := []float64{}
	if s.downbeat != nil {
		db, dbErr := s.downbeat.Downbeats(wave, beats)
		if dbErr != nil {
			s.log.Warnf("downbeat tracking failed: %v", dbErr)
		} else if db != nil {
			downbeats = db
		}
		if len(downbeats) == 0 {
			s.log.Warnf("no downbeats found within duration")
		}
	}

	events := timeline.Build(onsets, beats, downbeats)

	imageBase64 := ""
	img, renderErr := render.ComposeBase64(render.Input{
		Duration:   duration,
		OnsetEnv:   env,
		PLP:        plp,
		Harmonic:   harmEnv,
		Percussive: percEnv,
		FrameRate:  frameRate,
		Beats:      beats,
		PLPBeats:   plpBeats,
		Downbeats:  downbeats,
		Samples:    wave.Samples,
		SampleRate: wave.SampleRate,
	}, render.Options{Width: cfg.PlotWidth, PanelHeight: cfg.PanelHeight})
	if renderErr != nil {
		s.log.Warnf("visualization failed, returning report without image: %v", renderErr)
	} else {
		imageBase64 = img
	}

	return &Report{
		Tempo:       tempo,
		BeatTimes:   nonNil(beats),
		OnsetTimes:  nonNil(onsets),
		RMS:         nonNil(rms),
		Duration:    duration,
		Downbeats:   downbeats,
		ImageBase64: imageBase64,
		Speed:       tempo,
		Length:      duration,
		Events:      events,
		SongLabel:   meta.Title,
		Artist:      meta.Artist,
		Genre:       meta.Genre,
	}, nil
}

// archive persists the report summary. Failures are logged, never surfaced:
// the report already exists and the pipeline owes the caller nothing more.
func (s *analysisService) archive(report *Report) {
	rec := &models.AnalysisRecord{
		ID:            uuid.NewString(),
		SongLabel:     report.SongLabel,
		Artist:        report.Artist,
		Genre:         report.Genre,
		Tempo:         report.Tempo,
		DurationSec:   report.Duration,
		BeatCount:     len(report.BeatTimes),
		OnsetCount:    len(report.OnsetTimes),
		DownbeatCount: len(report.Downbeats),
	}
	if err := s.storage.SaveAnalysis(rec); err != nil {
		s.log.Warnf("failed to archive analysis: %v", err)
	}
}

func (s *analysisService) ListAnalyses() ([]models.AnalysisRecord, error) {
	return s.storage.ListAnalyses()
}

func (s *analysisService) GetAnalysis(id string) (*models.AnalysisRecord, error) {
	return s.storage.GetAnalysisByID(id)
}

func (s *analysisService) DeleteAnalysis(id string) error {
	return s.storage.DeleteAnalysisByID(id)
}

func (s *analysisService) Close() error {
	return s.storage.Close()
}

func nonNil(x []float64) []float64 {
	if x == nil {
		return []float64{}
	}
	return x
}
