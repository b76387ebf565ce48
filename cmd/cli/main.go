package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sevkunovoleksandr/librosa-api/pkg/analyzer"
	"github.com/sevkunovoleksandr/librosa-api/pkg/logger"
)

// Global flags
var (
	dbPath     string
	tempDir    string
	sampleRate int
	downbeats  bool
)

func init() {
	// Global flags that can be used with any command
	flag.StringVar(&dbPath, "db", getEnvOrDefault("ANALYZER_DB_PATH", "librosa-api.sqlite3"), "Path to the SQLite database file")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("ANALYZER_TEMP_DIR", "/tmp"), "Directory for temporary audio conversion files")
	flag.IntVar(&sampleRate, "rate", 22050, "Audio sample rate for processing")
	flag.BoolVar(&downbeats, "downbeats", true, "Enable downbeat tracking")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// createService creates a new analyzer service with configured options
func createService() (analyzer.Service, error) {
	return analyzer.NewService(
		analyzer.WithDBPath(dbPath),
		analyzer.WithTempDir(tempDir),
		analyzer.WithSampleRate(sampleRate),
		analyzer.WithDownbeatTracking(downbeats),
	)
}

func main() {
	// Initialize logger
	log := logger.GetLogger()

	// Print banner
	printBanner()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	log.Infof("Executing command: %s", command)

	switch command {
	case "analyze":
		handleAnalyze()
	case "list":
		handleList()
	case "delete":
		handleDelete()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printBanner() {
	banner := `
 _     _ _                           _    ____ ___
| |   (_) |__  _ __ ___  ___  __ _  / \  |  _ \_ _|
| |   | | '_ \| '__/ _ \/ __|/ _' |/ _ \ | |_) | |
| |___| | |_) | | | (_) \__ \ (_| / ___ \|  __/| |
|_____|_|_.__/|_|  \___/|___/\__,/_/   \_\_|  |___|

          Rhythm & Beat Analysis CLI Tool
`
	fmt.Println(banner)
}

func handleAnalyze() {
	log := logger.GetLogger()

	// Manually extract audio file and flags
	args := os.Args[2:]
	var audioPath string
	var flagArgs []string

	// Separate the audio file path from flags
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") && audioPath == "" {
			audioPath = arg
		} else {
			flagArgs = append(flagArgs, args[i:]...)
			break
		}
	}

	// Parse flags
	analyzeCmd := flag.NewFlagSet("analyze", flag.ExitOnError)
	youtubeURL := analyzeCmd.String("youtube-url", "", "YouTube URL to download and analyze (alternative to audio file)")
	jsonOut := analyzeCmd.String("json", "", "Write the full analysis report as JSON to this file (- for stdout)")
	imageOut := analyzeCmd.String("image", "", "Write the rendered analysis plot as PNG to this file")

	analyzeCmd.Parse(flagArgs)

	var isYouTubeMode bool
	if *youtubeURL != "" {
		isYouTubeMode = true
		if audioPath != "" {
			fmt.Println("Error: cannot specify both audio file and --youtube-url")
			log.Error("Both audio file and --youtube-url specified")
			os.Exit(1)
		}
	} else if audioPath == "" {
		fmt.Println("Error: audio file path or --youtube-url required")
		fmt.Println("Usage: librosa-api analyze <audio_file> [--json out.json] [--image out.png]")
		fmt.Println("   OR: librosa-api analyze --youtube-url <url> [--json out.json] [--image out.png]")
		os.Exit(1)
	}

	fmt.Println("\n🔧 Initializing service...")
	svc, err := createService()
	if err != nil {
		fmt.Printf("❌ Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var report *analyzer.Report
	if isYouTubeMode {
		fmt.Println("📥 Downloading and analyzing audio from YouTube...")
		fmt.Println("   This may take a few moments depending on video length")
		report, err = svc.AnalyzeYouTube(ctx, *youtubeURL)
	} else {
		fmt.Println("🎵 Analyzing audio file...")
		fmt.Println("   This may take a few moments for large files")
		report, err = svc.AnalyzeFile(ctx, audioPath)
	}
	if err != nil {
		fmt.Printf("\n❌ Analysis failed: %v\n", err)
		log.Errorf("Analysis failed: %v", err)
		os.Exit(1)
	}

	printReport(report)

	if *jsonOut != "" {
		if err := writeReportJSON(report, *jsonOut); err != nil {
			fmt.Printf("❌ Failed to write JSON report: %v\n", err)
			log.Errorf("Writing JSON report failed: %v", err)
			os.Exit(1)
		}
		if *jsonOut != "-" {
			fmt.Printf("💾 JSON report written to %s\n", *jsonOut)
		}
	}

	if *imageOut != "" {
		if err := writeReportImage(report, *imageOut); err != nil {
			fmt.Printf("❌ Failed to write plot image: %v\n", err)
			log.Errorf("Writing plot image failed: %v", err)
			os.Exit(1)
		}
		fmt.Printf("🖼  Plot image written to %s\n", *imageOut)
	}
}

func printReport(report *analyzer.Report) {
	fmt.Println("\n✅ Analysis complete!")
	if report.SongLabel != "" {
		label := report.SongLabel
		if report.Artist != "" {
			label = fmt.Sprintf("%s by %s", label, report.Artist)
		}
		fmt.Printf("   Track:     %s\n", label)
	}
	fmt.Printf("   Tempo:     %.1f BPM\n", report.Tempo)
	fmt.Printf("   Duration:  %.1f s\n", report.Duration)
	fmt.Printf("   Beats:     %d\n", len(report.BeatTimes))
	fmt.Printf("   Onsets:    %d\n", len(report.OnsetTimes))
	if len(report.Downbeats) > 0 {
		fmt.Printf("   Downbeats: %d\n", len(report.Downbeats))
	}
	fmt.Printf("   Events:    %d\n", len(report.Events))

	maxDisplay := 8
	if len(report.BeatTimes) > 0 {
		fmt.Println("\n🥁 First beats:")
		n := len(report.BeatTimes)
		if n > maxDisplay {
			n = maxDisplay
		}
		for i := 0; i < n; i++ {
			fmt.Printf("   %d. %.3f s\n", i+1, report.BeatTimes[i])
		}
		if len(report.BeatTimes) > maxDisplay {
			fmt.Printf("   ... and %d more beats\n", len(report.BeatTimes)-maxDisplay)
		}
	}
}

func writeReportJSON(report *analyzer.Report, path string) error {
	out := os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func writeReportImage(report *analyzer.Report, path string) error {
	if report.ImageBase64 == "" {
		return fmt.Errorf("analysis produced no plot image")
	}
	data, err := base64.StdEncoding.DecodeString(report.ImageBase64)
	if err != nil {
		return fmt.Errorf("decoding plot image: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func handleList() {
	log := logger.GetLogger()

	svc, err := createService()
	if err != nil {
		fmt.Printf("❌ Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	analyses, err := svc.ListAnalyses()
	if err != nil {
		fmt.Printf("❌ Failed to list analyses: %v\n", err)
		log.Errorf("ListAnalyses failed: %v", err)
		os.Exit(1)
	}

	if len(analyses) == 0 {
		fmt.Println("\n📭 No analyses in database")
		log.Info("No analyses in database")
		return
	}

	fmt.Printf("\n📚 Found %d analysis record(s):\n\n", len(analyses))
	for i, a := range analyses {
		label := a.SongLabel
		if label == "" {
			label = "(untitled)"
		}
		if a.Artist != "" {
			label = fmt.Sprintf("%s by %s", label, a.Artist)
		}
		fmt.Printf("%d. %s (ID: %s)\n", i+1, label, a.ID)
		fmt.Printf("   Tempo: %.1f BPM | Duration: %.1f s | Beats: %d | Onsets: %d\n",
			a.Tempo, a.DurationSec, a.BeatCount, a.OnsetCount)
		fmt.Printf("   Analyzed: %s\n", a.CreatedAt.Format(time.RFC3339))
		fmt.Println()
	}
	log.Infof("Listed %d analyses", len(analyses))
}

func handleDelete() {
	log := logger.GetLogger()

	if len(os.Args) < 3 {
		fmt.Println("Usage: librosa-api delete <analysis_id>")
		os.Exit(1)
	}

	id := os.Args[2]

	svc, err := createService()
	if err != nil {
		fmt.Printf("❌ Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	// Get record info before deletion
	rec, err := svc.GetAnalysis(id)
	if err != nil {
		fmt.Printf("❌ Analysis not found (ID: %s)\n", id)
		log.Warnf("Analysis %s not found: %v", id, err)
		os.Exit(1)
	}

	// Delete
	if err := svc.DeleteAnalysis(id); err != nil {
		fmt.Printf("❌ Failed to delete analysis: %v\n", err)
		log.Errorf("DeleteAnalysis failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("\n✅ Successfully deleted analysis:\n")
	fmt.Printf("   ID:    %s\n", rec.ID)
	fmt.Printf("   Track: %s\n", rec.SongLabel)
	fmt.Printf("   Tempo: %.1f BPM\n", rec.Tempo)
	log.Infof("Deleted analysis ID=%s ('%s')", rec.ID, rec.SongLabel)
}

func printUsage() {
	fmt.Println("Librosa API - Rhythm & Beat Analysis CLI")
	fmt.Println("\nGlobal Options:")
	fmt.Println("  --db <path>        Path to SQLite database (env: ANALYZER_DB_PATH, default: librosa-api.sqlite3)")
	fmt.Println("  --temp <dir>       Temporary directory for audio conversion (env: ANALYZER_TEMP_DIR, default: /tmp)")
	fmt.Println("  --rate <hz>        Audio sample rate (default: 22050)")
	fmt.Println("  --downbeats        Enable downbeat tracking (default: true)")
	fmt.Println("\nUsage:")
	fmt.Println("  librosa-api [global-options] analyze <audio_file> [--json out.json] [--image out.png]")
	fmt.Println("  librosa-api [global-options] analyze --youtube-url <url> [--json out.json] [--image out.png]")
	fmt.Println("  librosa-api [global-options] list")
	fmt.Println("  librosa-api [global-options] delete <analysis_id>")
	fmt.Println("\nExamples:")
	fmt.Println("  # Analyze a local file and print the summary")
	fmt.Println("  librosa-api analyze track.mp3")
	fmt.Println()
	fmt.Println("  # Analyze and save the full report plus the plot image")
	fmt.Println("  librosa-api analyze track.wav --json report.json --image plot.png")
	fmt.Println()
	fmt.Println("  # Analyze audio from a YouTube URL")
	fmt.Println("  librosa-api analyze --youtube-url \"https://youtube.com/watch?v=dQw4w9WgXcQ\"")
	fmt.Println()
	fmt.Println("  # List archived analyses")
	fmt.Println("  librosa-api --db mydb.sqlite3 list")
}
