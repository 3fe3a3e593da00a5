package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Application
	Version     string
	Environment string
	WorkerID    string
	Port        int
	LogLevel    string

	// Logdy (lightweight web log viewer)
	LogdyEnabled bool
	LogdyHost    string
	LogdyPort    int

	// NATS (for category-B alert fan-out)
	NatsEnabled        bool
	NatsURL            string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int
	AlertsSubject      string

	// Simulation / replay
	SimulationMode    bool
	SimulationDataDir string
	ReplayAutoStart   bool
	ReplayStartDelay  time.Duration
	ReplaySpeed       float64

	// Gallery
	GalleryPath       string
	EmbeddingDim      int
	EchoBackEnabled   bool
	EchoBackThreshold float64

	// Identity resolution
	// Tight threshold for direct face-embedding matches, loose threshold
	// for the whole-person crop re-identification path.
	FaceMatchThreshold   float64
	PersonMatchThreshold float64
	VoteWindow           int

	// Tracker
	TrackerMaxAge       int
	TrackerInitHits     int
	TrackerIOUThreshold float64

	// Models (ONNX, loaded via gocv DNN)
	FaceDetectorModel   string
	FaceEmbedderModel   string
	PersonDetectorModel string
	DetectorInputSize   int

	// Offline batch processing
	VideoDir        string
	POIPath         string
	FrameSkip       int
	DefaultFPS      float64
	PersonDBPath    string
	FaceCropPad     int
	ShutdownTimeout time.Duration
}

// Derived locations under SimulationDataDir
func (c *Config) DetectionsDir() string { return filepath.Join(c.SimulationDataDir, "detections") }
func (c *Config) EmbeddingsDir() string { return filepath.Join(c.SimulationDataDir, "embeddings") }
func (c *Config) FacesDir() string      { return filepath.Join(c.SimulationDataDir, "faces") }
func (c *Config) TimelinePath() string  { return filepath.Join(c.SimulationDataDir, "timeline.json") }
func (c *Config) CriminalsPath() string { return filepath.Join(c.SimulationDataDir, "criminals.json") }

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	return &Config{
		// Application
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		WorkerID:    getEnv("WORKER_ID", "copcam-1"),
		Port:        getEnvInt("PORT", 8000),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Logdy
		LogdyEnabled: getEnvBool("LOGDY_ENABLED", false),
		LogdyHost:    getEnv("LOGDY_HOST", "localhost"),
		LogdyPort:    getEnvInt("LOGDY_PORT", 8080),

		// NATS
		NatsEnabled:        getEnvBool("NATS_ENABLED", false),
		NatsURL:            getNatsURL(),
		NatsConnectTimeout: getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:  getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  getEnvInt("NATS_MAX_RECONNECTS", -1), // -1 = unlimited
		AlertsSubject:      getEnv("ALERTS_SUBJECT", "copcam.alerts"),

		// Simulation
		SimulationMode:    getEnvBool("SIMULATION_MODE", false),
		SimulationDataDir: getEnv("SIMULATION_DATA_DIR", "simulation_data"),
		ReplayAutoStart:   getEnvBool("REPLAY_AUTO_START", true),
		ReplayStartDelay:  getEnvDuration("REPLAY_START_DELAY", 3*time.Second),
		ReplaySpeed:       getEnvFloat("REPLAY_SPEED", 1.0),

		// Gallery
		GalleryPath:       getEnv("GALLERY_PATH", "face_db/gallery.json"),
		EmbeddingDim:      getEnvInt("EMBEDDING_DIM", 512),
		EchoBackEnabled:   getEnvBool("GALLERY_ECHO_BACK", false),
		EchoBackThreshold: getEnvFloat("GALLERY_ECHO_BACK_THRESHOLD", 0.25),

		// Identity resolution
		FaceMatchThreshold:   getEnvFloat("FACE_MATCH_THRESHOLD", 0.40),
		PersonMatchThreshold: getEnvFloat("PERSON_MATCH_THRESHOLD", 0.80),
		VoteWindow:           getEnvInt("VOTE_WINDOW", 10),

		// Tracker
		TrackerMaxAge:       getEnvInt("TRACKER_MAX_AGE", 20),
		TrackerInitHits:     getEnvInt("TRACKER_INIT_HITS", 3),
		TrackerIOUThreshold: getEnvFloat("TRACKER_IOU_THRESHOLD", 0.3),

		// Models
		FaceDetectorModel:   getEnv("FACE_DETECTOR_MODEL", "models/det_500m.onnx"),
		FaceEmbedderModel:   getEnv("FACE_EMBEDDER_MODEL", "models/w600k_mbf.onnx"),
		PersonDetectorModel: getEnv("PERSON_DETECTOR_MODEL", "models/yolov8m.onnx"),
		DetectorInputSize:   getEnvInt("DETECTOR_INPUT_SIZE", 640),

		// Offline batch processing
		VideoDir:        getEnv("VIDEO_DIR", "cctv"),
		POIPath:         getEnv("POI_PATH", "poi.txt"),
		FrameSkip:       getEnvInt("FRAME_SKIP", 1),
		DefaultFPS:      getEnvFloat("DEFAULT_FPS", 30.0),
		PersonDBPath:    getEnv("PERSON_DB_PATH", "face_images_db/face_database.json"),
		FaceCropPad:     getEnvInt("FACE_CROP_PAD", 20),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Helper functions for Docker environment detection
func isRunningInDocker() bool {
	if os.Getenv("DOCKER_CONTAINER") == "true" {
		return true
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}

// getNatsURL returns the appropriate NATS URL based on environment
func getNatsURL() string {
	if envURL := os.Getenv("NATS_URL"); envURL != "" {
		return envURL
	}
	if isRunningInDocker() {
		return "nats://nats:4222"
	}
	return "nats://localhost:4222"
}
