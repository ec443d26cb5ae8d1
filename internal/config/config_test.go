package config

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

// setEnv sets an environment variable, ignoring errors (for test setup)
func setEnv(key, value string) {
	_ = os.Setenv(key, value)
}

// unsetEnv unsets an environment variable, ignoring errors (for test cleanup)
func unsetEnv(key string) {
	_ = os.Unsetenv(key)
}

var managedEnv = []string{
	"OPENAI_API_KEY", "S3_BUCKET", "AUDIT_DB_PATH", "LOG_LEVEL", "LOG_FORMAT",
	"EMBEDDING_DIMENSIONS", "MAX_CHUNK_SIZE", "CHUNK_OVERLAP", "LLM_TIMEOUT",
	"ENTITY_SAME_AS_THRESHOLD", "ENTITY_SIMILAR_THRESHOLD", "S3_USE_PATH_STYLE",
	"QDRANT_COLLECTION", "DOC_SIMILARITY_THRESHOLD",
}

func TestLoad(t *testing.T) {
	originalEnv := make(map[string]string)
	for _, key := range managedEnv {
		originalEnv[key] = os.Getenv(key)
		unsetEnv(key)
	}
	defer func() {
		for key, value := range originalEnv {
			if value != "" {
				setEnv(key, value)
			} else {
				unsetEnv(key)
			}
		}
	}()

	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		wantErr     bool
		checkConfig func(*Config) bool
	}{
		{
			name: "defaults with required fields",
			setupEnv: func(t *testing.T) {
				setEnv("OPENAI_API_KEY", "sk-test")
				setEnv("S3_BUCKET", "docs")
				setEnv("AUDIT_DB_PATH", t.TempDir()+"/audit.db")
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.EmbeddingDimensions == 1536 &&
					cfg.ChunkSize == 500 &&
					cfg.ChunkOverlap == 50 &&
					cfg.QdrantCollection == "documind_chunks" &&
					cfg.EmbeddingBatchSize == 100 &&
					cfg.EmbeddingBatchDelay == 100*time.Millisecond &&
					cfg.LogLevel == slog.LevelInfo &&
					cfg.Thresholds == DefaultThresholds()
			},
		},
		{
			name: "overrides",
			setupEnv: func(t *testing.T) {
				setEnv("OPENAI_API_KEY", "sk-test")
				setEnv("S3_BUCKET", "docs")
				setEnv("AUDIT_DB_PATH", t.TempDir()+"/audit.db")
				setEnv("LOG_LEVEL", "debug")
				setEnv("LOG_FORMAT", "json")
				setEnv("EMBEDDING_DIMENSIONS", "768")
				setEnv("LLM_TIMEOUT", "5s")
				setEnv("DOC_SIMILARITY_THRESHOLD", "0.5")
				setEnv("S3_USE_PATH_STYLE", "true")
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.EmbeddingDimensions == 768 &&
					cfg.LLMTimeout == 5*time.Second &&
					cfg.LogLevel == slog.LevelDebug &&
					cfg.LogFormat == "json" &&
					cfg.Thresholds.DocumentSimilarity == 0.5 &&
					cfg.S3UsePathStyle
			},
		},
		{
			name: "missing OPENAI_API_KEY",
			setupEnv: func(t *testing.T) {
				setEnv("S3_BUCKET", "docs")
			},
			wantErr: true,
		},
		{
			name: "missing S3_BUCKET",
			setupEnv: func(t *testing.T) {
				setEnv("OPENAI_API_KEY", "sk-test")
			},
			wantErr: true,
		},
		{
			name: "invalid integer",
			setupEnv: func(t *testing.T) {
				setEnv("OPENAI_API_KEY", "sk-test")
				setEnv("S3_BUCKET", "docs")
				setEnv("EMBEDDING_DIMENSIONS", "wide")
			},
			wantErr: true,
		},
		{
			name: "overlap not below chunk size",
			setupEnv: func(t *testing.T) {
				setEnv("OPENAI_API_KEY", "sk-test")
				setEnv("S3_BUCKET", "docs")
				setEnv("MAX_CHUNK_SIZE", "50")
				setEnv("CHUNK_OVERLAP", "50")
			},
			wantErr: true,
		},
		{
			name: "similar threshold above same-as threshold",
			setupEnv: func(t *testing.T) {
				setEnv("OPENAI_API_KEY", "sk-test")
				setEnv("S3_BUCKET", "docs")
				setEnv("ENTITY_SAME_AS_THRESHOLD", "0.5")
				setEnv("ENTITY_SIMILAR_THRESHOLD", "0.7")
			},
			wantErr: true,
		},
		{
			name: "invalid duration",
			setupEnv: func(t *testing.T) {
				setEnv("OPENAI_API_KEY", "sk-test")
				setEnv("S3_BUCKET", "docs")
				setEnv("LLM_TIMEOUT", "soon")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range managedEnv {
				unsetEnv(key)
			}
			tt.setupEnv(t)

			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			if tt.checkConfig != nil && !tt.checkConfig(cfg) {
				t.Errorf("Load() config check failed: %+v", cfg)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	key := "DOCUMIND_TEST_GETENV"
	unsetEnv(key)
	defer unsetEnv(key)

	if got := getEnv(key, "fallback"); got != "fallback" {
		t.Errorf("getEnv() = %q, want fallback", got)
	}
	setEnv(key, "set")
	if got := getEnv(key, "fallback"); got != "set" {
		t.Errorf("getEnv() = %q, want set", got)
	}
}

func TestConfig_MaxFileSizeBytes(t *testing.T) {
	cfg := &Config{MaxFileSizeMB: 10}
	if got := cfg.MaxFileSizeBytes(); got != 10*1024*1024 {
		t.Errorf("MaxFileSizeBytes() = %d, want %d", got, 10*1024*1024)
	}
}
