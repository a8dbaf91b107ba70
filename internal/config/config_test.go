package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "default values",
			env:  map[string]string{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Port != "8080" {
					t.Errorf("expected port 8080, got %s", cfg.Port)
				}
				if cfg.LogLevel != "info" {
					t.Errorf("expected log level info, got %s", cfg.LogLevel)
				}
				if cfg.IngestPolicy != "reject-batch" {
					t.Errorf("expected reject-batch default, got %s", cfg.IngestPolicy)
				}
				if cfg.MaxUploadBytes != 10000000 {
					t.Errorf("expected 10MB upload ceiling, got %d", cfg.MaxUploadBytes)
				}
				if cfg.WSReadTimeout != 60*time.Second {
					t.Errorf("expected WSReadTimeout 60s, got %v", cfg.WSReadTimeout)
				}
			},
		},
		{
			name: "custom values",
			env: map[string]string{
				"PORT":             "9000",
				"LOG_LEVEL":        "debug",
				"INGEST_POLICY":    "skip-row",
				"MAX_UPLOAD_BYTES": "1024",
				"JWT_SECRET":       "s3cret",
				"WS_READ_TIMEOUT":  "30",
				"WS_WRITE_TIMEOUT": "5",
				"ALLOWED_ORIGINS":  "http://example.com, http://test.com",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Port != "9000" {
					t.Errorf("expected port 9000, got %s", cfg.Port)
				}
				if cfg.IngestPolicy != "skip-row" {
					t.Errorf("expected skip-row, got %s", cfg.IngestPolicy)
				}
				if cfg.MaxUploadBytes != 1024 {
					t.Errorf("expected 1024, got %d", cfg.MaxUploadBytes)
				}
				if cfg.JWTSecret != "s3cret" {
					t.Errorf("expected custom secret, got %s", cfg.JWTSecret)
				}
				if cfg.WSReadTimeout != 30*time.Second {
					t.Errorf("expected WSReadTimeout 30s, got %v", cfg.WSReadTimeout)
				}
				if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://test.com" {
					t.Errorf("unexpected origins: %v", cfg.AllowedOrigins)
				}
			},
		},
		{
			name:    "invalid MAX_UPLOAD_BYTES",
			env:     map[string]string{"MAX_UPLOAD_BYTES": "lots"},
			wantErr: true,
		},
		{
			name:    "invalid WS_READ_TIMEOUT",
			env:     map[string]string{"WS_READ_TIMEOUT": "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.env {
				os.Setenv(k, v)
			}
			defer os.Clearenv()

			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}
