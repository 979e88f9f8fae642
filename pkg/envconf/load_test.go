package envconf

import (
	"errors"
	"testing"
	"time"
)

type nestedPG struct {
	DSN          string `env:"CFG_TEST_PG_DSN"`
	MaxOpenConns int    `env:"CFG_TEST_PG_MAX_OPEN" default:"10"`
}

type testConfig struct {
	Port     uint16        `env:"CFG_TEST_PORT" default:"8080"`
	Secret   string        `env:"CFG_TEST_SECRET"`
	Interval time.Duration `env:"CFG_TEST_INTERVAL" default:"60s"`
	Postgres nestedPG
}

func TestLoad_DefaultsAndRequired(t *testing.T) {
	tests := []struct {
		name    string
		setenv  map[string]string
		wantErr error
		check   func(t *testing.T, cfg *testConfig)
	}{
		{
			name: "defaults_fill_unset_vars",
			setenv: map[string]string{
				"CFG_TEST_SECRET": "s3cret",
				"CFG_TEST_PG_DSN": "postgres://localhost/db",
			},
			check: func(t *testing.T, cfg *testConfig) {
				if cfg.Port != 8080 {
					t.Fatalf("port default: want 8080, got %d", cfg.Port)
				}
				if cfg.Interval != 60*time.Second {
					t.Fatalf("interval default: want 60s, got %s", cfg.Interval)
				}
				if cfg.Postgres.MaxOpenConns != 10 {
					t.Fatalf("nested default: want 10, got %d", cfg.Postgres.MaxOpenConns)
				}
			},
		},
		{
			name: "env_overrides_default",
			setenv: map[string]string{
				"CFG_TEST_SECRET":   "s3cret",
				"CFG_TEST_PG_DSN":   "postgres://localhost/db",
				"CFG_TEST_PORT":     "9090",
				"CFG_TEST_INTERVAL": "250ms",
			},
			check: func(t *testing.T, cfg *testConfig) {
				if cfg.Port != 9090 {
					t.Fatalf("port: want 9090, got %d", cfg.Port)
				}
				if cfg.Interval != 250*time.Millisecond {
					t.Fatalf("interval: want 250ms, got %s", cfg.Interval)
				}
			},
		},
		{
			name: "required_without_default_fails",
			setenv: map[string]string{
				"CFG_TEST_PG_DSN": "postgres://localhost/db",
			},
			wantErr: ErrMissingRequired,
		},
		{
			name: "required_in_nested_struct_fails",
			setenv: map[string]string{
				"CFG_TEST_SECRET": "s3cret",
			},
			wantErr: ErrMissingRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.setenv {
				t.Setenv(k, v)
			}

			cfg := new(testConfig)
			err := Load(cfg)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
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

func TestLoad_RejectsNonStruct(t *testing.T) {
	err := Load(nil)
	if err == nil {
		t.Fatal("expected error for nil destination")
	}

	var s string
	err = Load(&s)
	if err == nil {
		t.Fatal("expected error for non-struct destination")
	}
}
