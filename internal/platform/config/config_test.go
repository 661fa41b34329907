// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/crate/internal/platform/config"
)

/*
TestLoad_Defaults verifies default values with only the required variables set.
*/
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_PUBLIC_KEY_PATH", "/keys/public.pem")
	t.Setenv("DATABASE_URL", "postgres://localhost/crate")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, config.DriverPostgres, cfg.StorageDriver)
	assert.True(t, cfg.UsesPostgres())
	assert.True(t, cfg.RunMigrations)
	assert.True(t, cfg.DuplicateCheckOnUpdate)
	assert.Equal(t, 10*time.Minute, cfg.NameCacheTTL)
	assert.True(t, cfg.IsDevelopment())
}

/*
TestLoad_MissingPublicKey verifies that required variables are enforced.
*/
func TestLoad_MissingPublicKey(t *testing.T) {
	t.Setenv("JWT_PUBLIC_KEY_PATH", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/crate")

	_, err := config.Load()
	assert.Error(t, err)
}

/*
TestValidate covers the cross-field storage rules.
*/
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{"postgres_with_url", config.Config{StorageDriver: config.DriverPostgres, DatabaseURL: "postgres://x"}, false},
		{"postgres_without_url", config.Config{StorageDriver: config.DriverPostgres}, true},
		{"memory_without_url", config.Config{StorageDriver: config.DriverMemory}, false},
		{"unknown_driver", config.Config{StorageDriver: "sqlite"}, true},
		{"negative_ttl", config.Config{StorageDriver: config.DriverMemory, NameCacheTTL: -time.Second}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExtraOriginList(t *testing.T) {
	cfg := config.Config{ExtraOrigins: " https://a.example, ,https://b.example"}
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.ExtraOriginList())
	assert.Nil(t, (&config.Config{}).ExtraOriginList())
}
