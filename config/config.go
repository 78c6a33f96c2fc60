/*
 *  Copyright (c) 2025, WSO2 LLC. (http://www.wso2.org) All Rights Reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 *
 */

package config

import (
	"fmt"
	"sync"

	"github.com/kelseyhightower/envconfig"
)

// Server holds the configuration parameters for the application.
type Server struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"DEBUG"`

	// Server configurations
	Port string `envconfig:"PORT" default:"9443"`

	// Database configurations
	Database     Database `envconfig:"DATABASE"`
	DBSchemaPath string   `envconfig:"DB_SCHEMA_PATH" default:"./internal/database/schema.sql"`

	// JWT Authentication configurations
	JWT JWT `envconfig:"JWT"`

	// Key custody configurations
	KMS   KMS   `envconfig:"KMS"`
	Cache Cache `envconfig:"CACHE"`

	// USDA NASS Quick Stats client configurations
	Nass Nass `envconfig:"NASS"`

	// TLS configurations
	TLS TLS `envconfig:"TLS"`
}

// TLS holds TLS certificate configuration
type TLS struct {
	CertDir string `envconfig:"CERT_DIR" default:"./data/certs"`
}

// JWT holds JWT-specific configuration
type JWT struct {
	SecretKey      string   `envconfig:"SECRET_KEY" default:"your-secret-key-change-in-production"`
	Issuer         string   `envconfig:"ISSUER" default:"thunder"`
	SkipPaths      []string `envconfig:"SKIP_PATHS" default:"/health,/,/admin/secrets,/training"`
	SkipValidation bool     `envconfig:"SKIP_VALIDATION" default:"true"` // Skip signature validation for development
}

// KMS holds the process-wide encryption key configuration. RootKey is the
// base64-encoded AES key for the in-process AEAD wrapper; it must decode to
// 16, 24 or 32 bytes.
type KMS struct {
	KeyID   string `envconfig:"KEY_ID" default:"soy-intel-api-key-ring"`
	RootKey string `envconfig:"ROOT_KEY"`
}

// Cache holds the decrypted-key cache configuration
type Cache struct {
	// KeyTTL is how long a decrypted key may be served from memory, in seconds
	KeyTTL int `envconfig:"KEY_TTL" default:"300"`
}

// Nass holds configuration for the USDA NASS Quick Stats client
type Nass struct {
	BaseURL string `envconfig:"BASE_URL" default:"https://quickstats.nass.usda.gov/api/api_GET/"`
	Timeout int    `envconfig:"TIMEOUT" default:"15"` // seconds
}

// Database holds database-specific configuration
type Database struct {
	Driver string `envconfig:"DRIVER" default:"sqlite3"`
	// Path is the file path for SQLite databases.
	// Use DATABASE_DB_PATH to override; keeping it distinct from the OS PATH variable.
	Path            string `envconfig:"DB_PATH" default:"./data/soy_intel.db"`
	Host            string `envconfig:"HOST" default:"localhost"`
	Port            int    `envconfig:"PORT" default:"5432"`
	Name            string `envconfig:"NAME" default:"soy_intel"`
	User            string `envconfig:"USER" default:""`
	Password        string `envconfig:"PASSWORD" default:""`
	SSLMode         string `envconfig:"SSL_MODE" default:"disable"`
	MaxOpenConns    int    `envconfig:"MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int    `envconfig:"MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime int    `envconfig:"CONN_MAX_LIFETIME" default:"300"` // seconds

	// ExecuteSchemaDDL controls whether to run the schema DDL (CREATE TABLE, etc.) on startup.
	// Set to false when the DB user lacks DDL privileges (e.g. deployed Postgres with restricted role).
	// Env: DATABASE_EXECUTE_SCHEMA_DDL (default: true)
	ExecuteSchemaDDL bool `envconfig:"EXECUTE_SCHEMA_DDL" default:"true"`
}

// package-level variable and mutex for thread safety
var (
	processOnce     sync.Once
	settingInstance *Server
)

// GetConfig initializes and returns a singleton instance of the Server config.
// It uses sync.Once to ensure that the initialization logic is executed only
// once, making it safe for concurrent use. If there is an error during the
// initialization, the function will panic.
func GetConfig() *Server {
	var err error
	processOnce.Do(func() {
		settingInstance = &Server{}
		err = envconfig.Process("", settingInstance)
		if err == nil {
			err = validateKMSConfig(&settingInstance.KMS)
		}
	})
	if err != nil {
		panic(err)
	}
	return settingInstance
}

// validateKMSConfig ensures the custody service has a usable root key
func validateKMSConfig(cfg *KMS) error {
	if cfg.KeyID == "" {
		return fmt.Errorf("KMS_KEY_ID is not configured")
	}
	if cfg.RootKey == "" {
		return fmt.Errorf("KMS_ROOT_KEY is not configured; provide a base64-encoded AES key")
	}
	return nil
}
