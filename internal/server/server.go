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

package server

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"log"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"soy-intel-api/config"
	"soy-intel-api/internal/cache"
	"soy-intel-api/internal/crypto"
	"soy-intel-api/internal/database"
	"soy-intel-api/internal/handler"
	"soy-intel-api/internal/middleware"
	"soy-intel-api/internal/repository"
	"soy-intel-api/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Server struct {
	router   *gin.Engine
	credRepo repository.CredentialRepository
	keyCache *cache.KeyCache
}

// StartSoyIntelServer creates a new server instance with all dependencies initialized
func StartSoyIntelServer(cfg *config.Server) (*Server, error) {
	// Initialize database using configuration
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, err
	}

	// Initialize schema (skip when ExecuteSchemaDDL is false, e.g. deployed Postgres without DDL access)
	if cfg.Database.ExecuteSchemaDDL {
		if err := db.InitSchema(cfg.DBSchemaPath); err != nil {
			return nil, err
		}
	} else {
		log.Printf("Skipping schema DDL execution (DATABASE_EXECUTE_SCHEMA_DDL=false)\n")
	}

	// Initialize repositories
	credRepo := repository.NewCredentialRepo(db)

	// Encryption oracle with the process-wide key
	oracle, err := crypto.NewAEADOracle(context.Background(), cfg.KMS.KeyID, cfg.KMS.RootKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize encryption oracle: %w", err)
	}

	// Decrypted-key cache
	keyCache := cache.NewKeyCache(time.Duration(cfg.Cache.KeyTTL)*time.Second, nil)

	// Initialize services
	custodyService := service.NewCustodyService(credRepo, oracle, keyCache)
	nassService := service.NewNassService(custodyService, cfg.Nass.BaseURL,
		time.Duration(cfg.Nass.Timeout)*time.Second)

	// Initialize handlers
	credentialHandler := handler.NewCredentialHandler(custodyService)
	cropDataHandler := handler.NewCropDataHandler(nassService)
	uiHandler := handler.NewUIHandler()

	// Setup router
	router := gin.Default()
	router.SetHTMLTemplate(uiHandler.Templates())

	// Configure and apply CORS middleware first (before auth middleware)
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	// Configure and apply JWT authentication middleware
	authConfig := middleware.AuthConfig{
		SecretKey:      cfg.JWT.SecretKey,
		TokenIssuer:    cfg.JWT.Issuer,
		SkipPaths:      cfg.JWT.SkipPaths,
		SkipValidation: cfg.JWT.SkipValidation,
	}
	router.Use(middleware.AuthMiddleware(authConfig))

	// Register routes
	credentialHandler.RegisterRoutes(router)
	cropDataHandler.RegisterRoutes(router)
	uiHandler.RegisterRoutes(router)

	log.Printf("[INFO] Credential custody initialized: keyId=%s cacheTTL=%ds",
		cfg.KMS.KeyID, cfg.Cache.KeyTTL)

	return &Server{
		router:   router,
		credRepo: credRepo,
		keyCache: keyCache,
	}, nil
}

// generateSelfSignedCert creates a self-signed certificate for development and saves it to disk
func generateSelfSignedCert(certPath, keyPath string) (tls.Certificate, error) {
	// Generate private key
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return tls.Certificate{}, err
	}

	// Certificate template
	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Organization:  []string{"Soy Intel API Dev"},
			Country:       []string{"US"},
			Province:      []string{""},
			Locality:      []string{""},
			StreetAddress: []string{""},
			PostalCode:    []string{""},
		},
		NotBefore:   time.Now(),
		NotAfter:    time.Now().Add(365 * 24 * time.Hour), // Valid for 1 year
		KeyUsage:    x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses: []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		DNSNames:    []string{"localhost"},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return tls.Certificate{}, err
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	// Save certificate and key to disk for persistence
	if err := os.WriteFile(certPath, certPEM, 0644); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to save certificate: %v", err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0600); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to save private key: %v", err)
	}
	log.Printf("Saved certificate to %s and key to %s", certPath, keyPath)

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, err
	}

	return cert, nil
}

// Start starts the HTTPS server
func (s *Server) Start(port string, certDir string) error {
	if port == "" {
		return fmt.Errorf("port cannot be empty")
	}

	// Build certificate paths
	certPath := filepath.Join(certDir, "cert.pem")
	keyPath := filepath.Join(certDir, "key.pem")

	var cert tls.Certificate

	// Try to load existing certificates first
	if _, certErr := os.Stat(certPath); certErr == nil {
		if _, keyErr := os.Stat(keyPath); keyErr == nil {
			loadedCert, err := tls.LoadX509KeyPair(certPath, keyPath)
			if err != nil {
				log.Printf("Failed to load certificates: %v", err)
			} else {
				log.Printf("Using existing certificates from %s", certDir)
				cert = loadedCert
			}
		}
	}

	// Generate new certificate if not loaded
	if cert.Certificate == nil {
		log.Println("Generating self-signed certificate for development...")
		// Ensure cert directory exists
		if err := os.MkdirAll(certDir, 0755); err != nil {
			return fmt.Errorf("failed to create cert directory: %v", err)
		}
		generatedCert, err := generateSelfSignedCert(certPath, keyPath)
		if err != nil {
			return fmt.Errorf("failed to generate self-signed certificate: %v", err)
		}
		cert = generatedCert
	}

	// Add a health endpoint that works with self-signed certs
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	address := fmt.Sprintf(":%s", port)
	server := &http.Server{
		Addr:      address,
		Handler:   s.router,
		TLSConfig: tlsConfig,
	}

	log.Printf("Starting HTTPS server on https://localhost:%s", port)
	log.Println("Note: Using self-signed certificate for development. Browsers will show security warnings.")
	return server.ListenAndServeTLS("", "")
}

// GetRouter returns the gin router for testing purposes
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
