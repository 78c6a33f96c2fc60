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

package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"soy-intel-api/internal/cache"
	"soy-intel-api/internal/constants"
	"soy-intel-api/internal/crypto"
	"soy-intel-api/internal/dto"
	"soy-intel-api/internal/model"
	"soy-intel-api/internal/repository"
)

// CustodyService implements the credential custody workflow: encrypting,
// storing, auditing, retrieving and caching third-party API keys.
type CustodyService struct {
	credRepo repository.CredentialRepository
	oracle   crypto.Oracle
	keyCache *cache.KeyCache

	// detach runs the best-effort usage update off the caller's path. It is
	// replaceable in tests to make the side effect synchronous.
	detach func(task func())
}

// NewCustodyService creates a new custody service instance
func NewCustodyService(credRepo repository.CredentialRepository, oracle crypto.Oracle, keyCache *cache.KeyCache) *CustodyService {
	return &CustodyService{
		credRepo: credRepo,
		oracle:   oracle,
		keyCache: keyCache,
		detach:   func(task func()) { go task() },
	}
}

// AddKey validates the caller and request, encrypts the secret and persists
// the credential record together with its audit entry as one atomic unit.
// Authorization is checked before anything else; no side effect happens on
// any failure before the commit.
func (s *CustodyService) AddKey(ctx context.Context, principal *model.Principal, clientIP string, req *dto.AddKeyRequest) (*dto.AddKeyResponse, error) {
	if principal == nil || principal.ID == "" {
		return nil, constants.ErrUnauthenticated
	}
	if !principal.HasRole(constants.RoleAdmin) {
		return nil, constants.ErrPermissionDenied
	}

	if req == nil || req.Name == "" || req.Service == "" || req.ApiKey == "" || req.Environment == "" {
		return nil, constants.ErrMissingRequiredField
	}

	encryptedKey, err := s.oracle.Encrypt(ctx, req.ApiKey)
	if err != nil {
		log.Printf("[ERROR] Failed to encrypt API key: service=%s environment=%s error=%v",
			req.Service, req.Environment, err)
		return nil, fmt.Errorf("failed to encrypt the API key: %w", err)
	}

	key := &model.Credential{
		Name:         req.Name,
		Service:      req.Service,
		EncryptedKey: encryptedKey,
		Environment:  req.Environment,
		Status:       constants.KeyStatusActive,
		AddedBy:      principal.ID,
		LastUsed:     nil,
		UsageCount:   0,
	}
	audit := &model.AuditEntry{
		Action:      constants.AuditActionKeyAdded,
		PerformedBy: principal.ID,
		Result:      constants.AuditResultSuccess,
		IPAddress:   clientIP,
		Details: model.AuditDetails{
			Name:        req.Name,
			Service:     req.Service,
			Environment: req.Environment,
		},
	}

	if err := s.credRepo.CreateKeyWithAudit(ctx, key, audit); err != nil {
		log.Printf("[ERROR] Failed to persist API key: service=%s environment=%s error=%v",
			req.Service, req.Environment, err)
		return nil, fmt.Errorf("failed to store the API key: %w", err)
	}

	log.Printf("[INFO] API key added: keyId=%s service=%s environment=%s addedBy=%s",
		key.ID, key.Service, key.Environment, principal.ID)

	return &dto.AddKeyResponse{Success: true, KeyId: key.ID}, nil
}

// GetKey returns the decrypted key for (service, environment), consulting the
// cache first. environment defaults to production when empty. On a cache miss
// the most recently added active record wins; its decrypted value is cached
// and a detached task updates the record's usage telemetry.
func (s *CustodyService) GetKey(ctx context.Context, service, environment string) (string, error) {
	if environment == "" {
		environment = constants.DefaultEnvironment
	}
	cacheKey := service + constants.CacheKeyDelimiter + environment

	if value, ok := s.keyCache.Get(cacheKey); ok {
		return value, nil
	}

	key, err := s.credRepo.GetLatestActiveKey(ctx, service, environment)
	if err != nil {
		return "", fmt.Errorf("failed to look up API key: %w", err)
	}
	if key == nil {
		return "", fmt.Errorf("%w: service=%s environment=%s", constants.ErrNoActiveKey, service, environment)
	}

	// Decryption failures are not cached; the next call retries from scratch
	decryptedKey, err := s.oracle.Decrypt(ctx, key.EncryptedKey)
	if err != nil {
		log.Printf("[ERROR] Failed to decrypt API key: keyId=%s service=%s environment=%s error=%v",
			key.ID, service, environment, err)
		return "", fmt.Errorf("failed to decrypt API key: %w", err)
	}

	s.keyCache.Put(cacheKey, decryptedKey)

	// Usage telemetry is best-effort and must never delay or fail the return.
	// The task carries its own context so an abandoned request does not stop it.
	keyID := key.ID
	s.detach(func() {
		updateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.credRepo.RecordKeyUsage(updateCtx, keyID, time.Now().UTC()); err != nil {
			log.Printf("[WARN] Failed to update key usage stats: keyId=%s error=%v", keyID, err)
		}
	})

	return decryptedKey, nil
}

// ListKeys returns admin-facing summaries of all stored credentials, without
// ciphertext
func (s *CustodyService) ListKeys(ctx context.Context, principal *model.Principal) ([]dto.KeySummary, error) {
	if principal == nil || principal.ID == "" {
		return nil, constants.ErrUnauthenticated
	}
	if !principal.HasRole(constants.RoleAdmin) {
		return nil, constants.ErrPermissionDenied
	}

	keys, err := s.credRepo.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	summaries := make([]dto.KeySummary, 0, len(keys))
	for _, key := range keys {
		summaries = append(summaries, dto.KeySummary{
			Id:          key.ID,
			Name:        key.Name,
			Service:     key.Service,
			Environment: key.Environment,
			Status:      key.Status,
			AddedBy:     key.AddedBy,
			AddedDate:   key.AddedDate,
			LastUsed:    key.LastUsed,
			UsageCount:  key.UsageCount,
		})
	}
	return summaries, nil
}

// ListAuditEntries returns the newest audit entries up to limit, admin only
func (s *CustodyService) ListAuditEntries(ctx context.Context, principal *model.Principal, limit int) ([]dto.AuditEntryResponse, error) {
	if principal == nil || principal.ID == "" {
		return nil, constants.ErrUnauthenticated
	}
	if !principal.HasRole(constants.RoleAdmin) {
		return nil, constants.ErrPermissionDenied
	}

	entries, err := s.credRepo.ListAuditEntries(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	responses := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.AuditEntryResponse{
			Id:          entry.ID,
			Action:      entry.Action,
			KeyId:       entry.KeyID,
			PerformedBy: entry.PerformedBy,
			Timestamp:   entry.Timestamp,
			Result:      entry.Result,
			IpAddress:   entry.IPAddress,
			Details: dto.AuditDetailsValue{
				Name:        entry.Details.Name,
				Service:     entry.Details.Service,
				Environment: entry.Details.Environment,
			},
		})
	}
	return responses, nil
}
