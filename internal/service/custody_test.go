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
	"errors"
	"testing"
	"time"

	"soy-intel-api/internal/cache"
	"soy-intel-api/internal/constants"
	"soy-intel-api/internal/dto"
	"soy-intel-api/internal/model"
	"soy-intel-api/internal/repository"
)

// mockCredentialRepository is a mock implementation of the CredentialRepository interface
type mockCredentialRepository struct {
	repository.CredentialRepository // Embed interface for unimplemented methods

	// Mock behavior configuration
	createErr error
	latestKey *model.Credential
	latestErr error
	usageErr  error

	// Call tracking for verification
	createCalls     int
	createdKey      *model.Credential
	createdAudit    *model.AuditEntry
	lookupCalls     int
	lastService     string
	lastEnvironment string
	usageCalls      int
	lastUsageKeyID  string
}

func (m *mockCredentialRepository) CreateKeyWithAudit(ctx context.Context, key *model.Credential, audit *model.AuditEntry) error {
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	key.ID = "key-1"
	key.AddedDate = time.Now().UTC()
	audit.ID = "audit-1"
	audit.KeyID = key.ID
	audit.Timestamp = key.AddedDate
	m.createdKey = key
	m.createdAudit = audit
	return nil
}

func (m *mockCredentialRepository) GetLatestActiveKey(ctx context.Context, service, environment string) (*model.Credential, error) {
	m.lookupCalls++
	m.lastService = service
	m.lastEnvironment = environment
	return m.latestKey, m.latestErr
}

func (m *mockCredentialRepository) RecordKeyUsage(ctx context.Context, keyID string, usedAt time.Time) error {
	m.usageCalls++
	m.lastUsageKeyID = keyID
	return m.usageErr
}

// mockOracle is a mock implementation of the crypto.Oracle interface
type mockOracle struct {
	encryptErr error
	decryptErr error

	encryptCalls int
	decryptCalls int
}

func (m *mockOracle) Encrypt(ctx context.Context, plaintext string) (string, error) {
	m.encryptCalls++
	if m.encryptErr != nil {
		return "", m.encryptErr
	}
	return "enc:" + plaintext, nil
}

func (m *mockOracle) Decrypt(ctx context.Context, ciphertext string) (string, error) {
	m.decryptCalls++
	if m.decryptErr != nil {
		return "", m.decryptErr
	}
	return ciphertext[len("enc:"):], nil
}

// testClock lets tests advance the cache clock deterministically
type testClock struct {
	current time.Time
}

func (c *testClock) now() time.Time { return c.current }

func newTestCustodyService(repo *mockCredentialRepository, oracle *mockOracle, clock *testClock) *CustodyService {
	keyCache := cache.NewKeyCache(5*time.Minute, clock.now)
	svc := NewCustodyService(repo, oracle, keyCache)
	// Run the usage update synchronously so tests can assert on it
	svc.detach = func(task func()) { task() }
	return svc
}

func adminPrincipal() *model.Principal {
	return &model.Principal{ID: "user-1", Roles: []string{"openid", "profile", "admin"}}
}

func validAddKeyRequest() *dto.AddKeyRequest {
	return &dto.AddKeyRequest{
		Name:        "USDA Prod",
		Service:     "usda",
		ApiKey:      "SECRET123",
		Environment: "production",
	}
}

func TestAddKeyAuthorization(t *testing.T) {
	tests := []struct {
		name        string
		principal   *model.Principal
		expectedErr error
	}{
		{
			name:        "nil principal",
			principal:   nil,
			expectedErr: constants.ErrUnauthenticated,
		},
		{
			name:        "empty principal id",
			principal:   &model.Principal{Roles: []string{"admin"}},
			expectedErr: constants.ErrUnauthenticated,
		},
		{
			name:        "non-admin principal",
			principal:   &model.Principal{ID: "user-2", Roles: []string{"openid", "profile"}},
			expectedErr: constants.ErrPermissionDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockCredentialRepository{}
			oracle := &mockOracle{}
			svc := newTestCustodyService(repo, oracle, &testClock{current: time.Now()})

			_, err := svc.AddKey(context.Background(), tt.principal, "203.0.113.7", validAddKeyRequest())
			if !errors.Is(err, tt.expectedErr) {
				t.Fatalf("expected %v, got %v", tt.expectedErr, err)
			}
			if oracle.encryptCalls != 0 {
				t.Fatal("oracle must not be invoked on authorization failure")
			}
			if repo.createCalls != 0 {
				t.Fatal("no record may be created on authorization failure")
			}
		})
	}
}

func TestAddKeyValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*dto.AddKeyRequest)
	}{
		{name: "missing name", mutate: func(r *dto.AddKeyRequest) { r.Name = "" }},
		{name: "missing service", mutate: func(r *dto.AddKeyRequest) { r.Service = "" }},
		{name: "missing apiKey", mutate: func(r *dto.AddKeyRequest) { r.ApiKey = "" }},
		{name: "missing environment", mutate: func(r *dto.AddKeyRequest) { r.Environment = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockCredentialRepository{}
			oracle := &mockOracle{}
			svc := newTestCustodyService(repo, oracle, &testClock{current: time.Now()})

			req := validAddKeyRequest()
			tt.mutate(req)

			_, err := svc.AddKey(context.Background(), adminPrincipal(), "", req)
			if !errors.Is(err, constants.ErrMissingRequiredField) {
				t.Fatalf("expected ErrMissingRequiredField, got %v", err)
			}
			if oracle.encryptCalls != 0 || repo.createCalls != 0 {
				t.Fatal("no side effect may occur on validation failure")
			}
		})
	}
}

func TestAddKeySuccess(t *testing.T) {
	repo := &mockCredentialRepository{}
	oracle := &mockOracle{}
	svc := newTestCustodyService(repo, oracle, &testClock{current: time.Now()})

	resp, err := svc.AddKey(context.Background(), adminPrincipal(), "203.0.113.7", validAddKeyRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Success || resp.KeyId != "key-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	key := repo.createdKey
	if key == nil {
		t.Fatal("expected credential record to be created")
	}
	if key.Status != constants.KeyStatusActive {
		t.Fatalf("expected active status, got %q", key.Status)
	}
	if key.UsageCount != 0 || key.LastUsed != nil {
		t.Fatal("new key must start with zero usage and no last-used time")
	}
	if key.AddedBy != "user-1" {
		t.Fatalf("expected addedBy user-1, got %q", key.AddedBy)
	}
	if key.EncryptedKey != "enc:SECRET123" {
		t.Fatalf("stored key must be the ciphertext, got %q", key.EncryptedKey)
	}

	audit := repo.createdAudit
	if audit == nil {
		t.Fatal("expected audit entry to be created")
	}
	if audit.Action != constants.AuditActionKeyAdded {
		t.Fatalf("expected key_added action, got %q", audit.Action)
	}
	if audit.PerformedBy != "user-1" || audit.IPAddress != "203.0.113.7" {
		t.Fatalf("unexpected audit attribution: %+v", audit)
	}
	if audit.Details.Name != "USDA Prod" || audit.Details.Service != "usda" ||
		audit.Details.Environment != "production" {
		t.Fatalf("unexpected audit details snapshot: %+v", audit.Details)
	}
}

func TestAddKeyOracleFailure(t *testing.T) {
	repo := &mockCredentialRepository{}
	oracle := &mockOracle{encryptErr: errors.New("kms down")}
	svc := newTestCustodyService(repo, oracle, &testClock{current: time.Now()})

	_, err := svc.AddKey(context.Background(), adminPrincipal(), "", validAddKeyRequest())
	if err == nil {
		t.Fatal("expected error on oracle failure")
	}
	if repo.createCalls != 0 {
		t.Fatal("nothing may be persisted when encryption fails")
	}
}

func TestAddKeyStoreFailure(t *testing.T) {
	repo := &mockCredentialRepository{createErr: errors.New("store down")}
	oracle := &mockOracle{}
	svc := newTestCustodyService(repo, oracle, &testClock{current: time.Now()})

	_, err := svc.AddKey(context.Background(), adminPrincipal(), "", validAddKeyRequest())
	if err == nil {
		t.Fatal("expected error on store failure")
	}
}

func activeCredential() *model.Credential {
	return &model.Credential{
		ID:           "key-1",
		Name:         "USDA Prod",
		Service:      "usda",
		EncryptedKey: "enc:SECRET123",
		Environment:  "production",
		Status:       constants.KeyStatusActive,
	}
}

func TestGetKeyCachesWithinTTL(t *testing.T) {
	repo := &mockCredentialRepository{latestKey: activeCredential()}
	oracle := &mockOracle{}
	clock := &testClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestCustodyService(repo, oracle, clock)

	first, err := svc.GetKey(context.Background(), "usda", "production")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != "SECRET123" {
		t.Fatalf("expected SECRET123, got %q", first)
	}

	clock.current = clock.current.Add(2 * time.Minute)

	second, err := svc.GetKey(context.Background(), "usda", "production")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != first {
		t.Fatalf("cached value differs: %q vs %q", second, first)
	}
	if oracle.decryptCalls != 1 {
		t.Fatalf("oracle must be invoked at most once within the TTL, got %d", oracle.decryptCalls)
	}
	if repo.lookupCalls != 1 {
		t.Fatalf("store must be queried once within the TTL, got %d", repo.lookupCalls)
	}
}

func TestGetKeyRefetchesAfterTTL(t *testing.T) {
	repo := &mockCredentialRepository{latestKey: activeCredential()}
	oracle := &mockOracle{}
	clock := &testClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestCustodyService(repo, oracle, clock)

	if _, err := svc.GetKey(context.Background(), "usda", "production"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clock.current = clock.current.Add(6 * time.Minute)

	value, err := svc.GetKey(context.Background(), "usda", "production")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "SECRET123" {
		t.Fatalf("expected SECRET123, got %q", value)
	}
	if repo.lookupCalls != 2 || oracle.decryptCalls != 2 {
		t.Fatalf("expected full refetch after TTL: lookups=%d decrypts=%d",
			repo.lookupCalls, oracle.decryptCalls)
	}
}

func TestGetKeyDefaultsEnvironment(t *testing.T) {
	repo := &mockCredentialRepository{latestKey: activeCredential()}
	oracle := &mockOracle{}
	svc := newTestCustodyService(repo, oracle, &testClock{current: time.Now()})

	if _, err := svc.GetKey(context.Background(), "usda", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastEnvironment != constants.DefaultEnvironment {
		t.Fatalf("expected default environment %q, got %q",
			constants.DefaultEnvironment, repo.lastEnvironment)
	}
}

func TestGetKeyNoActiveKey(t *testing.T) {
	repo := &mockCredentialRepository{latestKey: nil}
	oracle := &mockOracle{}
	svc := newTestCustodyService(repo, oracle, &testClock{current: time.Now()})

	_, err := svc.GetKey(context.Background(), "usda", "production")
	if !errors.Is(err, constants.ErrNoActiveKey) {
		t.Fatalf("expected ErrNoActiveKey, got %v", err)
	}
	if oracle.decryptCalls != 0 {
		t.Fatal("oracle must not be contacted when no active key exists")
	}
}

func TestGetKeyDecryptFailureNotCached(t *testing.T) {
	repo := &mockCredentialRepository{latestKey: activeCredential()}
	oracle := &mockOracle{decryptErr: errors.New("kms down")}
	svc := newTestCustodyService(repo, oracle, &testClock{current: time.Now()})

	if _, err := svc.GetKey(context.Background(), "usda", "production"); err == nil {
		t.Fatal("expected error on decrypt failure")
	}

	// Next call retries fully once the oracle recovers
	oracle.decryptErr = nil
	value, err := svc.GetKey(context.Background(), "usda", "production")
	if err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if value != "SECRET123" {
		t.Fatalf("expected SECRET123, got %q", value)
	}
	if repo.lookupCalls != 2 {
		t.Fatalf("expected store re-query after failed decrypt, got %d lookups", repo.lookupCalls)
	}
}

func TestGetKeyRecordsUsage(t *testing.T) {
	repo := &mockCredentialRepository{latestKey: activeCredential()}
	oracle := &mockOracle{}
	svc := newTestCustodyService(repo, oracle, &testClock{current: time.Now()})

	if _, err := svc.GetKey(context.Background(), "usda", "production"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.usageCalls != 1 || repo.lastUsageKeyID != "key-1" {
		t.Fatalf("expected usage update for key-1, got calls=%d keyId=%q",
			repo.usageCalls, repo.lastUsageKeyID)
	}
}

func TestGetKeyUsageUpdateFailureDoesNotPropagate(t *testing.T) {
	repo := &mockCredentialRepository{
		latestKey: activeCredential(),
		usageErr:  errors.New("store down"),
	}
	oracle := &mockOracle{}
	svc := newTestCustodyService(repo, oracle, &testClock{current: time.Now()})

	value, err := svc.GetKey(context.Background(), "usda", "production")
	if err != nil {
		t.Fatalf("usage update failure must not fail the call: %v", err)
	}
	if value != "SECRET123" {
		t.Fatalf("expected SECRET123, got %q", value)
	}
}

func TestListKeysRequiresAdmin(t *testing.T) {
	repo := &mockCredentialRepository{}
	oracle := &mockOracle{}
	svc := newTestCustodyService(repo, oracle, &testClock{current: time.Now()})

	_, err := svc.ListKeys(context.Background(), &model.Principal{ID: "user-2", Roles: []string{"openid"}})
	if !errors.Is(err, constants.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	_, err = svc.ListAuditEntries(context.Background(), nil, 10)
	if !errors.Is(err, constants.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
