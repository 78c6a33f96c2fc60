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

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"soy-intel-api/internal/constants"
	"soy-intel-api/internal/database"
	"soy-intel-api/internal/model"

	"github.com/google/uuid"
)

// CredentialRepo implements CredentialRepository
type CredentialRepo struct {
	db *database.DB
}

// NewCredentialRepo creates a new credential repository
func NewCredentialRepo(db *database.DB) CredentialRepository {
	return &CredentialRepo{db: db}
}

// CreateKeyWithAudit inserts the credential record and its audit entry in a
// single transaction. IDs are store-assigned here.
func (r *CredentialRepo) CreateKeyWithAudit(ctx context.Context, key *model.Credential, audit *model.AuditEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	key.ID = uuid.New().String()
	key.AddedDate = time.Now().UTC()

	keyQuery := `
		INSERT INTO api_keys (uuid, name, service, encrypted_key, environment,
			status, added_by, added_date, last_used, usage_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, r.db.Rebind(keyQuery), key.ID, key.Name, key.Service,
		key.EncryptedKey, key.Environment, key.Status, key.AddedBy, key.AddedDate,
		key.LastUsed, key.UsageCount)
	if err != nil {
		return fmt.Errorf("failed to insert credential record: %w", err)
	}

	audit.ID = uuid.New().String()
	audit.KeyID = key.ID
	audit.Timestamp = key.AddedDate

	detailsJSON, err := json.Marshal(audit.Details)
	if err != nil {
		return fmt.Errorf("failed to serialize audit details: %w", err)
	}

	auditQuery := `
		INSERT INTO api_key_audit_log (uuid, action, key_uuid, performed_by,
			timestamp, result, ip_address, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, r.db.Rebind(auditQuery), audit.ID, audit.Action,
		audit.KeyID, audit.PerformedBy, audit.Timestamp, audit.Result,
		nullableString(audit.IPAddress), string(detailsJSON))
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	return tx.Commit()
}

// GetLatestActiveKey selects the most recently added active record for the
// pair. Older active records for the same pair may exist; recency wins.
func (r *CredentialRepo) GetLatestActiveKey(ctx context.Context, service, environment string) (*model.Credential, error) {
	query := `
		SELECT uuid, name, service, encrypted_key, environment, status,
			added_by, added_date, last_used, usage_count
		FROM api_keys
		WHERE service = ? AND environment = ? AND status = ?
		ORDER BY added_date DESC
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, r.db.Rebind(query), service, environment, constants.KeyStatusActive)

	key, err := scanCredential(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query active key: %w", err)
	}
	return key, nil
}

// RecordKeyUsage bumps usage_count with an in-database increment so concurrent
// updates do not lose counts. last_used may be overwritten out of order under
// concurrency; that is tolerated.
func (r *CredentialRepo) RecordKeyUsage(ctx context.Context, keyID string, usedAt time.Time) error {
	query := `
		UPDATE api_keys
		SET usage_count = usage_count + 1, last_used = ?
		WHERE uuid = ?
	`
	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), usedAt, keyID)
	if err != nil {
		return fmt.Errorf("failed to update key usage: %w", err)
	}
	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return fmt.Errorf("key not found for usage update: %s", keyID)
	}
	return nil
}

// ListKeys returns all stored credential records, newest first
func (r *CredentialRepo) ListKeys(ctx context.Context) ([]*model.Credential, error) {
	query := `
		SELECT uuid, name, service, encrypted_key, environment, status,
			added_by, added_date, last_used, usage_count
		FROM api_keys
		ORDER BY added_date DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []*model.Credential
	for rows.Next() {
		key, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credential record: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// ListAuditEntries returns the newest audit entries up to limit
func (r *CredentialRepo) ListAuditEntries(ctx context.Context, limit int) ([]*model.AuditEntry, error) {
	if limit <= 0 || limit > constants.MaxAuditListLimit {
		limit = constants.MaxAuditListLimit
	}

	query := `
		SELECT uuid, action, key_uuid, performed_by, timestamp, result,
			ip_address, details
		FROM api_key_audit_log
		ORDER BY timestamp DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.AuditEntry
	for rows.Next() {
		var entry model.AuditEntry
		var ip sql.NullString
		var detailsJSON string
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.KeyID, &entry.PerformedBy,
			&entry.Timestamp, &entry.Result, &ip, &detailsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if ip.Valid {
			entry.IPAddress = ip.String
		}
		if err := json.Unmarshal([]byte(detailsJSON), &entry.Details); err != nil {
			return nil, fmt.Errorf("failed to parse audit details: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// scanner covers both sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCredential(s scanner) (*model.Credential, error) {
	var key model.Credential
	var lastUsed sql.NullTime
	if err := s.Scan(&key.ID, &key.Name, &key.Service, &key.EncryptedKey,
		&key.Environment, &key.Status, &key.AddedBy, &key.AddedDate,
		&lastUsed, &key.UsageCount); err != nil {
		return nil, err
	}
	if lastUsed.Valid {
		t := lastUsed.Time
		key.LastUsed = &t
	}
	return &key, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
