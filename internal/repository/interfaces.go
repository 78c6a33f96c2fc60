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
	"time"

	"soy-intel-api/internal/model"
)

// CredentialRepository defines the interface for credential and audit data access
type CredentialRepository interface {
	// CreateKeyWithAudit persists the credential record and its audit entry as
	// one atomic unit; on failure neither row is visible.
	CreateKeyWithAudit(ctx context.Context, key *model.Credential, audit *model.AuditEntry) error

	// GetLatestActiveKey returns the active record for (service, environment)
	// with the most recent added date, or nil when none exists.
	GetLatestActiveKey(ctx context.Context, service, environment string) (*model.Credential, error)

	// RecordKeyUsage increments the record's usage counter atomically and sets
	// its last-used time.
	RecordKeyUsage(ctx context.Context, keyID string, usedAt time.Time) error

	ListKeys(ctx context.Context) ([]*model.Credential, error)
	ListAuditEntries(ctx context.Context, limit int) ([]*model.AuditEntry, error)
}
