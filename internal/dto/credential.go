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

package dto

import (
	"time"
)

// AddKeyRequest is the request body for storing a new external API key
type AddKeyRequest struct {
	Name        string `json:"name"`
	Service     string `json:"service"`
	ApiKey      string `json:"apiKey"`
	Environment string `json:"environment"`
}

// AddKeyResponse is returned after a key has been encrypted and persisted
type AddKeyResponse struct {
	Success bool   `json:"success"`
	KeyId   string `json:"keyId"`
}

// KeySummary is the admin-facing view of a stored credential. It deliberately
// excludes the ciphertext.
type KeySummary struct {
	Id          string     `json:"id"`
	Name        string     `json:"name"`
	Service     string     `json:"service"`
	Environment string     `json:"environment"`
	Status      string     `json:"status"`
	AddedBy     string     `json:"addedBy"`
	AddedDate   time.Time  `json:"addedDate"`
	LastUsed    *time.Time `json:"lastUsed"`
	UsageCount  int64      `json:"usageCount"`
}

// AuditEntryResponse is the admin-facing view of an audit log entry
type AuditEntryResponse struct {
	Id          string            `json:"id"`
	Action      string            `json:"action"`
	KeyId       string            `json:"keyId"`
	PerformedBy string            `json:"performedBy"`
	Timestamp   time.Time         `json:"timestamp"`
	Result      string            `json:"result"`
	IpAddress   string            `json:"ipAddress,omitempty"`
	Details     AuditDetailsValue `json:"details"`
}

// AuditDetailsValue mirrors the stored non-secret snapshot
type AuditDetailsValue struct {
	Name        string `json:"name"`
	Service     string `json:"service"`
	Environment string `json:"environment"`
}
