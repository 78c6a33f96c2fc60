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

package constants

// Credential status constants. Only KeyStatusActive is ever written by this
// service; inactive and revoked are set out-of-band.
const (
	KeyStatusActive   = "active"
	KeyStatusInactive = "inactive"
	KeyStatusRevoked  = "revoked"
)

// ValidKeyStatuses Valid credential statuses
var ValidKeyStatuses = map[string]bool{
	KeyStatusActive:   true,
	KeyStatusInactive: true,
	KeyStatusRevoked:  true,
}

// Audit action constants
const (
	AuditActionKeyAdded = "key_added"
)

// Audit result constants
const (
	AuditResultSuccess = "success"
)

// RoleAdmin is the role required for key management operations
const RoleAdmin = "admin"

// DefaultEnvironment is used when a caller omits the environment on key lookup
const DefaultEnvironment = "production"

// CacheKeyDelimiter joins service and environment into the composite cache key.
// Callers must not use service/environment identifiers containing this delimiter.
const CacheKeyDelimiter = "_"

// NASS Quick Stats query defaults
const (
	DefaultNassYear      = "2024"
	DefaultNassCommodity = "SOYBEANS"
)

// MaxAuditListLimit bounds the audit trail listing page size
const MaxAuditListLimit = 200
