package model

import (
	"time"
)

// Credential represents a stored third-party API credential. The plaintext
// secret never appears here; EncryptedKey carries the transport-encoded
// ciphertext produced by the encryption wrapper.
type Credential struct {
	ID           string     `json:"id" db:"uuid"`
	Name         string     `json:"name" db:"name"`
	Service      string     `json:"service" db:"service"`
	EncryptedKey string     `json:"encryptedKey" db:"encrypted_key"`
	Environment  string     `json:"environment" db:"environment"`
	Status       string     `json:"status" db:"status"`
	AddedBy      string     `json:"addedBy" db:"added_by"`
	AddedDate    time.Time  `json:"addedDate" db:"added_date"`
	LastUsed     *time.Time `json:"lastUsed" db:"last_used"`
	UsageCount   int64      `json:"usageCount" db:"usage_count"`
}

// TableName returns the table name for the Credential model
func (Credential) TableName() string {
	return "api_keys"
}

// AuditDetails is the non-secret snapshot captured alongside a key operation
type AuditDetails struct {
	Name        string `json:"name"`
	Service     string `json:"service"`
	Environment string `json:"environment"`
}

// AuditEntry records a key management operation. KeyID is a back-reference to
// the credential record for lookup, not an ownership relation.
type AuditEntry struct {
	ID          string       `json:"id" db:"uuid"`
	Action      string       `json:"action" db:"action"`
	KeyID       string       `json:"keyId" db:"key_uuid"`
	PerformedBy string       `json:"performedBy" db:"performed_by"`
	Timestamp   time.Time    `json:"timestamp" db:"timestamp"`
	Result      string       `json:"result" db:"result"`
	IPAddress   string       `json:"ipAddress,omitempty" db:"ip_address"`
	Details     AuditDetails `json:"details" db:"details"`
}

// TableName returns the table name for the AuditEntry model
func (AuditEntry) TableName() string {
	return "api_key_audit_log"
}
