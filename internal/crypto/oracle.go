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

package crypto

import (
	"context"
	"encoding/base64"
	"fmt"

	wrapping "github.com/hashicorp/go-kms-wrapping/v2"
	"github.com/hashicorp/go-kms-wrapping/v2/aead"
	"google.golang.org/protobuf/proto"
)

// Oracle encrypts and decrypts secrets under a fixed, process-wide key. The
// key material itself is never exposed to callers.
type Oracle interface {
	Encrypt(ctx context.Context, plaintext string) (string, error)
	Decrypt(ctx context.Context, ciphertext string) (string, error)
}

// KeyWrapperOracle is an Oracle backed by a go-kms-wrapping wrapper. The
// default deployment uses an AES-GCM wrapper with key bytes from config; any
// other wrapping.Wrapper (cloud KMS, transit, etc.) slots in unchanged.
type KeyWrapperOracle struct {
	wrapper wrapping.Wrapper
}

// NewAEADOracle builds an oracle over an in-process AES-GCM wrapper.
// keyB64 must decode to 16, 24 or 32 key bytes.
func NewAEADOracle(ctx context.Context, keyID, keyB64 string) (*KeyWrapperOracle, error) {
	keyBytes, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode root key: %w", err)
	}

	wrapper := aead.NewWrapper()
	if _, err := wrapper.SetConfig(ctx, wrapping.WithKeyId(keyID)); err != nil {
		return nil, fmt.Errorf("failed to configure key wrapper: %w", err)
	}
	if err := wrapper.SetAesGcmKeyBytes(keyBytes); err != nil {
		return nil, fmt.Errorf("failed to set key bytes: %w", err)
	}

	return &KeyWrapperOracle{wrapper: wrapper}, nil
}

// NewKeyWrapperOracle wraps an already configured wrapper
func NewKeyWrapperOracle(wrapper wrapping.Wrapper) *KeyWrapperOracle {
	return &KeyWrapperOracle{wrapper: wrapper}
}

// Encrypt returns the base64-encoded, proto-marshaled blob for the plaintext
func (o *KeyWrapperOracle) Encrypt(ctx context.Context, plaintext string) (string, error) {
	blobInfo, err := o.wrapper.Encrypt(ctx, []byte(plaintext))
	if err != nil {
		return "", fmt.Errorf("encryption failed: %w", err)
	}
	marshaledBlob, err := proto.Marshal(blobInfo)
	if err != nil {
		return "", fmt.Errorf("failed to marshal encrypted blob: %w", err)
	}
	return base64.StdEncoding.EncodeToString(marshaledBlob), nil
}

// Decrypt reverses Encrypt for a ciphertext produced under the same key
func (o *KeyWrapperOracle) Decrypt(ctx context.Context, ciphertext string) (string, error) {
	marshaledBlob, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	blobInfo := new(wrapping.BlobInfo)
	if err := proto.Unmarshal(marshaledBlob, blobInfo); err != nil {
		return "", fmt.Errorf("failed to unmarshal encrypted blob: %w", err)
	}
	plaintext, err := o.wrapper.Decrypt(ctx, blobInfo)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}
	return string(plaintext), nil
}
