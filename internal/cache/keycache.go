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

package cache

import (
	"sync"
	"time"
)

// entry holds a decrypted key and the time it was fetched
type entry struct {
	value     string
	fetchedAt time.Time
}

// KeyCache is a process-local cache of decrypted API keys. Entries are
// replaced when stale and never evicted; the map grows only with the number
// of distinct composite keys ever fetched. Concurrent writers for the same
// key race benignly: last writer wins and both carry equivalent data.
type KeyCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewKeyCache creates a cache with the given TTL. The clock is injectable so
// tests can advance time instead of sleeping.
func NewKeyCache(ttl time.Duration, now func() time.Time) *KeyCache {
	if now == nil {
		now = time.Now
	}
	return &KeyCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the cached value when present and younger than the TTL
func (c *KeyCache) Get(key string) (string, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if c.now().Sub(e.fetchedAt) >= c.ttl {
		// Stale entries stay in place until the next Put overwrites them
		return "", false
	}
	return e.value, true
}

// Put stores the value under key, overwriting any prior entry
func (c *KeyCache) Put(key, value string) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, fetchedAt: c.now()}
	c.mu.Unlock()
}

// Len returns the number of entries ever written and still resident
func (c *KeyCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
