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
	"testing"
	"time"
)

// fakeClock lets tests advance time deterministically
type fakeClock struct {
	current time.Time
}

func (f *fakeClock) now() time.Time {
	return f.current
}

func (f *fakeClock) advance(d time.Duration) {
	f.current = f.current.Add(d)
}

func TestKeyCacheGetPut(t *testing.T) {
	clock := &fakeClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := NewKeyCache(5*time.Minute, clock.now)

	if _, ok := c.Get("usda_production"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Put("usda_production", "SECRET123")

	value, ok := c.Get("usda_production")
	if !ok {
		t.Fatal("expected hit after put")
	}
	if value != "SECRET123" {
		t.Fatalf("expected SECRET123, got %q", value)
	}
}

func TestKeyCacheTTLExpiry(t *testing.T) {
	tests := []struct {
		name    string
		advance time.Duration
		wantHit bool
	}{
		{name: "fresh entry", advance: 1 * time.Minute, wantHit: true},
		{name: "just inside TTL", advance: 5*time.Minute - time.Second, wantHit: true},
		{name: "exactly at TTL", advance: 5 * time.Minute, wantHit: false},
		{name: "past TTL", advance: 10 * time.Minute, wantHit: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
			c := NewKeyCache(5*time.Minute, clock.now)

			c.Put("usda_production", "SECRET123")
			clock.advance(tt.advance)

			_, ok := c.Get("usda_production")
			if ok != tt.wantHit {
				t.Fatalf("advance=%v: got hit=%v, want hit=%v", tt.advance, ok, tt.wantHit)
			}
		})
	}
}

func TestKeyCacheOverwriteRefreshesAge(t *testing.T) {
	clock := &fakeClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := NewKeyCache(5*time.Minute, clock.now)

	c.Put("usda_production", "OLD")
	clock.advance(10 * time.Minute)

	// Stale entry is replaced, not merged
	c.Put("usda_production", "NEW")

	value, ok := c.Get("usda_production")
	if !ok {
		t.Fatal("expected hit after overwrite")
	}
	if value != "NEW" {
		t.Fatalf("expected NEW, got %q", value)
	}
	if c.Len() != 1 {
		t.Fatalf("expected single entry, got %d", c.Len())
	}
}

func TestKeyCacheDistinctCompositeKeys(t *testing.T) {
	clock := &fakeClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := NewKeyCache(5*time.Minute, clock.now)

	c.Put("usda_production", "PROD")
	c.Put("usda_staging", "STAGE")

	if v, _ := c.Get("usda_production"); v != "PROD" {
		t.Fatalf("expected PROD, got %q", v)
	}
	if v, _ := c.Get("usda_staging"); v != "STAGE" {
		t.Fatalf("expected STAGE, got %q", v)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
}
