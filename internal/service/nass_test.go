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
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"soy-intel-api/internal/constants"
)

// mockKeyResolver is a mock implementation of the keyResolver interface
type mockKeyResolver struct {
	key string
	err error

	calls           int
	lastService     string
	lastEnvironment string
}

func (m *mockKeyResolver) GetKey(ctx context.Context, service, environment string) (string, error) {
	m.calls++
	m.lastService = service
	m.lastEnvironment = environment
	return m.key, m.err
}

func TestFetchCropDataQueryParameters(t *testing.T) {
	var captured url.Values
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"year":"2023","Value":"52"}]}`))
	}))
	defer ts.Close()

	resolver := &mockKeyResolver{key: "NASS-KEY"}
	svc := NewNassService(resolver, ts.URL, 5*time.Second)

	records, err := svc.FetchCropData(context.Background(), "2023", "CORN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0]["Value"] != "52" {
		t.Fatalf("unexpected record: %+v", records[0])
	}

	if resolver.lastService != NassKeyService || resolver.lastEnvironment != constants.DefaultEnvironment {
		t.Fatalf("key resolved for wrong scope: service=%q environment=%q",
			resolver.lastService, resolver.lastEnvironment)
	}

	expected := map[string]string{
		"key":            "NASS-KEY",
		"source_desc":    "SURVEY",
		"sector_desc":    "CROPS",
		"group_desc":     "FIELD CROPS",
		"commodity_desc": "CORN",
		"short_desc":     "CORN - PROGRESS, PLANTED",
		"agg_level_desc": "NATIONAL",
		"year":           "2023",
		"format":         "JSON",
	}
	for param, want := range expected {
		if got := captured.Get(param); got != want {
			t.Errorf("parameter %s: expected %q, got %q", param, want, got)
		}
	}
}

func TestFetchCropDataDefaults(t *testing.T) {
	var captured url.Values
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.URL.Query()
		w.Write([]byte(`{"data":[]}`))
	}))
	defer ts.Close()

	svc := NewNassService(&mockKeyResolver{key: "NASS-KEY"}, ts.URL, 5*time.Second)

	records, err := svc.FetchCropData(context.Background(), "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", records)
	}
	if captured.Get("year") != constants.DefaultNassYear {
		t.Errorf("expected default year %q, got %q", constants.DefaultNassYear, captured.Get("year"))
	}
	if captured.Get("commodity_desc") != constants.DefaultNassCommodity {
		t.Errorf("expected default commodity %q, got %q",
			constants.DefaultNassCommodity, captured.Get("commodity_desc"))
	}
}

func TestFetchCropDataUpstreamError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{name: "unauthorized", statusCode: http.StatusUnauthorized},
		{name: "server error", statusCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer ts.Close()

			svc := NewNassService(&mockKeyResolver{key: "NASS-KEY"}, ts.URL, 5*time.Second)

			_, err := svc.FetchCropData(context.Background(), "", "")
			if !errors.Is(err, constants.ErrUpstreamUnavailable) {
				t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
			}
		})
	}
}

func TestFetchCropDataKeyResolutionFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no upstream call may happen without an API key")
	}))
	defer ts.Close()

	resolver := &mockKeyResolver{err: constants.ErrNoActiveKey}
	svc := NewNassService(resolver, ts.URL, 5*time.Second)

	_, err := svc.FetchCropData(context.Background(), "", "")
	if !errors.Is(err, constants.ErrNoActiveKey) {
		t.Fatalf("expected ErrNoActiveKey, got %v", err)
	}
}

func TestFetchCropDataMissingDataField(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	svc := NewNassService(&mockKeyResolver{key: "NASS-KEY"}, ts.URL, 5*time.Second)

	records, err := svc.FetchCropData(context.Background(), "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", records)
	}
}
