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
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"soy-intel-api/internal/constants"
	"soy-intel-api/internal/dto"

	"github.com/hashicorp/go-cleanhttp"
)

// NassKeyService is the custody service identifier for the USDA NASS key
const NassKeyService = "usda"

// keyResolver resolves a stored credential to its plaintext. Satisfied by
// *CustodyService.
type keyResolver interface {
	GetKey(ctx context.Context, service, environment string) (string, error)
}

// NassService fetches crop statistics from the USDA NASS Quick Stats API
// using a custody-managed API key. Requests are issued once and allowed to
// fail; there is no retry policy.
type NassService struct {
	keys       keyResolver
	httpClient *http.Client
	baseURL    string
}

// NewNassService creates a new NASS data service
func NewNassService(keys keyResolver, baseURL string, timeout time.Duration) *NassService {
	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = timeout
	return &NassService{
		keys:       keys,
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

// nassResponse is the envelope returned by the Quick Stats API
type nassResponse struct {
	Data []dto.CropRecord `json:"data"`
}

// FetchCropData queries national field-crop survey data for the given year
// and commodity, defaulting to 2024 soybeans.
func (s *NassService) FetchCropData(ctx context.Context, year, commodity string) ([]dto.CropRecord, error) {
	if year == "" {
		year = constants.DefaultNassYear
	}
	if commodity == "" {
		commodity = constants.DefaultNassCommodity
	}

	apiKey, err := s.keys.GetKey(ctx, NassKeyService, constants.DefaultEnvironment)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve NASS API key: %w", err)
	}

	params := url.Values{}
	params.Set("key", apiKey)
	params.Set("source_desc", "SURVEY")
	params.Set("sector_desc", "CROPS")
	params.Set("group_desc", "FIELD CROPS")
	params.Set("commodity_desc", commodity)
	params.Set("short_desc", fmt.Sprintf("%s - PROGRESS, PLANTED", commodity))
	params.Set("agg_level_desc", "NATIONAL")
	params.Set("year", year)
	params.Set("format", "JSON")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build NASS request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call NASS API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		log.Printf("[WARN] NASS API returned non-success status: status=%d year=%s commodity=%s",
			resp.StatusCode, year, commodity)
		return nil, fmt.Errorf("%w: NASS API returned status %d", constants.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var payload nassResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode NASS response: %w", err)
	}

	if payload.Data == nil {
		return []dto.CropRecord{}, nil
	}
	return payload.Data, nil
}
