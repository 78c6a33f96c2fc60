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

package handler

import (
	"errors"
	"log"
	"net/http"

	"soy-intel-api/internal/constants"
	"soy-intel-api/internal/dto"
	"soy-intel-api/internal/service"
	"soy-intel-api/internal/utils"

	"github.com/gin-gonic/gin"
)

// CropDataHandler exposes the USDA NASS crop data fetch
type CropDataHandler struct {
	nassService *service.NassService
}

// NewCropDataHandler creates a new crop data handler
func NewCropDataHandler(nassService *service.NassService) *CropDataHandler {
	return &CropDataHandler{
		nassService: nassService,
	}
}

// FetchCropData handles GET /api/v1/data/crops?year=&commodity=
// The stored NASS key is resolved internally; callers never see it. The
// route sits behind the authentication middleware but requires no admin role.
func (h *CropDataHandler) FetchCropData(c *gin.Context) {
	year := c.Query("year")
	commodity := c.Query("commodity")

	records, err := h.nassService.FetchCropData(c.Request.Context(), year, commodity)
	if err != nil {
		if errors.Is(err, constants.ErrUpstreamUnavailable) {
			c.JSON(http.StatusBadGateway, utils.NewErrorResponse(502, "Bad Gateway",
				"The NASS API is currently unavailable"))
			return
		}
		if errors.Is(err, constants.ErrNoActiveKey) {
			c.JSON(http.StatusServiceUnavailable, utils.NewErrorResponse(503, "Service Unavailable",
				"No active NASS API key is configured"))
			return
		}
		log.Printf("[ERROR] Failed to fetch NASS data: year=%s commodity=%s error=%v",
			year, commodity, err)
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(500, "Internal Server Error",
			"An unexpected error occurred while fetching NASS data"))
		return
	}

	c.JSON(http.StatusOK, dto.CropDataResponse{Count: len(records), Data: records})
}

// RegisterRoutes registers crop data routes with the router
func (h *CropDataHandler) RegisterRoutes(r *gin.Engine) {
	dataGroup := r.Group("/api/v1/data")
	{
		dataGroup.GET("/crops", h.FetchCropData)
	}
}
