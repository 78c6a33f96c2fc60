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
	"strconv"

	"soy-intel-api/internal/constants"
	"soy-intel-api/internal/dto"
	"soy-intel-api/internal/middleware"
	"soy-intel-api/internal/service"
	"soy-intel-api/internal/utils"

	"github.com/gin-gonic/gin"
)

// CredentialHandler handles admin-facing credential custody operations
type CredentialHandler struct {
	custodyService *service.CustodyService
}

// NewCredentialHandler creates a new credential handler
func NewCredentialHandler(custodyService *service.CustodyService) *CredentialHandler {
	return &CredentialHandler{
		custodyService: custodyService,
	}
}

// AddKey handles POST /api/v1/admin/keys
// Encrypts the submitted secret and stores it with an audit trail entry.
func (h *CredentialHandler) AddKey(c *gin.Context) {
	principal := middleware.GetPrincipalFromContext(c)

	var req dto.AddKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid add key request", err)
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(400, "Bad Request",
			"Invalid request body"))
		return
	}

	resp, err := h.custodyService.AddKey(c.Request.Context(), principal, c.ClientIP(), &req)
	if err != nil {
		h.writeCustodyError(c, err, "Failed to add API key")
		return
	}

	log.Printf("[INFO] Successfully added API key: keyId=%s service=%s", resp.KeyId, req.Service)
	c.JSON(http.StatusCreated, resp)
}

// ListKeys handles GET /api/v1/admin/keys
// Returns stored credential metadata; ciphertext is never included.
func (h *CredentialHandler) ListKeys(c *gin.Context) {
	principal := middleware.GetPrincipalFromContext(c)

	keys, err := h.custodyService.ListKeys(c.Request.Context(), principal)
	if err != nil {
		h.writeCustodyError(c, err, "Failed to list API keys")
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(keys), "keys": keys})
}

// ListAuditEntries handles GET /api/v1/admin/keys/audit
func (h *CredentialHandler) ListAuditEntries(c *gin.Context) {
	principal := middleware.GetPrincipalFromContext(c)

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(400, "Bad Request",
				"limit must be an integer"))
			return
		}
		limit = parsed
	}

	entries, err := h.custodyService.ListAuditEntries(c.Request.Context(), principal, limit)
	if err != nil {
		h.writeCustodyError(c, err, "Failed to list audit entries")
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(entries), "entries": entries})
}

// writeCustodyError maps custody service errors onto the HTTP surface
func (h *CredentialHandler) writeCustodyError(c *gin.Context, err error, logMessage string) {
	switch {
	case errors.Is(err, constants.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(401, "Unauthorized",
			"The request must be made while authenticated"))
	case errors.Is(err, constants.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, utils.NewErrorResponse(403, "Forbidden",
			"The caller does not have permission to execute this action"))
	case errors.Is(err, constants.ErrMissingRequiredField):
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(400, "Bad Request",
			constants.ErrMissingRequiredField.Error()))
	default:
		log.Printf("[ERROR] %s: error=%v", logMessage, err)
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(500, "Internal Server Error",
			logMessage))
	}
}

// RegisterRoutes registers credential custody routes with the router
func (h *CredentialHandler) RegisterRoutes(r *gin.Engine) {
	keyGroup := r.Group("/api/v1/admin/keys")
	{
		keyGroup.POST("", h.AddKey)
		keyGroup.GET("", h.ListKeys)
		keyGroup.GET("/audit", h.ListAuditEntries)
	}
}
