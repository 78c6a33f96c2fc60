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
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var uiTemplates embed.FS

// UIHandler serves the navigable admin pages. The pages are thin shells over
// the REST API; they carry no protocol of their own.
type UIHandler struct{}

// NewUIHandler creates a new UI handler
func NewUIHandler() *UIHandler {
	return &UIHandler{}
}

// Templates parses the embedded page templates for the router
func (h *UIHandler) Templates() *template.Template {
	return template.Must(template.ParseFS(uiTemplates, "templates/*.html"))
}

// Home handles GET /
func (h *UIHandler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "home.html", gin.H{"Title": "Soy Intel"})
}

// SecretsManagement handles GET /admin/secrets
func (h *UIHandler) SecretsManagement(c *gin.Context) {
	c.HTML(http.StatusOK, "secrets.html", gin.H{"Title": "Secrets Management"})
}

// Training handles GET /training
func (h *UIHandler) Training(c *gin.Context) {
	c.HTML(http.StatusOK, "training.html", gin.H{"Title": "Training"})
}

// RegisterRoutes registers UI routes with the router
func (h *UIHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Home)
	r.GET("/admin/secrets", h.SecretsManagement)
	r.GET("/training", h.Training)
}
