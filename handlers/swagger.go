package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.JSON(http.StatusOK, swaggerJSON)
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>planfill-server — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the public endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "planfill-server", "version": "v0.1.0" },
  "paths": {
    "/v1/auth/device/start": {
      "post": { "summary": "Start a device login", "responses": { "200": { "description": "device_code, user_code, verification_url, expires_in, interval" } } }
    },
    "/v1/auth/device/poll": {
      "post": {
        "summary": "Poll a device login session",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"device_code":{"type":"string"}}}}}},
        "responses": { "200": { "description": "pending or approved (token + email)" }, "400": { "description": "invalid_code or expired" }, "401": { "description": "denied" } }
      }
    },
    "/v1/auth/verify": {
      "get": { "summary": "Human verification page (enter user code)", "responses": { "200": { "description": "entry form" }, "302": { "description": "redirect to identity provider" } } }
    },
    "/v1/auth/callback": {
      "get": { "summary": "Identity-provider redirect target", "responses": { "200": { "description": "signed in" }, "403": { "description": "not authorised" } } }
    },
    "/v1/plans": {
      "get": { "summary": "List supported plans", "responses": { "200": { "description": "plan catalogue" }, "401": { "description": "unauthorized" } } }
    },
    "/v1/scripts/{planId}": {
      "get": { "summary": "Automation scripts for one plan", "responses": { "200": { "description": "script bundle" }, "404": { "description": "not_found" } } }
    },
    "/v1/about": {
      "get": { "summary": "Service version", "responses": { "200": { "description": "name + version" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
