package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>community API - Swagger</title>
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

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "community", "version": "v1.0.0" },
  "components": {
    "securitySchemes": {
      "loginToken": { "type": "apiKey", "in": "header", "name": "login_token" },
      "twoFacToken": { "type": "apiKey", "in": "header", "name": "two_fac_token" }
    },
    "schemas": {
      "Error": { "type": "object", "properties": { "error": { "type": "string" } } },
      "EventData": { "type": "object", "additionalProperties": true, "properties": { "eventText": { "type": "string" }, "eventCategory": { "type": "string", "enum": ["crime","shopping","restaurant","local_event","other"] } } },
      "EventEntry": { "type": "object", "properties": { "id": { "type": "string" }, "eventData": { "$ref": "#/components/schemas/EventData" }, "locationHash": { "type": "string" }, "lat": { "type": "number" }, "lng": { "type": "number" }, "ts": { "type": "string", "format": "date-time" } } }
    }
  },
  "paths": {
    "/api/auth/register": {
      "post": {
        "summary": "Record the caller's phone number",
        "security": [{ "loginToken": [] }],
        "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "phone": { "type": "string", "pattern": "^[0-9]{10}$" } } } } } },
        "responses": { "200": { "description": "registered" }, "400": { "description": "Invalid phone number" }, "401": { "description": "Unauthorized" } }
      }
    },
    "/api/auth/init2facSession": {
      "get": {
        "summary": "Start a one-time-code session and text the code",
        "security": [{ "loginToken": [] }],
        "responses": { "200": { "description": "sessionId returned" }, "400": { "description": "Invalid token" }, "500": { "description": "SMS delivery failed" } }
      }
    },
    "/api/auth/complete2fac": {
      "post": {
        "summary": "Exchange the code for a two-factor token",
        "security": [{ "loginToken": [] }],
        "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "sessionId": { "type": "string" }, "code": { "type": "string" } } } } } },
        "responses": { "200": { "description": "token returned" }, "400": { "description": "Invalid request" }, "401": { "description": "No session found / Incorrect code" } }
      }
    },
    "/api/events": {
      "post": {
        "summary": "Post a geotagged event",
        "security": [{ "loginToken": [], "twoFacToken": [] }],
        "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "lat": { "type": "number" }, "lng": { "type": "number" }, "eventData": { "$ref": "#/components/schemas/EventData" } } } } } },
        "responses": { "200": { "description": "event id" }, "400": { "description": "Insufficient info / Invalid location / Invalid category" }, "429": { "description": "Rate limit exceeded" } }
      }
    },
    "/api/events/nearby": {
      "get": {
        "summary": "Events within radius miles of a point",
        "security": [{ "loginToken": [], "twoFacToken": [] }],
        "parameters": [
          { "name": "lat", "in": "query", "required": true, "schema": { "type": "number" } },
          { "name": "lng", "in": "query", "required": true, "schema": { "type": "number" } },
          { "name": "radius", "in": "query", "schema": { "type": "number" }, "description": "miles" },
          { "name": "category", "in": "query", "schema": { "type": "string" } }
        ],
        "responses": { "200": { "description": "array of EventEntry" }, "400": { "description": "Insufficient info / Invalid location" } }
      }
    },
    "/api/events/categories": {
      "get": { "summary": "Event categories with presentation metadata", "security": [{ "loginToken": [], "twoFacToken": [] }], "responses": { "200": { "description": "categories" } } }
    },
    "/api/users/me": {
      "get": { "summary": "Caller's metadata and newest events", "security": [{ "loginToken": [], "twoFacToken": [] }], "responses": { "200": { "description": "userData and userEntries" }, "404": { "description": "User not found" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
