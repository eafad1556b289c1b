// Package docs holds the swagger document served at /swagger.
// Regenerate with: swag init -g cmd/superyield/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/agents/optimize": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["agents"],
                "summary": "Optimize allocation for a supplied vault state",
                "parameters": [
                    {
                        "description": "vault state, opportunities and optional constraints",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.optimizeRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.optimizeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.optimizeResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.optimizeResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.optimizeResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.optimizeResponse"}}
                }
            }
        },
        "/api/agents/optimize-auto": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["agents"],
                "summary": "Optimize allocation using the on-chain vault state",
                "parameters": [
                    {
                        "description": "opportunities and optional constraints",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.autoRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.optimizeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.optimizeResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.optimizeResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.optimizeResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.optimizeResponse"}}
                }
            }
        },
        "/api/agents/stream": {
            "post": {
                "description": "Each event is a line \"data: <json>\" followed by a blank line.",
                "consumes": ["application/json"],
                "produces": ["text/event-stream"],
                "tags": ["agents"],
                "summary": "Stream an optimization as server-sent events",
                "parameters": [
                    {
                        "description": "vault state, opportunities and optional constraints",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.optimizeRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/agent.Event"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/agent.Event"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/agent.Event"}}
                }
            }
        },
        "/api/agents/stream/ws": {
            "get": {
                "description": "The client sends one optimize request as JSON; the server answers with one event per text message and closes normally.",
                "tags": ["agents"],
                "summary": "Stream an optimization over a websocket",
                "responses": {}
            }
        },
        "/api/decisions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["decisions"],
                "summary": "List journaled decisions",
                "parameters": [
                    {"type": "integer", "description": "page size", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "offset", "name": "offset", "in": "query"},
                    {"type": "string", "description": "accepted|rejected|service_error|state_error|cancelled", "name": "outcome", "in": "query"},
                    {"type": "string", "description": "optimize|auto|stream|ws|scheduled", "name": "source", "in": "query"},
                    {"type": "string", "description": "target vault address", "name": "target_vault", "in": "query"},
                    {"type": "string", "description": "RFC3339 lower bound on created_at", "name": "since", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.apiResponse"}}
                }
            }
        },
        "/api/decisions/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["decisions"],
                "summary": "Get one journaled decision",
                "parameters": [
                    {"type": "string", "description": "record id (uuid)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.apiResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.apiResponse"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/readyz": {
            "get": {
                "tags": ["health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "agent.Event": {
            "type": "object",
            "properties": {
                "decision": {"$ref": "#/definitions/domain.AllocationDecision"},
                "message": {"type": "string"},
                "type": {"type": "string", "enum": ["status", "info", "reasoning", "decision", "complete", "error"]}
            }
        },
        "domain.Allocation": {
            "type": "object",
            "properties": {
                "amount": {"type": "string"},
                "apy": {"type": "number"},
                "protocol": {"type": "string"},
                "vault": {"type": "string"}
            }
        },
        "domain.AllocationDecision": {
            "type": "object",
            "properties": {
                "amount": {"type": "string"},
                "confidence": {"type": "number"},
                "currentAPY": {"type": "number"},
                "expectedAPY": {"type": "number"},
                "improvement": {"type": "number"},
                "reasoning": {"type": "string"},
                "riskAssessment": {"type": "string"},
                "swapRequired": {"type": "boolean"},
                "targetProtocol": {"type": "string"},
                "targetVault": {"type": "string"}
            }
        },
        "domain.ConstraintsInput": {
            "type": "object",
            "properties": {
                "maxDilution": {"type": "number"},
                "minSharpe": {"type": "number"},
                "minTVL": {"type": "number"},
                "riskTolerance": {"type": "string", "enum": ["low", "medium", "high"]}
            }
        },
        "domain.VaultState": {
            "type": "object",
            "properties": {
                "currentAllocations": {"type": "array", "items": {"$ref": "#/definitions/domain.Allocation"}},
                "idleAssets": {"type": "string"},
                "totalAssets": {"type": "string"}
            }
        },
        "domain.YieldOpportunity": {
            "type": "object",
            "properties": {
                "apy": {"type": "number"},
                "dilutedApy": {"type": "number"},
                "isGlueXVault": {"type": "boolean"},
                "protocol": {"type": "string"},
                "risk": {"type": "string", "enum": ["low", "medium", "high"]},
                "tvl": {"type": "number"},
                "vaultAddress": {"type": "string"}
            }
        },
        "handler.apiResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "data": {},
                "message": {"type": "string"},
                "meta": {"type": "object", "additionalProperties": true}
            }
        },
        "handler.autoRequest": {
            "type": "object",
            "properties": {
                "constraints": {"$ref": "#/definitions/domain.ConstraintsInput"},
                "opportunities": {"type": "array", "items": {"$ref": "#/definitions/domain.YieldOpportunity"}}
            }
        },
        "handler.optimizeRequest": {
            "type": "object",
            "properties": {
                "constraints": {"$ref": "#/definitions/domain.ConstraintsInput"},
                "opportunities": {"type": "array", "items": {"$ref": "#/definitions/domain.YieldOpportunity"}},
                "vaultState": {"$ref": "#/definitions/domain.VaultState"}
            }
        },
        "handler.optimizeResponse": {
            "type": "object",
            "properties": {
                "decision": {"$ref": "#/definitions/domain.AllocationDecision"},
                "error": {"type": "string"},
                "model": {"type": "string"},
                "reason": {"type": "string"},
                "success": {"type": "boolean"},
                "timestamp": {"type": "integer"},
                "vaultState": {"$ref": "#/definitions/handler.vaultSummary"}
            }
        },
        "handler.vaultSummary": {
            "type": "object",
            "properties": {
                "allocationsCount": {"type": "integer"},
                "idleAssets": {"type": "string"},
                "totalAssets": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "superyield API",
	Description:      "Validated LLM allocation decisions for the SuperYield vault.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
