package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Recruiting CRM API",
        "description": "Multi-tenant recruiting pipeline service",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Pipeline", "description": "Candidate applications moving through hiring stages"}
    ],
    "paths": {
        "/pipeline": {
            "get": {
                "tags": ["Pipeline"],
                "summary": "List pipeline entries",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "positionId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["active", "hired", "passed", "withdrawn"]},
                    {"name": "stageId", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer", "default": 50, "maximum": 500},
                    {"name": "offset", "in": "query", "type": "integer", "default": 0}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid filter", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Pipeline"],
                "summary": "Add a candidate to a position pipeline",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePipelineEntryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload or duplicate application", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Candidate, position or stage not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pipeline/export": {
            "get": {
                "tags": ["Pipeline"],
                "summary": "Export the filtered pipeline",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "positionId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "stageId", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pipeline/bulk-move": {
            "put": {
                "tags": ["Pipeline"],
                "summary": "Move several pipeline entries to one stage",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkMoveRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Stage not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pipeline/bulk-update": {
            "put": {
                "tags": ["Pipeline"],
                "summary": "Apply one patch to several pipeline entries",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkUpdateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid patch", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pipeline/{id}": {
            "get": {
                "tags": ["Pipeline"],
                "summary": "Get a pipeline entry",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Pipeline"],
                "summary": "Update a pipeline entry",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdatePipelineEntryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid patch", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Pipeline"],
                "summary": "Delete a pipeline entry",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Deleted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pipeline/{id}/move": {
            "put": {
                "tags": ["Pipeline"],
                "summary": "Move a pipeline entry to another stage",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MovePipelineEntryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Entry or stage not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreatePipelineEntryRequest": {
            "type": "object",
            "required": ["candidateId", "positionId"],
            "properties": {
                "candidateId": {"type": "string"},
                "positionId": {"type": "string"},
                "stageId": {"type": "string"},
                "status": {"type": "string"},
                "rating": {"type": "integer", "minimum": 0, "maximum": 5},
                "notes": {"type": "string"},
                "interviewDate": {"type": "string", "format": "date-time"},
                "customFields": {"type": "object"}
            }
        },
        "UpdatePipelineEntryRequest": {
            "type": "object",
            "properties": {
                "stageId": {"type": "string"},
                "status": {"type": "string", "enum": ["active", "hired", "passed", "withdrawn"]},
                "rating": {"type": "integer", "minimum": 0, "maximum": 5},
                "notes": {"type": "string"},
                "interviewDate": {"type": "string", "format": "date-time"},
                "offerDetails": {"type": "object"},
                "rejectionReason": {"type": "string"},
                "customFields": {"type": "object"}
            }
        },
        "MovePipelineEntryRequest": {
            "type": "object",
            "required": ["stageId"],
            "properties": {
                "stageId": {"type": "string"}
            }
        },
        "BulkMoveRequest": {
            "type": "object",
            "required": ["ids", "stageId"],
            "properties": {
                "ids": {"type": "array", "items": {"type": "string"}},
                "stageId": {"type": "string"}
            }
        },
        "BulkUpdateRequest": {
            "type": "object",
            "required": ["ids", "patch"],
            "properties": {
                "ids": {"type": "array", "items": {"type": "string"}},
                "patch": {"$ref": "#/definitions/UpdatePipelineEntryRequest"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "limit": {"type": "integer"},
                "offset": {"type": "integer"},
                "total": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
