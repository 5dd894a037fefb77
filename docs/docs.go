// Package docs registers the OpenAPI description of the chat API with swag.
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
    "securityDefinitions": {
        "UserID": {
            "type": "apiKey",
            "name": "X-User-ID",
            "in": "header"
        }
    },
    "security": [{"UserID": []}],
    "paths": {
        "/chat": {
            "post": {
                "summary": "Send a chat message",
                "description": "Appends the message and the assistant reply to a session. A missing or temporary sessionId starts a new session.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["chat"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.ChatRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ChatReplyEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/models.Envelope"}}
                }
            }
        },
        "/chat/document": {
            "post": {
                "summary": "Ask about a document",
                "description": "Same as /chat with documentText or files attached; the assistant answers in document mode.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["chat"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.ChatRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ChatReplyEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/models.Envelope"}}
                }
            }
        },
        "/chat/sessions": {
            "get": {
                "summary": "List sessions",
                "description": "Sessions of the caller, most recently updated first.",
                "produces": ["application/json"],
                "tags": ["sessions"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.Envelope"}}
                }
            }
        },
        "/chat/session/{id}": {
            "get": {
                "summary": "Get a session",
                "produces": ["application/json"],
                "tags": ["sessions"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.Envelope"}}
                }
            },
            "delete": {
                "summary": "Delete a session",
                "produces": ["application/json"],
                "tags": ["sessions"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.Envelope"}}
                }
            }
        },
        "/chat/session/{id}/end": {
            "put": {
                "summary": "End a session",
                "produces": ["application/json"],
                "tags": ["sessions"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.Envelope"}}
                }
            }
        },
        "/chat/ws": {
            "get": {
                "summary": "Chat over WebSocket",
                "description": "Each {type: message, message, sessionId} frame runs one chat turn and is answered with {type: reply, data} or {type: error, message}.",
                "tags": ["chat"],
                "responses": {"101": {"description": "Switching Protocols"}}
            }
        }
    },
    "definitions": {
        "models.FileMeta": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "type": {"type": "string"},
                "size": {"type": "integer"},
                "pages": {"type": "integer"}
            }
        },
        "models.ChatRequest": {
            "type": "object",
            "required": ["message"],
            "properties": {
                "message": {"type": "string"},
                "sessionId": {"type": "string"},
                "files": {"type": "array", "items": {"$ref": "#/definitions/models.FileMeta"}},
                "documentText": {"type": "string"}
            }
        },
        "models.ChatReply": {
            "type": "object",
            "properties": {
                "sessionId": {"type": "string"},
                "title": {"type": "string"},
                "reply": {"type": "string"},
                "timestamp": {"type": "string", "format": "date-time"},
                "messageCount": {"type": "integer"}
            }
        },
        "models.ChatReplyEnvelope": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "message": {"type": "string"},
                "data": {"$ref": "#/definitions/models.ChatReply"}
            }
        },
        "models.Envelope": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "message": {"type": "string"},
                "data": {}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "CareerForge Chat API",
	Description:      "Chat sessions with the CareerForge career assistant.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
