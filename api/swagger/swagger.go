package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Faculty API",
        "description": "Faculty request lifecycle and conflict resolution service",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Permissions", "description": "Student leave and on-duty permissions"},
        {"name": "CoverRequests", "description": "Substitution and swap requests"},
        {"name": "Notifications", "description": "In-app notification feed"},
        {"name": "Outbox", "description": "Queued offline actions"},
        {"name": "Watchlist", "description": "Critical-student absence watchlist"},
        {"name": "Sessions", "description": "Attendance session timetable"}
    ],
    "paths": {
        "/permissions": {
            "get": {
                "tags": ["Permissions"],
                "summary": "List permissions",
                "parameters": [
                    {"name": "student_id", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "date_from", "in": "query", "type": "string"},
                    {"name": "date_to", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Permissions"],
                "summary": "Grant a permission",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GrantPermissionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Queued for replay", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Overlapping active permission", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/permissions/{id}": {
            "put": {
                "tags": ["Permissions"],
                "summary": "Update a permission",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdatePermissionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Overlapping active permission", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Permissions"],
                "summary": "Revoke a permission",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/cover-requests": {
            "get": {
                "tags": ["CoverRequests"],
                "summary": "List the caller's requests",
                "parameters": [
                    {"name": "box", "in": "query", "type": "string", "description": "inbox or outbox"},
                    {"name": "kind", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["CoverRequests"],
                "summary": "Create a substitution or swap request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCoverRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Queued for replay", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cover-requests/{id}/respond": {
            "post": {
                "tags": ["CoverRequests"],
                "summary": "Accept or decline a pending request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RespondCoverRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Schedule conflict, retry with override", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cover-requests/{id}/cancel": {
            "post": {
                "tags": ["CoverRequests"],
                "summary": "Cancel a pending request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cover-requests/{id}/hide": {
            "post": {
                "tags": ["CoverRequests"],
                "summary": "Hide a request from the caller's view",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List the caller's notifications",
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications/{id}": {
            "delete": {
                "tags": ["Notifications"],
                "summary": "Delete a notification",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/notifications/{id}/hide": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Hide a notification",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/outbox": {
            "get": {
                "tags": ["Outbox"],
                "summary": "Queued action status",
                "parameters": [
                    {"name": "include_actions", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/outbox/flush": {
            "post": {
                "tags": ["Outbox"],
                "summary": "Replay queued actions now",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/watchlist": {
            "get": {
                "tags": ["Watchlist"],
                "summary": "Current critical-student watchlist",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/watchlist/export": {
            "get": {
                "tags": ["Watchlist"],
                "summary": "Export the watchlist",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "description": "csv or pdf"}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/sessions": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List the caller's attendance sessions",
                "parameters": [
                    {"name": "date_from", "in": "query", "type": "string"},
                    {"name": "date_to", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GrantPermissionRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "type": {"type": "string", "enum": ["LEAVE", "OD"]},
                "category": {"type": "string", "enum": ["SPORTS", "CULTURAL", "SYMPOSIUM", "OTHER"]},
                "reason": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"}
            },
            "required": ["student_id", "type", "start_date", "end_date"]
        },
        "UpdatePermissionRequest": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "reason": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"}
            }
        },
        "CreateCoverRequest": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["SUBSTITUTION", "SWAP"]},
                "receiver_id": {"type": "string"},
                "date": {"type": "string"},
                "slot_id": {"type": "string"},
                "sender_slot_id": {"type": "string"},
                "receiver_slot_id": {"type": "string"},
                "reason": {"type": "string"}
            },
            "required": ["kind", "receiver_id", "date"]
        },
        "RespondCoverRequest": {
            "type": "object",
            "properties": {
                "action": {"type": "string", "enum": ["ACCEPT", "DECLINE"]},
                "override": {"type": "boolean"}
            },
            "required": ["action"]
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
                "pagination": {"type": "object"},
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
