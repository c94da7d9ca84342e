package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SUA Tracker API",
        "description": "Student service-hour tracking: claims, review, publicity, appeals, exports",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "tags": [
        {"name": "Auth", "description": "Login and token lifecycle"},
        {"name": "Students", "description": "Student accounts and profiles"},
        {"name": "Activities", "description": "Service activity catalog"},
        {"name": "Claims", "description": "Hour claim submission and review"},
        {"name": "Publicities", "description": "Publicity windows and rosters"},
        {"name": "Appeals", "description": "Appeals against published rosters"},
        {"name": "Exports", "description": "Transcripts and roster export jobs"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate with username and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate a refresh token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid or revoked refresh token"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "security": [{"BearerAuth": []}],
                "summary": "Revoke the presented refresh token",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "security": [{"BearerAuth": []}],
                "summary": "List students",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "grade", "in": "query", "type": "integer"},
                    {"name": "class_type", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "security": [{"BearerAuth": []}],
                "summary": "Create a student with a login account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Student number already exists"}
                }
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "security": [{"BearerAuth": []}],
                "summary": "Get a student profile",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Students"],
                "security": [{"BearerAuth": []}],
                "summary": "Update a student profile",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateStudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/activities": {
            "get": {
                "tags": ["Activities"],
                "security": [{"BearerAuth": []}],
                "summary": "List activities",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "is_valid", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Activities"],
                "security": [{"BearerAuth": []}],
                "summary": "Create an activity",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ActivityRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/claims": {
            "post": {
                "tags": ["Claims"],
                "security": [{"BearerAuth": []}],
                "summary": "Submit an hour claim",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitClaimRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Claim already exists for this activity"}
                }
            },
            "get": {
                "tags": ["Claims"],
                "security": [{"BearerAuth": []}],
                "summary": "List claims visible to the caller",
                "parameters": [
                    {"name": "checked", "in": "query", "type": "boolean"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/claims/{id}/review": {
            "post": {
                "tags": ["Claims"],
                "security": [{"BearerAuth": []}],
                "summary": "Approve or reject a pending claim",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Claim already reviewed"}
                }
            }
        },
        "/publicities/active": {
            "get": {
                "tags": ["Publicities"],
                "security": [{"BearerAuth": []}],
                "summary": "List currently open publicity windows",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/publicities/{id}/roster": {
            "get": {
                "tags": ["Publicities"],
                "security": [{"BearerAuth": []}],
                "summary": "Grouped roster for a publicity window",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Window not open"}
                }
            }
        },
        "/publicities/{id}/appeals": {
            "post": {
                "tags": ["Appeals"],
                "security": [{"BearerAuth": []}],
                "summary": "Submit an appeal against the named publicity",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitAppealRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Appeal window closed"}
                }
            }
        },
        "/appeals": {
            "post": {
                "tags": ["Appeals"],
                "security": [{"BearerAuth": []}],
                "summary": "Submit an appeal against a publicity window",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitAppealRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Appeal window closed"}
                }
            }
        },
        "/appeals/{id}/resolve": {
            "post": {
                "tags": ["Appeals"],
                "security": [{"BearerAuth": []}],
                "summary": "Resolve a pending appeal",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Appeal already resolved"}
                }
            }
        },
        "/exports/transcript": {
            "get": {
                "tags": ["Exports"],
                "security": [{"BearerAuth": []}],
                "summary": "Download a validated-hours transcript",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "student_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/exports/roster": {
            "post": {
                "tags": ["Exports"],
                "security": [{"BearerAuth": []}],
                "summary": "Queue an asynchronous roster export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRosterRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/jobs/{id}": {
            "get": {
                "tags": ["Exports"],
                "security": [{"BearerAuth": []}],
                "summary": "Poll an export job",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export with a signed token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File download"},
                    "410": {"description": "Token expired"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "RefreshTokenRequest": {
            "type": "object",
            "required": ["refresh_token"],
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "CreateStudentRequest": {
            "type": "object",
            "required": ["name", "number", "grade", "username", "password"],
            "properties": {
                "name": {"type": "string"},
                "number": {"type": "string"},
                "grade": {"type": "integer"},
                "class_type": {"type": "string"},
                "phone": {"type": "string"},
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "UpdateStudentRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "number": {"type": "string"},
                "grade": {"type": "integer"},
                "class_type": {"type": "string"},
                "phone": {"type": "string"}
            }
        },
        "ActivityRequest": {
            "type": "object",
            "required": ["title", "date"],
            "properties": {
                "title": {"type": "string"},
                "date": {"type": "string", "format": "date-time"},
                "detail": {"type": "string"},
                "group_name": {"type": "string"},
                "is_valid": {"type": "boolean"}
            }
        },
        "SubmitClaimRequest": {
            "type": "object",
            "required": ["activity_id"],
            "properties": {
                "activity_id": {"type": "string"},
                "team": {"type": "string"},
                "sua_hours": {"type": "number"},
                "contact": {"type": "string"},
                "offline": {"type": "boolean"},
                "proof_file_path": {"type": "string"}
            }
        },
        "ReviewRequest": {
            "type": "object",
            "required": ["approve"],
            "properties": {
                "approve": {"type": "boolean"},
                "feedback": {"type": "string"}
            }
        },
        "SubmitAppealRequest": {
            "type": "object",
            "required": ["publicity_id", "content"],
            "properties": {
                "publicity_id": {"type": "string"},
                "content": {"type": "string"}
            }
        },
        "ExportRosterRequest": {
            "type": "object",
            "required": ["publicity_id", "format"],
            "properties": {
                "publicity_id": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
