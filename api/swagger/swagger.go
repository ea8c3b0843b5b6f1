package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Admin API",
        "description": "CSV imports for the school admin platform",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Imports", "description": "Roster, taxonomy and ClassCard CSV imports"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "security": [],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "security": [],
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unavailable"}
                }
            }
        },
        "/api/v1/imports/taxonomy": {
            "post": {
                "tags": ["Imports"],
                "summary": "Import the qualification taxonomy",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TaxonomyImportSummary"}},
                    "400": {"description": "Missing file, malformed header or invalid rows", "schema": {"$ref": "#/definitions/ImportError"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Data access failure", "schema": {"$ref": "#/definitions/ImportError"}}
                }
            }
        },
        "/api/v1/imports/teachers": {
            "post": {
                "tags": ["Imports"],
                "summary": "Import the teacher roster",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/RosterImportSummary"}},
                    "400": {"description": "Missing file, malformed header or invalid rows", "schema": {"$ref": "#/definitions/ImportError"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Data access failure", "schema": {"$ref": "#/definitions/ImportError"}}
                }
            }
        },
        "/api/v1/imports/students": {
            "post": {
                "tags": ["Imports"],
                "summary": "Import the student roster",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/RosterImportSummary"}},
                    "400": {"description": "Missing file, malformed header or invalid rows", "schema": {"$ref": "#/definitions/ImportError"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Data access failure", "schema": {"$ref": "#/definitions/ImportError"}}
                }
            }
        },
        "/api/v1/imports/classcard/staff": {
            "post": {
                "tags": ["Imports"],
                "summary": "Import a ClassCard staff export",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/RosterImportSummary"}},
                    "400": {"description": "Missing file, malformed header or invalid rows", "schema": {"$ref": "#/definitions/ImportError"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Data access failure", "schema": {"$ref": "#/definitions/ImportError"}}
                }
            }
        },
        "/api/v1/imports/classcard/students": {
            "post": {
                "tags": ["Imports"],
                "summary": "Import a ClassCard student export",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/RosterImportSummary"}},
                    "400": {"description": "Missing file, malformed header or invalid rows", "schema": {"$ref": "#/definitions/ImportError"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Data access failure", "schema": {"$ref": "#/definitions/ImportError"}}
                }
            }
        },
        "/api/v1/imports/classcard/schedule": {
            "post": {
                "tags": ["Imports"],
                "summary": "Import a ClassCard lesson schedule export",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ScheduleImportSummary"}},
                    "400": {"description": "Missing file, malformed header or invalid rows", "schema": {"$ref": "#/definitions/ImportError"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Data access failure", "schema": {"$ref": "#/definitions/ImportError"}}
                }
            }
        },
        "/api/v1/imports/templates/{kind}": {
            "get": {
                "tags": ["Imports"],
                "summary": "Download a CSV template",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "kind", "in": "path", "type": "string", "required": true,
                     "enum": ["taxonomy", "teachers", "students", "classcard-staff", "classcard-students", "classcard-schedule"]}
                ],
                "responses": {
                    "200": {"description": "CSV file"},
                    "404": {"description": "Unknown kind", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/imports/history": {
            "get": {
                "tags": ["Imports"],
                "summary": "List recent import runs",
                "parameters": [
                    {"name": "kind", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "History disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/imports/history/{id}": {
            "get": {
                "tags": ["Imports"],
                "summary": "Get one import run",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/imports/history/{id}/report.pdf": {
            "get": {
                "tags": ["Imports"],
                "summary": "Download an import run report",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "PDF file"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ScheduleImportSummary": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "classesCreated": {"type": "integer"},
                "classesUpdated": {"type": "integer"},
                "schedulesCreated": {"type": "integer"},
                "studentsLinked": {"type": "integer"},
                "errorCount": {"type": "integer"},
                "errors": {"type": "array", "items": {"type": "string"}}
            }
        },
        "RosterImportSummary": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "created": {"type": "integer"},
                "updated": {"type": "integer"},
                "skipped": {"type": "integer"},
                "errorCount": {"type": "integer"},
                "errors": {"type": "array", "items": {"type": "string"}}
            }
        },
        "TaxonomyImportSummary": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "qualificationsCreated": {"type": "integer"},
                "examBoardsCreated": {"type": "integer"},
                "subjectsCreated": {"type": "integer"},
                "topicsCreated": {"type": "integer"},
                "subtopicsCreated": {"type": "integer"},
                "errorCount": {"type": "integer"},
                "errors": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ImportError": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "errors": {"type": "array", "items": {"type": "string"}}
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
