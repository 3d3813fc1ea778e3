// Package docs registers the OpenAPI document for the course management API.
// Regenerate with: swag init -g cmd/app/main.go -o docs
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
        "/auth/login": {
            "post": {
                "description": "Verifies credentials and returns a bearer token.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [
                    {
                        "description": "Login request",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AuthResponse"}},
                    "400": {"description": "Missing fields", "schema": {"$ref": "#/definitions/dto.MessageResponseDTO"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/dto.MessageResponseDTO"}}
                }
            }
        },
        "/auth/register": {
            "post": {
                "description": "Creates a student account and returns a bearer token.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a student",
                "parameters": [
                    {
                        "description": "Registration request",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.RegisterRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.AuthResponse"}},
                    "400": {"description": "Missing fields or email already registered", "schema": {"$ref": "#/definitions/dto.MessageResponseDTO"}},
                    "500": {"description": "JWT_SECRET is not configured", "schema": {"$ref": "#/definitions/dto.MessageResponseDTO"}}
                }
            }
        },
        "/courses": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Lists the authenticated student's courses, newest first.",
                "produces": ["application/json"],
                "tags": ["courses"],
                "summary": "List courses",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Case-insensitive match on name, description or instructor",
                        "name": "search",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.CourseResponseDTO"}}},
                    "401": {"description": "Not authorized", "schema": {"$ref": "#/definitions/dto.MessageResponseDTO"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Creates a new course owned by the authenticated student.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["courses"],
                "summary": "Create a new course",
                "parameters": [
                    {
                        "description": "Course creation request",
                        "name": "course",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.CourseCreateDTO"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.CourseResponseDTO"}},
                    "400": {"description": "Invalid JSON payload or missing fields", "schema": {"$ref": "#/definitions/dto.MessageResponseDTO"}},
                    "401": {"description": "Not authorized", "schema": {"$ref": "#/definitions/dto.MessageResponseDTO"}}
                }
            }
        },
        "/courses/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Deletes a course owned by the authenticated student.",
                "produces": ["application/json"],
                "tags": ["courses"],
                "summary": "Delete a course",
                "parameters": [
                    {"type": "string", "description": "Course ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.MessageResponseDTO"}},
                    "401": {"description": "Not authorized", "schema": {"$ref": "#/definitions/dto.MessageResponseDTO"}},
                    "403": {"description": "Not authorized to delete this course", "schema": {"$ref": "#/definitions/dto.MessageResponseDTO"}},
                    "404": {"description": "Course not found", "schema": {"$ref": "#/definitions/dto.MessageResponseDTO"}}
                }
            }
        }
    },
    "definitions": {
        "dto.AuthResponse": {
            "type": "object",
            "properties": {
                "_id": {"type": "string"},
                "email": {"type": "string"},
                "name": {"type": "string"},
                "token": {"type": "string"}
            }
        },
        "dto.CourseCreateDTO": {
            "type": "object",
            "required": ["courseDescription", "courseName", "instructor"],
            "properties": {
                "courseDescription": {"type": "string"},
                "courseName": {"type": "string"},
                "instructor": {"type": "string"}
            }
        },
        "dto.CourseResponseDTO": {
            "type": "object",
            "properties": {
                "_id": {"type": "string"},
                "courseDescription": {"type": "string"},
                "courseName": {"type": "string"},
                "createdAt": {"type": "string"},
                "createdBy": {"type": "string"},
                "instructor": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "dto.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "dto.MessageResponseDTO": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        },
        "dto.RegisterRequest": {
            "type": "object",
            "required": ["email", "name", "password"],
            "properties": {
                "email": {"type": "string"},
                "name": {"type": "string"},
                "password": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:5000",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "Student Course Management API",
	Description:      "Student registration, login and owner-scoped course records.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
