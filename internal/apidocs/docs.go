// Package apidocs registers the OpenAPI document served under /swagger/.
//
// Regenerate with: swag init -g cmd/xrayd/docs.go -o internal/apidocs --outputTypes go
package apidocs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "xrayd maintainers"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/analyze": {
            "post": {
                "description": "Upload an image as multipart field \"file\". Returns the predicted class, per-class probabilities in class-index order, and the report text for the predicted class.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["analyze"],
                "summary": "Classify a chest X-ray",
                "parameters": [
                    {
                        "type": "file",
                        "description": "X-ray image (JPEG, PNG, GIF, BMP, TIFF, WebP, AVIF)",
                        "name": "file",
                        "in": "formData",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.AnalyzeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/classes": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analyze"],
                "summary": "List output classes in index order",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ClassesResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ops"],
                "summary": "Engine status and counters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["ops"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "ok"}}
            }
        },
        "/readyz": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["ops"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "ready"},
                    "503": {"description": "loading"}
                }
            }
        }
    },
    "definitions": {
        "types.AnalyzeResponse": {
            "type": "object",
            "properties": {
                "prediction": {"description": "Predicted class label.", "type": "string", "example": "Pneumonia"},
                "probabilities": {
                    "description": "Softmax probabilities, index-aligned with GET /classes.",
                    "type": "array",
                    "items": {"type": "number"},
                    "example": [0.12, 0.81, 0.07]
                },
                "medical_report": {"description": "Report text keyed by the predicted class.", "type": "string", "example": "Comprehensive pneumonia evaluation..."}
            }
        },
        "types.ClassInfo": {
            "type": "object",
            "properties": {
                "index": {"type": "integer", "example": 1},
                "label": {"type": "string", "example": "Pneumonia"},
                "prompt": {"type": "string", "example": "an X-ray showing signs of pneumonia"}
            }
        },
        "types.ClassesResponse": {
            "type": "object",
            "properties": {
                "classes": {"type": "array", "items": {"$ref": "#/definitions/types.ClassInfo"}}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"description": "Error message.", "type": "string", "example": "No file uploaded"}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "example": "ready"},
                "device": {"type": "string", "example": "cpu"},
                "embedding_dim": {"type": "integer", "example": 512},
                "head_loaded": {"type": "boolean", "example": true},
                "queue_len": {"type": "integer", "example": 0},
                "inflight": {"type": "integer", "example": 1},
                "max_queue_depth": {"type": "integer", "example": 32},
                "requests_total": {"type": "integer", "example": 42},
                "predictions": {"type": "object", "additionalProperties": {"type": "integer"}},
                "last_error": {"type": "string"},
                "uptime_seconds": {"type": "integer", "example": 3600},
                "server_time_unix": {"type": "integer", "example": 1760600000}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "xrayd API",
	Description:      "Zero-shot CLIP chest X-ray classification service.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
