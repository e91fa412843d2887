// Package docs holds the OpenAPI description served by gin-swagger.
// It follows the layout swag init emits; keep it in step with the handler annotations.
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
		"/program": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Program"
				],
				"summary": "Get current program",
				"responses": {
					"200": {
						"description": "Get current program",
						"schema": {
							"$ref": "#/definitions/utils.APIResponse"
						}
					}
				}
			},
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Program"
				],
				"summary": "New program",
				"responses": {
					"201": {
						"description": "New program",
						"schema": {
							"$ref": "#/definitions/utils.APIResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Program version",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.NewProgramRequest"
						}
					}
				]
			}
		},
		"/program/version": {
			"put": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Program"
				],
				"summary": "Set program version",
				"responses": {
					"200": {
						"description": "Set program version",
						"schema": {
							"$ref": "#/definitions/utils.APIResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Program version",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.NewProgramRequest"
						}
					}
				]
			}
		},
		"/program/commands": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Program"
				],
				"summary": "Add command",
				"responses": {
					"201": {
						"description": "Add command",
						"schema": {
							"$ref": "#/definitions/utils.APIResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Command",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.AddCommandRequest"
						}
					}
				]
			}
		},
		"/program/commands/{id}": {
			"delete": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Program"
				],
				"summary": "Remove command",
				"responses": {
					"200": {
						"description": "Remove command",
						"schema": {
							"$ref": "#/definitions/utils.APIResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "Command ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/program/estimate": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Program"
				],
				"summary": "Estimate program duration",
				"responses": {
					"200": {
						"description": "Estimate program duration",
						"schema": {
							"$ref": "#/definitions/utils.APIResponse"
						}
					}
				}
			}
		},
		"/programs": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Programs"
				],
				"summary": "List stored programs",
				"responses": {
					"200": {
						"description": "List stored programs",
						"schema": {
							"$ref": "#/definitions/utils.APIResponse"
						}
					}
				}
			},
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Programs"
				],
				"summary": "Save current program",
				"responses": {
					"201": {
						"description": "Save current program",
						"schema": {
							"$ref": "#/definitions/utils.APIResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Program name",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.SaveProgramRequest"
						}
					}
				]
			}
		},
		"/programs/{name}": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Programs"
				],
				"summary": "Export program",
				"responses": {
					"200": {
						"description": "Export program",
						"schema": {
							"$ref": "#/definitions/utils.APIResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "Program name",
						"name": "name",
						"in": "path",
						"required": true
					}
				]
			},
			"put": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Programs"
				],
				"summary": "Import program",
				"responses": {
					"200": {
						"description": "Import program",
						"schema": {
							"$ref": "#/definitions/utils.APIResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Program name",
						"name": "name",
						"in": "path",
						"required": true
					},
					{
						"description": "Program document",
						"name": "document",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				]
			},
			"delete": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Programs"
				],
				"summary": "Delete program",
				"responses": {
					"200": {
						"description": "Delete program",
						"schema": {
							"$ref": "#/definitions/utils.APIResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "Program name",
						"name": "name",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/programs/{name}/load": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Programs"
				],
				"summary": "Load program",
				"responses": {
					"200": {
						"description": "Load program",
						"schema": {
							"$ref": "#/definitions/utils.APIResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Program name",
						"name": "name",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/device/ports": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Device"
				],
				"summary": "List serial ports",
				"responses": {
					"200": {
						"description": "List serial ports",
						"schema": {
							"$ref": "#/definitions/utils.APIResponse"
						}
					}
				}
			}
		},
		"/device/status": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Device"
				],
				"summary": "Link status",
				"responses": {
					"200": {
						"description": "Link status",
						"schema": {
							"$ref": "#/definitions/utils.APIResponse"
						}
					}
				}
			}
		},
		"/device/connect": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Device"
				],
				"summary": "Connect",
				"responses": {
					"202": {
						"description": "Handshake started",
						"schema": {
							"$ref": "#/definitions/utils.APIResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Serial port",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.ConnectRequest"
						}
					}
				]
			}
		},
		"/device/disconnect": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Device"
				],
				"summary": "Disconnect",
				"responses": {
					"200": {
						"description": "Disconnect",
						"schema": {
							"$ref": "#/definitions/utils.APIResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				]
			}
		},
		"/device/settings": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Device"
				],
				"summary": "Settings defaults",
				"responses": {
					"200": {
						"description": "Settings defaults",
						"schema": {
							"$ref": "#/definitions/utils.APIResponse"
						}
					}
				}
			},
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Device"
				],
				"summary": "Send settings",
				"responses": {
					"200": {
						"description": "Send settings",
						"schema": {
							"$ref": "#/definitions/utils.APIResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Settings",
						"name": "request",
						"in": "body",
						"required": false,
						"schema": {
							"$ref": "#/definitions/service.SettingsRequest"
						}
					}
				]
			}
		},
		"/discovery/scan": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Discovery"
				],
				"summary": "Scan for ports",
				"responses": {
					"200": {
						"description": "Scan for ports",
						"schema": {
							"$ref": "#/definitions/utils.APIResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"default": "all",
						"description": "Scanner type",
						"name": "type",
						"in": "query"
					}
				]
			}
		},
		"/discovery/scanners": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Discovery"
				],
				"summary": "Get scanners",
				"responses": {
					"200": {
						"description": "Get scanners",
						"schema": {
							"$ref": "#/definitions/utils.APIResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"utils.APIError": {
			"type": "object",
			"properties": {
				"code": {
					"type": "string"
				},
				"message": {
					"type": "string"
				},
				"details": {
					"type": "string"
				}
			}
		},
		"utils.APIResponse": {
			"type": "object",
			"properties": {
				"success": {
					"type": "boolean"
				},
				"message": {
					"type": "string"
				},
				"data": {},
				"error": {
					"$ref": "#/definitions/utils.APIError"
				},
				"timestamp": {
					"type": "string"
				},
				"request_id": {
					"type": "string"
				}
			}
		},
		"handler.NewProgramRequest": {
			"type": "object",
			"properties": {
				"version": {
					"type": "string"
				}
			}
		},
		"handler.AddCommandRequest": {
			"type": "object",
			"required": [
				"command"
			],
			"properties": {
				"command": {
					"type": "string",
					"enum": [
						"UP",
						"DOWN",
						"IDLE_US"
					]
				},
				"args": {
					"type": "array",
					"items": {
						"type": "number"
					}
				}
			}
		},
		"handler.SaveProgramRequest": {
			"type": "object",
			"required": [
				"name"
			],
			"properties": {
				"name": {
					"type": "string"
				}
			}
		},
		"handler.ConnectRequest": {
			"type": "object",
			"required": [
				"port"
			],
			"properties": {
				"port": {
					"type": "string"
				}
			}
		},
		"service.SettingsRequest": {
			"type": "object",
			"properties": {
				"steps_per_mm": {
					"type": "integer"
				},
				"driver_steps_division": {
					"type": "integer"
				},
				"max_speed": {
					"type": "number"
				},
				"invert_direction": {
					"type": "integer",
					"enum": [
						0,
						1
					]
				},
				"invert_enable": {
					"type": "integer",
					"enum": [
						0,
						1
					]
				},
				"log_level": {
					"type": "string",
					"enum": [
						"NO_LOG",
						"INFO",
						"DEBUG"
					]
				}
			}
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8084",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Dip Coater Service API",
	Description:      "Program editor, storage and serial link for the dip coater controller",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
