package handler

import (
	"encoding/json"
	"net/http"
	"testing"
)

const testSwaggerDoc = `{
	"swagger": "2.0",
	"info": {"title": "Test API", "version": "1.0"},
	"securityDefinitions": {"BearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}},
	"paths": {
		"/expenses/{id}": {
			"put": {
				"parameters": [
					{"type": "integer", "description": "Expense ID", "name": "id", "in": "path", "required": true},
					{"description": "Expense", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.ExpenseRequest"}}
				],
				"responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ExpenseResponse"}}}
			}
		},
		"/expenses/{id}/receipt": {
			"post": {
				"parameters": [
					{"type": "integer", "name": "id", "in": "path", "required": true},
					{"type": "file", "description": "Receipt image", "name": "file", "in": "formData", "required": true}
				],
				"responses": {"200": {"description": "OK"}}
			}
		}
	},
	"definitions": {
		"handler.ExpenseRequest": {"type": "object", "properties": {"title": {"type": "string"}}},
		"handler.ExpenseResponse": {"type": "object", "properties": {"id": {"type": "integer"}}}
	}
}`

func TestConvertSwagger2(t *testing.T) {
	spec, err := convertSwagger2(testSwaggerDoc, DefaultServers)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if spec.OpenAPI != "3.0.3" {
		t.Errorf("Expected openapi 3.0.3, got %s", spec.OpenAPI)
	}
	if len(spec.Servers) != len(DefaultServers) {
		t.Errorf("Expected %d servers, got %d", len(DefaultServers), len(spec.Servers))
	}
	if _, ok := spec.Components["securitySchemes"]; !ok {
		t.Error("Expected security schemes to be carried over")
	}

	// Round-trip through JSON to walk the result generically
	data, err := json.Marshal(spec)
	if err != nil {
		t.Fatalf("Failed to marshal spec: %v", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Failed to unmarshal spec: %v", err)
	}

	paths := doc["paths"].(map[string]interface{})
	put := paths["/expenses/{id}"].(map[string]interface{})["put"].(map[string]interface{})

	params := put["parameters"].([]interface{})
	if len(params) != 1 {
		t.Fatalf("Expected only the path parameter to remain, got %d", len(params))
	}
	idParam := params[0].(map[string]interface{})
	if schema, ok := idParam["schema"].(map[string]interface{}); !ok || schema["type"] != "integer" {
		t.Errorf("Expected path parameter schema of type integer, got %v", idParam["schema"])
	}

	body := put["requestBody"].(map[string]interface{})
	content := body["content"].(map[string]interface{})["application/json"].(map[string]interface{})
	ref := content["schema"].(map[string]interface{})["$ref"]
	if ref != "#/components/schemas/handler.ExpenseRequest" {
		t.Errorf("Expected rewritten body $ref, got %v", ref)
	}

	responses := put["responses"].(map[string]interface{})
	respSchema := responses["200"].(map[string]interface{})["schema"].(map[string]interface{})
	if respSchema["$ref"] != "#/components/schemas/handler.ExpenseResponse" {
		t.Errorf("Expected rewritten response $ref, got %v", respSchema["$ref"])
	}

	post := paths["/expenses/{id}/receipt"].(map[string]interface{})["post"].(map[string]interface{})
	multipart := post["requestBody"].(map[string]interface{})["content"].(map[string]interface{})["multipart/form-data"].(map[string]interface{})
	props := multipart["schema"].(map[string]interface{})["properties"].(map[string]interface{})
	file := props["file"].(map[string]interface{})
	if file["type"] != "string" || file["format"] != "binary" {
		t.Errorf("Expected file property as binary string, got %v", file)
	}
}

func TestConvertSwagger2_InvalidJSON(t *testing.T) {
	if _, err := convertSwagger2("{", DefaultServers); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestServeOpenAPI3Spec(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/openapi.json", "")
	err := ServeOpenAPI3Spec(c)
	expectStatus(t, err, rec, http.StatusOK)

	var spec OpenAPI3Spec
	decode(t, rec, &spec)
	if spec.OpenAPI != "3.0.3" {
		t.Errorf("Expected openapi 3.0.3, got %s", spec.OpenAPI)
	}
	if spec.Info["title"] != "Ledgerly API" {
		t.Errorf("Expected title Ledgerly API, got %v", spec.Info["title"])
	}
	if _, ok := spec.Paths["/expenses"]; !ok {
		t.Error("Expected /expenses path in the converted spec")
	}
}
