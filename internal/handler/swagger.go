package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/ledgerly/ledgerly-backend/docs"
	"github.com/swaggo/swag"
)

// OpenAPI3Spec represents an OpenAPI 3.0 spec structure
type OpenAPI3Spec struct {
	OpenAPI    string                 `json:"openapi"`
	Info       map[string]interface{} `json:"info"`
	Servers    []Server               `json:"servers"`
	Paths      map[string]interface{} `json:"paths"`
	Components map[string]interface{} `json:"components,omitempty"`
}

// Server represents an OpenAPI 3.0 server
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// DefaultServers are advertised when no servers are configured
var DefaultServers = []Server{
	{URL: "http://localhost:8080/api/v1", Description: "Local Development"},
	{URL: "https://api.ledgerly.app/api/v1", Description: "Production"},
}

// transformRefs recursively rewrites $ref from #/definitions/ to
// #/components/schemas/ and converts Swagger 2.0 parameters
func transformRefs(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{})

		// Parameter objects carry "in" and "name"
		if _, hasIn := v["in"]; hasIn {
			if _, hasName := v["name"]; hasName {
				return transformParameter(v)
			}
		}

		for key, value := range v {
			if key == "$ref" {
				if ref, ok := value.(string); ok {
					result[key] = strings.Replace(ref, "#/definitions/", "#/components/schemas/", 1)
				} else {
					result[key] = value
				}
			} else {
				result[key] = transformRefs(value)
			}
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = transformRefs(item)
		}
		return result
	default:
		return data
	}
}

// transformParameter converts a Swagger 2.0 parameter to OpenAPI 3.0 format
func transformParameter(param map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})

	for _, field := range []string{"name", "in", "description", "required"} {
		if val, ok := param[field]; ok {
			result[field] = val
		}
	}

	// Body and form parameters become a requestBody in transformOperation
	if param["in"] == "body" || param["in"] == "formData" {
		return param
	}

	schema := make(map[string]interface{})
	for _, field := range []string{"type", "format", "enum", "default", "minimum", "maximum", "items"} {
		if val, ok := param[field]; ok {
			if field == "items" {
				schema[field] = transformRefs(val)
			} else {
				schema[field] = val
			}
		}
	}

	if len(schema) > 0 {
		result["schema"] = schema
	}

	return result
}

// transformOperation moves body and formData parameters of an operation
// into an OpenAPI 3.0 requestBody
func transformOperation(op map[string]interface{}) map[string]interface{} {
	params, _ := op["parameters"].([]interface{})
	if len(params) == 0 {
		return op
	}

	kept := make([]interface{}, 0, len(params))
	formProps := make(map[string]interface{})
	var formRequired []interface{}
	for _, p := range params {
		param, ok := p.(map[string]interface{})
		if !ok {
			kept = append(kept, p)
			continue
		}
		switch param["in"] {
		case "body":
			op["requestBody"] = map[string]interface{}{
				"description": param["description"],
				"required":    param["required"],
				"content": map[string]interface{}{
					"application/json": map[string]interface{}{
						"schema": transformRefs(param["schema"]),
					},
				},
			}
		case "formData":
			name, _ := param["name"].(string)
			prop := map[string]interface{}{"type": param["type"]}
			if param["type"] == "file" {
				prop = map[string]interface{}{"type": "string", "format": "binary"}
			}
			formProps[name] = prop
			if required, _ := param["required"].(bool); required {
				formRequired = append(formRequired, name)
			}
		default:
			kept = append(kept, param)
		}
	}

	if len(formProps) > 0 {
		schema := map[string]interface{}{"type": "object", "properties": formProps}
		if len(formRequired) > 0 {
			schema["required"] = formRequired
		}
		op["requestBody"] = map[string]interface{}{
			"content": map[string]interface{}{
				"multipart/form-data": map[string]interface{}{"schema": schema},
			},
		}
	}

	if len(kept) > 0 {
		op["parameters"] = kept
	} else {
		delete(op, "parameters")
	}
	return op
}

// transformPaths converts every operation of a Swagger 2.0 paths object
func transformPaths(paths map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(paths))
	for path, item := range paths {
		methods, ok := transformRefs(item).(map[string]interface{})
		if !ok {
			result[path] = item
			continue
		}
		for method, op := range methods {
			if operation, ok := op.(map[string]interface{}); ok {
				methods[method] = transformOperation(operation)
			}
		}
		result[path] = methods
	}
	return result
}

// convertSwagger2 converts a Swagger 2.0 document to OpenAPI 3.0
func convertSwagger2(doc string, servers []Server) (*OpenAPI3Spec, error) {
	var swagger2 map[string]interface{}
	if err := json.Unmarshal([]byte(doc), &swagger2); err != nil {
		return nil, err
	}

	info, _ := swagger2["info"].(map[string]interface{})
	paths, _ := swagger2["paths"].(map[string]interface{})

	components := make(map[string]interface{})
	if secDefs, ok := swagger2["securityDefinitions"].(map[string]interface{}); ok {
		components["securitySchemes"] = secDefs
	}
	if definitions, ok := swagger2["definitions"].(map[string]interface{}); ok {
		components["schemas"] = transformRefs(definitions)
	}

	return &OpenAPI3Spec{
		OpenAPI:    "3.0.3",
		Info:       info,
		Servers:    servers,
		Paths:      transformPaths(paths),
		Components: components,
	}, nil
}

// ServeOpenAPI3Spec serves the swagger spec converted to OpenAPI 3.0
func ServeOpenAPI3Spec(c echo.Context) error {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		return NewInternalError(c, "Failed to read swagger doc")
	}

	spec, err := convertSwagger2(doc, DefaultServers)
	if err != nil {
		return NewInternalError(c, "Failed to parse swagger doc")
	}
	return c.JSON(http.StatusOK, spec)
}
