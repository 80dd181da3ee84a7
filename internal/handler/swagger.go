package handler

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/dafibh/lunas/lunas-backend/docs"
	"github.com/labstack/echo/v4"
	"github.com/swaggo/swag"
)

const apiBasePath = "/api/v1"

// OpenAPIDocument is the OpenAPI 3.0 rendering of the swag document
type OpenAPIDocument struct {
	OpenAPI    string                 `json:"openapi"`
	Info       map[string]interface{} `json:"info"`
	Servers    []Server               `json:"servers"`
	Paths      map[string]interface{} `json:"paths"`
	Components map[string]interface{} `json:"components,omitempty"`
}

// Server is an OpenAPI 3.0 server entry
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// APIServers lists the base URLs advertised to API clients. The local server
// is always present; publicURL adds the deployed one when set.
func APIServers(port, publicURL string) []Server {
	servers := []Server{{
		URL:         "http://localhost:" + port + apiBasePath,
		Description: "Local",
	}}
	if publicURL = strings.TrimRight(strings.TrimSpace(publicURL), "/"); publicURL != "" {
		servers = append(servers, Server{URL: publicURL + apiBasePath, Description: "Public"})
	}
	return servers
}

// OpenAPIHandler serves the API documentation as OpenAPI 3.0
type OpenAPIHandler struct {
	servers []Server
}

func NewOpenAPIHandler(servers []Server) *OpenAPIHandler {
	return &OpenAPIHandler{servers: servers}
}

// ServeDocument converts the registered Swagger 2.0 document and returns it
func (h *OpenAPIHandler) ServeDocument(c echo.Context) error {
	raw, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		return NewInternalError(c, "Failed to read API documentation")
	}

	var swagger2 map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &swagger2); err != nil {
		return NewInternalError(c, "Failed to parse API documentation")
	}

	return c.JSON(http.StatusOK, convertSwagger2(swagger2, h.servers))
}

func convertSwagger2(swagger2 map[string]interface{}, servers []Server) OpenAPIDocument {
	info, _ := swagger2["info"].(map[string]interface{})

	paths := make(map[string]interface{})
	if src, ok := swagger2["paths"].(map[string]interface{}); ok {
		for path, item := range src {
			methods, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			converted := make(map[string]interface{}, len(methods))
			for method, op := range methods {
				if opMap, ok := op.(map[string]interface{}); ok {
					converted[method] = convertOperation(opMap)
				}
			}
			paths[path] = converted
		}
	}

	components := make(map[string]interface{})
	if secDefs, ok := swagger2["securityDefinitions"].(map[string]interface{}); ok {
		components["securitySchemes"] = convertSecuritySchemes(secDefs)
	}
	if definitions, ok := swagger2["definitions"].(map[string]interface{}); ok {
		components["schemas"] = rewriteRefs(definitions)
	}

	return OpenAPIDocument{
		OpenAPI:    "3.0.3",
		Info:       info,
		Servers:    servers,
		Paths:      paths,
		Components: components,
	}
}

// convertOperation moves body and formData parameters into requestBody and
// wraps response schemas in a content map keyed by media type.
func convertOperation(op map[string]interface{}) map[string]interface{} {
	consumes := firstString(op["consumes"], "application/json")
	produces := firstString(op["produces"], "application/json")

	out := make(map[string]interface{})
	for key, value := range op {
		switch key {
		case "consumes", "produces", "parameters", "responses":
		default:
			out[key] = rewriteRefs(value)
		}
	}

	var params []interface{}
	var formRequired []string
	formProps := make(map[string]interface{})

	rawParams, _ := op["parameters"].([]interface{})
	for _, p := range rawParams {
		param, ok := p.(map[string]interface{})
		if !ok {
			continue
		}
		switch param["in"] {
		case "body":
			out["requestBody"] = map[string]interface{}{
				"description": param["description"],
				"required":    param["required"] == true,
				"content": map[string]interface{}{
					consumes: map[string]interface{}{"schema": rewriteRefs(param["schema"])},
				},
			}
		case "formData":
			name, _ := param["name"].(string)
			formProps[name] = parameterSchema(param)
			if param["required"] == true {
				formRequired = append(formRequired, name)
			}
		default:
			params = append(params, convertParameter(param))
		}
	}
	if len(params) > 0 {
		out["parameters"] = params
	}
	if len(formProps) > 0 {
		schema := map[string]interface{}{"type": "object", "properties": formProps}
		if len(formRequired) > 0 {
			sort.Strings(formRequired)
			schema["required"] = formRequired
		}
		out["requestBody"] = map[string]interface{}{
			"required": len(formRequired) > 0,
			"content": map[string]interface{}{
				consumes: map[string]interface{}{"schema": schema},
			},
		}
	}

	if responses, ok := op["responses"].(map[string]interface{}); ok {
		converted := make(map[string]interface{}, len(responses))
		for code, r := range responses {
			resp, ok := r.(map[string]interface{})
			if !ok {
				continue
			}
			entry := map[string]interface{}{"description": resp["description"]}
			if schema, ok := resp["schema"]; ok {
				entry["content"] = map[string]interface{}{
					produces: map[string]interface{}{"schema": rewriteRefs(schema)},
				}
			}
			converted[code] = entry
		}
		out["responses"] = converted
	}

	return out
}

func convertParameter(param map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, field := range []string{"name", "in", "description", "required"} {
		if val, ok := param[field]; ok {
			out[field] = val
		}
	}
	out["schema"] = parameterSchema(param)
	return out
}

// parameterSchema builds a schema from the inline type fields of a parameter.
// Swagger 2.0 file uploads become binary strings.
func parameterSchema(param map[string]interface{}) map[string]interface{} {
	if param["type"] == "file" {
		return map[string]interface{}{"type": "string", "format": "binary"}
	}
	schema := make(map[string]interface{})
	for _, field := range []string{"type", "format", "enum", "default", "minimum", "maximum", "items", "description"} {
		if val, ok := param[field]; ok {
			schema[field] = rewriteRefs(val)
		}
	}
	return schema
}

// convertSecuritySchemes maps apiKey bearer definitions to http bearer schemes
func convertSecuritySchemes(defs map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(defs))
	for name, d := range defs {
		def, ok := d.(map[string]interface{})
		if ok && def["type"] == "apiKey" && def["name"] == "Authorization" {
			out[name] = map[string]interface{}{"type": "http", "scheme": "bearer", "bearerFormat": "JWT"}
			continue
		}
		out[name] = d
	}
	return out
}

// rewriteRefs points every $ref at components/schemas
func rewriteRefs(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if ref, ok := value.(string); ok && key == "$ref" {
				out[key] = strings.Replace(ref, "#/definitions/", "#/components/schemas/", 1)
				continue
			}
			out[key] = rewriteRefs(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = rewriteRefs(item)
		}
		return out
	default:
		return data
	}
}

func firstString(v interface{}, fallback string) string {
	if list, ok := v.([]interface{}); ok && len(list) > 0 {
		if s, ok := list[0].(string); ok {
			return s
		}
	}
	return fallback
}
