package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {"title": "Agenda API", "description": "Team calendar and task agenda with resilient multi-backend persistence", "version": "1.0.0"},
    "basePath": "/",
    "schemes": ["http"],
    "securityDefinitions": {"BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}},
    "tags": [{"name": "Events", "description": "Team calendar events"}, {"name": "Tasks", "description": "Team and personal tasks"}, {"name": "Admin", "description": "Persistence diagnostics and maintenance"}],
    "paths": {
        "/health": {
            "get": {"summary": "Liveness check", "responses": {"200": {"description": "OK"}}}
        },
        "/ready": {
            "get": {"summary": "Readiness check", "responses": {"200": {"description": "At least one backend is healthy"}, "503": {"description": "No backend available"}}}
        },
        "/metrics": {
            "get": {"summary": "Prometheus metrics", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/auth/login": {
            "post": {"tags": ["Authentication"], "summary": "Authenticate by e-mail or roster name", "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/api/v1/auth/refresh": {
            "post": {"tags": ["Authentication"], "summary": "Rotate refresh token", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/api/v1/auth/logout": {
            "post": {"tags": ["Authentication"], "summary": "Revoke refresh token", "responses": {"204": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/api/v1/auth/change-password": {
            "post": {"tags": ["Authentication"], "summary": "Change password", "responses": {"204": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/api/v1/auth/me": {
            "get": {"tags": ["Authentication"], "summary": "Current user", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/api/v1/users": {
            "get": {"tags": ["Users"], "summary": "List users", "parameters": [{"name": "page", "in": "query", "type": "integer"}, {"name": "page_size", "in": "query", "type": "integer"}, {"name": "permissoes", "in": "query", "type": "string"}, {"name": "departamento", "in": "query", "type": "string"}, {"name": "ativo", "in": "query", "type": "boolean"}, {"name": "search", "in": "query", "type": "string"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]},
            "post": {"tags": ["Users"], "summary": "Create user", "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/api/v1/users/{id}": {
            "get": {"tags": ["Users"], "summary": "Get user", "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]},
            "put": {"tags": ["Users"], "summary": "Update user", "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]},
            "delete": {"tags": ["Users"], "summary": "Deactivate user", "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}], "responses": {"204": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/api/v1/departments": {
            "get": {"tags": ["Departments"], "summary": "List departments", "parameters": [{"name": "incluirInativos", "in": "query", "type": "boolean"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]},
            "post": {"tags": ["Departments"], "summary": "Create department", "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/api/v1/departments/{id}": {
            "put": {"tags": ["Departments"], "summary": "Update department", "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]},
            "delete": {"tags": ["Departments"], "summary": "Delete department", "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}], "responses": {"204": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/api/v1/events": {
            "get": {"tags": ["Events"], "summary": "List visible events", "parameters": [{"name": "de", "in": "query", "type": "string"}, {"name": "ate", "in": "query", "type": "string"}, {"name": "tipo", "in": "query", "type": "string"}, {"name": "status", "in": "query", "type": "string"}, {"name": "responsavel", "in": "query", "type": "string"}, {"name": "participante", "in": "query", "type": "string"}, {"name": "incluirCancelados", "in": "query", "type": "boolean"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]},
            "post": {"tags": ["Events"], "summary": "Create event", "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EventRequest"}}], "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/api/v1/events/{id}": {
            "get": {"tags": ["Events"], "summary": "Get event", "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]},
            "put": {"tags": ["Events"], "summary": "Replace event", "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}, {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EventRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]},
            "delete": {"tags": ["Events"], "summary": "Delete event", "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}], "responses": {"204": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/api/v1/events/{id}/status": {
            "patch": {"tags": ["Events"], "summary": "Change event status", "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/api/v1/tasks": {
            "get": {"tags": ["Tasks"], "summary": "List visible tasks", "parameters": [{"name": "de", "in": "query", "type": "string"}, {"name": "ate", "in": "query", "type": "string"}, {"name": "escopo", "in": "query", "type": "string"}, {"name": "status", "in": "query", "type": "string"}, {"name": "prioridade", "in": "query", "type": "string"}, {"name": "responsavel", "in": "query", "type": "string"}, {"name": "incluirCancelados", "in": "query", "type": "boolean"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]},
            "post": {"tags": ["Tasks"], "summary": "Create task", "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TaskRequest"}}], "responses": {"201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/api/v1/tasks/{id}": {
            "get": {"tags": ["Tasks"], "summary": "Get task", "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]},
            "put": {"tags": ["Tasks"], "summary": "Replace task", "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}, {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TaskRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]},
            "delete": {"tags": ["Tasks"], "summary": "Delete task", "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}], "responses": {"204": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/api/v1/tasks/{id}/progress": {
            "patch": {"tags": ["Tasks"], "summary": "Update task progress", "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/api/v1/calendar/month": {
            "get": {"tags": ["Calendar"], "summary": "Month grid", "parameters": [{"name": "ano", "in": "query", "type": "integer"}, {"name": "mes", "in": "query", "type": "integer"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/api/v1/calendar/day": {
            "get": {"tags": ["Calendar"], "summary": "Day view", "parameters": [{"name": "data", "in": "query", "type": "string"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/api/v1/agenda": {
            "get": {"tags": ["Agenda"], "summary": "Personal agenda", "parameters": [{"name": "de", "in": "query", "type": "string"}, {"name": "dias", "in": "query", "type": "integer"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/api/v1/export/agenda": {
            "get": {"tags": ["Agenda"], "summary": "Export agenda as CSV or PDF", "parameters": [{"name": "format", "in": "query", "type": "string"}, {"name": "de", "in": "query", "type": "string"}, {"name": "ate", "in": "query", "type": "string"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/api/v1/admin/diagnostics": {
            "get": {"tags": ["Admin"], "summary": "Persistence diagnostics", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/api/v1/admin/sync": {
            "post": {"tags": ["Admin"], "summary": "Replay outbox and reconcile backends", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        },
        "/api/v1/admin/cache/clear": {
            "post": {"tags": ["Admin"], "summary": "Clear calendar cache", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "security": [{"BearerAuth": []}]}
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["login", "senha"],
            "properties": {"login": {"type": "string"}, "senha": {"type": "string"}}
        },
        "EventRequest": {
            "type": "object",
            "required": ["titulo", "data"],
            "properties": {"titulo": {"type": "string"}, "descricao": {"type": "string"}, "data": {"type": "string"}, "horarioInicio": {"type": "string"}, "horarioFim": {"type": "string"}, "tipo": {"type": "string"}, "status": {"type": "string"}, "visibilidade": {"type": "string"}, "responsavel": {"type": "string"}, "local": {"type": "string"}, "atualizadoEm": {"type": "string"}, "participantes": {"type": "array", "items": {"type": "string"}}}
        },
        "TaskRequest": {
            "type": "object",
            "required": ["titulo"],
            "properties": {"titulo": {"type": "string"}, "descricao": {"type": "string"}, "escopo": {"type": "string"}, "responsavel": {"type": "string"}, "status": {"type": "string"}, "prioridade": {"type": "string"}, "dataInicio": {"type": "string"}, "dataFim": {"type": "string"}, "atualizadoEm": {"type": "string"}, "participantes": {"type": "array", "items": {"type": "string"}}, "progresso": {"type": "integer"}, "aparecerNoCalendario": {"type": "boolean"}}
        },
        "Pagination": {
            "type": "object",
            "properties": {"page": {"type": "integer"}, "page_size": {"type": "integer"}, "total_count": {"type": "integer"}}
        },
        "APIError": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}, "status": {"type": "integer"}}
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {"data": {"type": "object"}, "error": {"$ref": "#/definitions/APIError"}, "pagination": {"$ref": "#/definitions/Pagination"}, "meta": {"type": "object"}}
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
