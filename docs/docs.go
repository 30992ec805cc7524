// Package docs регистрирует OpenAPI-описание для /swagger.
// Генерируется swag init -g cmd/server/main.go.
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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "paths": {
        "/api/leads": {
            "get": {
                "tags": ["Leads"],
                "summary": "Список заявок",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "new|contacted|qualified|converted|lost", "name": "status", "in": "query"},
                    {"type": "integer", "description": "тур", "name": "eventId", "in": "query"},
                    {"type": "string", "description": "true|all", "name": "archived", "in": "query"},
                    {"type": "string", "description": "поиск по имени, телефону, email", "name": "q", "in": "query"},
                    {"type": "integer", "description": "страница с 1", "name": "page", "in": "query"},
                    {"type": "integer", "description": "размер страницы", "name": "size", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            },
            "post": {
                "tags": ["Leads"],
                "summary": "Создать заявку",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"description": "Заявка", "name": "lead", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"201": {"description": "Created"}, "422": {"description": "Unprocessable Entity"}}
            }
        },
        "/api/leads/board": {
            "get": {"tags": ["Leads"], "summary": "Канбан-доска", "responses": {"200": {"description": "OK"}}}
        },
        "/api/leads/{id}": {
            "patch": {
                "tags": ["Leads"],
                "summary": "Изменить заявку",
                "description": "Частичное обновление; status с полями исхода проходит через машину статусов",
                "parameters": [
                    {"type": "integer", "description": "ID заявки", "name": "id", "in": "path", "required": true},
                    {"description": "Изменённые поля", "name": "lead", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"200": {"description": "OK"}, "422": {"description": "Unprocessable Entity"}}
            }
        },
        "/api/leads/{id}/status": {
            "post": {
                "tags": ["Leads"],
                "summary": "Сменить статус",
                "description": "Перенос карточки на доске. Для lost обязателен outcomeType",
                "parameters": [
                    {"type": "integer", "description": "ID заявки", "name": "id", "in": "path", "required": true},
                    {"description": "Новый статус", "name": "change", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"200": {"description": "OK"}, "422": {"description": "Unprocessable Entity"}}
            }
        },
        "/api/events": {
            "post": {
                "tags": ["Events"],
                "summary": "Создать тур",
                "description": "Даты принимаются как YYYY-MM-DD или ISO-таймстемп, числа — числом или строкой",
                "parameters": [{"description": "Тур", "name": "event", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"201": {"description": "Created"}, "422": {"description": "Unprocessable Entity"}}
            }
        },
        "/api/events/{id}/summary": {
            "get": {
                "tags": ["Events"],
                "summary": "Сводка по туру",
                "parameters": [{"type": "integer", "description": "ID тура", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/forms/{id}/fields/order": {
            "put": {
                "tags": ["Forms"],
                "summary": "Порядок полей формы",
                "description": "Полная перестановка id полей, сохраняется одним запросом",
                "parameters": [
                    {"type": "integer", "description": "ID формы", "name": "id", "in": "path", "required": true},
                    {"description": "Новый порядок", "name": "order", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/public/forms/{id}/submit": {
            "post": {
                "tags": ["Public"],
                "summary": "Отправить публичную форму",
                "description": "Тело — значения полей по key (или {\"data\": {...}}). Создаёт заявку",
                "security": [],
                "parameters": [{"type": "integer", "description": "ID формы", "name": "id", "in": "path", "required": true}],
                "responses": {"201": {"description": "Created"}, "422": {"description": "Unprocessable Entity"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "TurCRM API",
	Description:      "CRM туроператора: заявки, туристы, туры, формы, документы.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
