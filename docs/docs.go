// Package docs holds the Swagger 2.0 document for the API. The template is
// maintained by hand next to the handler annotations; handler tests fail when
// a registered route is missing from it.
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
        "/loans": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["loans"],
                "summary": "List loans",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.LoanResponse"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Record the static terms of a loan. Terms are immutable once created.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["loans"],
                "summary": "Create a loan",
                "parameters": [
                    {"description": "Loan terms", "name": "loan", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.CreateLoanRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.LoanResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}}
                }
            }
        },
        "/loans/schedule-preview": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Generate the schedule for unsaved installment terms",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["loans"],
                "summary": "Preview an installment schedule",
                "parameters": [
                    {"description": "Loan terms", "name": "terms", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.LoanTermsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ScheduleResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}}
                }
            }
        },
        "/loans/{loanId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["loans"],
                "summary": "Get a loan",
                "parameters": [
                    {"type": "string", "description": "Loan ID", "name": "loanId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.LoanResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}}
                }
            }
        },
        "/loans/{loanId}/reconciliation": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Point-in-time view of what is owed, what is paid and what is overdue",
                "produces": ["application/json"],
                "tags": ["loans"],
                "summary": "Reconcile a loan",
                "parameters": [
                    {"type": "string", "description": "Loan ID", "name": "loanId", "in": "path", "required": true},
                    {"type": "string", "description": "Reconciliation date (YYYY-MM-DD), defaults to today", "name": "at", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ReconciledView"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}}
                }
            }
        },
        "/loans/{loanId}/payments": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Attach a proof to a payment. Installment loans require slotNumber; amount 0 or omitted means the scheduled amount.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Submit a payment",
                "parameters": [
                    {"type": "string", "description": "Loan ID", "name": "loanId", "in": "path", "required": true},
                    {"type": "file", "description": "Payment proof image (JPEG or PNG)", "name": "proof", "in": "formData", "required": true},
                    {"type": "string", "description": "Amount in minor units", "name": "amount", "in": "formData"},
                    {"type": "integer", "description": "Installment slot number", "name": "slotNumber", "in": "formData"},
                    {"type": "integer", "description": "Ledger version the client reconciled against", "name": "expectedVersion", "in": "formData"},
                    {"type": "string", "description": "Note (open plans)", "name": "note", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.SubmitPaymentResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}}
                }
            }
        },
        "/loans/{loanId}/proofs/url": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Get presigned proof URLs",
                "parameters": [
                    {"type": "string", "description": "Loan ID", "name": "loanId", "in": "path", "required": true},
                    {"type": "string", "description": "Proof reference", "name": "ref", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.ProofURLs"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.ProblemDetails"}}
                }
            }
        }
    },
    "definitions": {
        "domain.InstallmentSlot": {
            "type": "object",
            "properties": {
                "number": {"type": "integer"},
                "amount": {"type": "integer"},
                "dueDate": {"type": "string", "example": "2026-02-28"},
                "status": {"type": "string", "enum": ["unpaid", "paid"]},
                "proofRef": {"type": "string"},
                "paidAt": {"type": "string"},
                "overdue": {"type": "boolean"}
            }
        },
        "domain.OpenPaymentRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "amount": {"type": "integer"},
                "runningBalanceAfter": {"type": "integer"},
                "proofRef": {"type": "string"},
                "note": {"type": "string"},
                "paidAt": {"type": "string"}
            }
        },
        "domain.SinglePaymentRecord": {
            "type": "object",
            "properties": {
                "amount": {"type": "integer"},
                "status": {"type": "string", "enum": ["unpaid", "paid"]},
                "proofRef": {"type": "string"},
                "paidAt": {"type": "string"}
            }
        },
        "domain.ReconciledView": {
            "type": "object",
            "properties": {
                "plan": {"type": "string", "enum": ["single", "installment", "open"]},
                "principal": {"type": "integer"},
                "totalPaid": {"type": "integer"},
                "remainingBalance": {"type": "integer"},
                "completionPercentage": {"type": "integer"},
                "overdue": {"type": "boolean"},
                "asOf": {"type": "string"},
                "ledgerVersion": {"type": "integer"},
                "installments": {"type": "array", "items": {"$ref": "#/definitions/domain.InstallmentSlot"}},
                "openPayments": {"type": "array", "items": {"$ref": "#/definitions/domain.OpenPaymentRecord"}},
                "singlePayment": {"$ref": "#/definitions/domain.SinglePaymentRecord"},
                "dueDate": {"type": "string"},
                "warnings": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handler.LoanTermsRequest": {
            "type": "object",
            "properties": {
                "principal": {"type": "integer"},
                "plan": {"type": "string", "enum": ["single", "installment", "open"]},
                "installmentCount": {"type": "integer"},
                "disbursementDate": {"type": "string", "example": "2026-01-31"},
                "dueDate": {"type": "string", "example": "2026-06-30"}
            }
        },
        "handler.CreateLoanRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "principal": {"type": "integer"},
                "plan": {"type": "string", "enum": ["single", "installment", "open"]},
                "installmentCount": {"type": "integer"},
                "disbursementDate": {"type": "string", "example": "2026-01-31"},
                "dueDate": {"type": "string", "example": "2026-06-30"}
            }
        },
        "handler.LoanResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "principal": {"type": "integer"},
                "plan": {"type": "string"},
                "installmentCount": {"type": "integer"},
                "disbursementDate": {"type": "string"},
                "dueDate": {"type": "string"},
                "ledgerVersion": {"type": "integer"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "handler.ScheduleResponse": {
            "type": "object",
            "properties": {
                "installments": {"type": "array", "items": {"$ref": "#/definitions/domain.InstallmentSlot"}},
                "total": {"type": "integer"}
            }
        },
        "handler.SubmitPaymentResponse": {
            "type": "object",
            "properties": {
                "accepted": {"type": "boolean"},
                "ledgerVersion": {"type": "integer"},
                "entry": {"type": "object"},
                "reconciliation": {"$ref": "#/definitions/domain.ReconciledView"}
            }
        },
        "handler.ValidationError": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handler.ProblemDetails": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "title": {"type": "string"},
                "status": {"type": "integer"},
                "detail": {"type": "string"},
                "instance": {"type": "string"},
                "accepted": {"type": "boolean"},
                "reason": {"type": "string"},
                "errors": {"type": "array", "items": {"$ref": "#/definitions/handler.ValidationError"}}
            }
        },
        "service.ProofURLs": {
            "type": "object",
            "properties": {
                "ref": {"type": "string"},
                "originalUrl": {"type": "string"},
                "thumbnailUrl": {"type": "string"},
                "expiresAt": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Auth0 access token, prefixed with \"Bearer \"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Lunas API",
	Description:      "Loan repayment tracking and reconciliation API",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
