// Package docs registers the OpenAPI document served under /swagger/.
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
        "/api/hmn/v1/state": {
            "get": {
                "produces": ["application/json"],
                "tags": ["distributor"],
                "summary": "Current distributor configuration and reserve",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/hmn/v1/config/tax": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["distributor"],
                "summary": "Set the three basis-point shares",
                "parameters": [{"type": "string", "name": "X-Caller-Address", "in": "header", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "percentages exceed 100%"}, "403": {"description": "caller is not the owner"}}
            }
        },
        "/api/hmn/v1/config/addresses": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["distributor"],
                "summary": "Set the three beneficiary addresses",
                "parameters": [{"type": "string", "name": "X-Caller-Address", "in": "header", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "zero address"}, "403": {"description": "caller is not the owner"}}
            }
        },
        "/api/hmn/v1/token-pair": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["distributor"],
                "summary": "Set the new and legacy token addresses",
                "parameters": [{"type": "string", "name": "X-Caller-Address", "in": "header", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "invalid token addresses"}, "403": {"description": "caller is not the owner"}}
            }
        },
        "/api/hmn/v1/migration-reserve": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["distributor"],
                "summary": "Fund the migration reserve",
                "parameters": [{"type": "string", "name": "X-Caller-Address", "in": "header", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "caller is not the owner"}, "424": {"description": "external call failed"}}
            }
        },
        "/api/hmn/v1/fees/distribute": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["distributor"],
                "summary": "Split held fee tokens between beneficiaries",
                "parameters": [{"type": "string", "name": "X-Caller-Address", "in": "header", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "reentrant call"}, "422": {"description": "HMN01"}, "424": {"description": "external call failed"}}
            }
        },
        "/api/hmn/v1/migrations": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["distributor"],
                "summary": "Exchange legacy tokens for reserve tokens",
                "parameters": [{"type": "string", "name": "X-Caller-Address", "in": "header", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "invalid amount"}, "409": {"description": "insufficient reserve"}, "424": {"description": "external call failed"}}
            }
        },
        "/api/ledger/v1/tokens/{token}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Token metadata and transfer cap",
                "parameters": [{"type": "string", "name": "token", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "token not found"}}
            }
        },
        "/api/ledger/v1/tokens/{token}/balances/{account}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Account balance",
                "parameters": [{"type": "string", "name": "token", "in": "path", "required": true}, {"type": "string", "name": "account", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/ledger/v1/tokens/{token}/transfer": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Transfer from the caller",
                "parameters": [{"type": "string", "name": "X-Caller-Address", "in": "header", "required": true}],
                "responses": {"200": {"description": "OK"}, "422": {"description": "HMN01"}}
            }
        },
        "/api/ledger/v1/tokens/{token}/transfer-from": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Transfer against an allowance",
                "parameters": [{"type": "string", "name": "X-Caller-Address", "in": "header", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "insufficient allowance"}, "422": {"description": "HMN01"}}
            }
        },
        "/api/ledger/v1/tokens/{token}/approve": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Set a spender allowance",
                "parameters": [{"type": "string", "name": "X-Caller-Address", "in": "header", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/ledger/v1/tokens/{token}/router": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Register the cap-exempt router",
                "parameters": [{"type": "string", "name": "X-Caller-Address", "in": "header", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "caller is not the owner"}}
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Humanity API",
	Description:      "HMN fee distributor, legacy token migration and token ledger.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
