package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {"title": "School Records API", "description": "Student, staff, fee, attendance, exam and timetable records", "version": "1.0.0"},
    "basePath": "/",
    "schemes": ["http"],
    "tags": [{"name": "Students"}, {"name": "Teachers"}, {"name": "Staff"}, {"name": "Fees"}, {"name": "Attendance"}, {"name": "Exams"}, {"name": "Schedules"}, {"name": "Settings"}, {"name": "Recycle Bin"}, {"name": "Directory"}, {"name": "Export"}],
    "paths": {
        "/health": {
            "get": {"summary": "Liveness check", "responses": {"200": {"description": "OK"}}}
        },
        "/ready": {
            "get": {"summary": "Readiness check", "responses": {"200": {"description": "Ready"}, "503": {"description": "A dependency is unavailable"}}}
        },
        "/metrics": {
            "get": {"summary": "Prometheus metrics", "produces": ["text/plain"], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/students": {
            "get": {"tags": ["Students"], "summary": "List student records", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "search", "in": "query", "type": "string"}, {"name": "page", "in": "query", "type": "integer"}, {"name": "limit", "in": "query", "type": "integer"}]},
            "post": {"tags": ["Students"], "summary": "Create student", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}]}
        },
        "/api/v1/students/{id}": {
            "get": {"tags": ["Students"], "summary": "Get student", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}]},
            "patch": {"tags": ["Students"], "summary": "Update student", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}, {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}]},
            "delete": {"tags": ["Students"], "summary": "Move student to the recycle bin", "responses": {"204": {"description": "No Content"}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}]}
        },
        "/api/v1/teachers": {
            "get": {"tags": ["Teachers"], "summary": "List teacher records", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "search", "in": "query", "type": "string"}, {"name": "page", "in": "query", "type": "integer"}, {"name": "limit", "in": "query", "type": "integer"}]},
            "post": {"tags": ["Teachers"], "summary": "Create teacher", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}]}
        },
        "/api/v1/teachers/{id}": {
            "get": {"tags": ["Teachers"], "summary": "Get teacher", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}]},
            "patch": {"tags": ["Teachers"], "summary": "Update teacher", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}, {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}]},
            "delete": {"tags": ["Teachers"], "summary": "Move teacher to the recycle bin", "responses": {"204": {"description": "No Content"}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}]}
        },
        "/api/v1/staff": {
            "get": {"tags": ["Staff"], "summary": "List staff member records", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "search", "in": "query", "type": "string"}, {"name": "page", "in": "query", "type": "integer"}, {"name": "limit", "in": "query", "type": "integer"}]},
            "post": {"tags": ["Staff"], "summary": "Create staff member", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}]}
        },
        "/api/v1/staff/{id}": {
            "get": {"tags": ["Staff"], "summary": "Get staff member", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}]},
            "patch": {"tags": ["Staff"], "summary": "Update staff member", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}, {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}]},
            "delete": {"tags": ["Staff"], "summary": "Move staff member to the recycle bin", "responses": {"204": {"description": "No Content"}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}]}
        },
        "/api/v1/fee-structures": {
            "get": {"tags": ["Fees"], "summary": "List fee structure records", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "search", "in": "query", "type": "string"}, {"name": "page", "in": "query", "type": "integer"}, {"name": "limit", "in": "query", "type": "integer"}]},
            "post": {"tags": ["Fees"], "summary": "Create fee structure", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}]}
        },
        "/api/v1/fee-structures/{id}": {
            "get": {"tags": ["Fees"], "summary": "Get fee structure", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}]},
            "patch": {"tags": ["Fees"], "summary": "Update fee structure", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}, {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}]},
            "delete": {"tags": ["Fees"], "summary": "Move fee structure to the recycle bin", "responses": {"204": {"description": "No Content"}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}]}
        },
        "/api/v1/fee-payments": {
            "get": {"tags": ["Fees"], "summary": "List fee payment records", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "search", "in": "query", "type": "string"}, {"name": "page", "in": "query", "type": "integer"}, {"name": "limit", "in": "query", "type": "integer"}]},
            "post": {"tags": ["Fees"], "summary": "Create fee payment", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}]}
        },
        "/api/v1/fee-payments/{id}": {
            "get": {"tags": ["Fees"], "summary": "Get fee payment", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}]},
            "patch": {"tags": ["Fees"], "summary": "Update fee payment", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}, {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}]},
            "delete": {"tags": ["Fees"], "summary": "Move fee payment to the recycle bin", "responses": {"204": {"description": "No Content"}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}]}
        },
        "/api/v1/attendance": {
            "get": {"tags": ["Attendance"], "summary": "List attendance record records", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "search", "in": "query", "type": "string"}, {"name": "page", "in": "query", "type": "integer"}, {"name": "limit", "in": "query", "type": "integer"}]},
            "post": {"tags": ["Attendance"], "summary": "Create attendance record", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}]}
        },
        "/api/v1/attendance/{id}": {
            "get": {"tags": ["Attendance"], "summary": "Get attendance record", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}]},
            "patch": {"tags": ["Attendance"], "summary": "Update attendance record", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}, {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}]},
            "delete": {"tags": ["Attendance"], "summary": "Move attendance record to the recycle bin", "responses": {"204": {"description": "No Content"}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}]}
        },
        "/api/v1/exams": {
            "get": {"tags": ["Exams"], "summary": "List exam records", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "search", "in": "query", "type": "string"}, {"name": "page", "in": "query", "type": "integer"}, {"name": "limit", "in": "query", "type": "integer"}]},
            "post": {"tags": ["Exams"], "summary": "Create exam", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}]}
        },
        "/api/v1/exams/{id}": {
            "get": {"tags": ["Exams"], "summary": "Get exam", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}]},
            "patch": {"tags": ["Exams"], "summary": "Update exam", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}, {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}]},
            "delete": {"tags": ["Exams"], "summary": "Move exam to the recycle bin", "responses": {"204": {"description": "No Content"}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}]}
        },
        "/api/v1/exam-results": {
            "get": {"tags": ["Exams"], "summary": "List exam result records", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "search", "in": "query", "type": "string"}, {"name": "page", "in": "query", "type": "integer"}, {"name": "limit", "in": "query", "type": "integer"}]},
            "post": {"tags": ["Exams"], "summary": "Create exam result", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}]}
        },
        "/api/v1/exam-results/{id}": {
            "get": {"tags": ["Exams"], "summary": "Get exam result", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}]},
            "patch": {"tags": ["Exams"], "summary": "Update exam result", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}, {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}]},
            "delete": {"tags": ["Exams"], "summary": "Move exam result to the recycle bin", "responses": {"204": {"description": "No Content"}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}]}
        },
        "/api/v1/schedules": {
            "get": {"tags": ["Schedules"], "summary": "List schedule slot records", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "search", "in": "query", "type": "string"}, {"name": "page", "in": "query", "type": "integer"}, {"name": "limit", "in": "query", "type": "integer"}]},
            "post": {"tags": ["Schedules"], "summary": "Create schedule slot", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}]}
        },
        "/api/v1/schedules/{id}": {
            "get": {"tags": ["Schedules"], "summary": "Get schedule slot", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}]},
            "patch": {"tags": ["Schedules"], "summary": "Update schedule slot", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}, {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}]},
            "delete": {"tags": ["Schedules"], "summary": "Move schedule slot to the recycle bin", "responses": {"204": {"description": "No Content"}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}]}
        },
        "/api/v1/students/{id}/fee-status": {
            "get": {"tags": ["Students"], "summary": "Student fee ledger", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}]}
        },
        "/api/v1/students/{id}/attendance-summary": {
            "get": {"tags": ["Students"], "summary": "Student attendance summary", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}]}
        },
        "/api/v1/students/{id}/id-card": {
            "get": {"tags": ["Students"], "summary": "Student ID card", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "produces": ["application/pdf"]}
        },
        "/api/v1/fee-payments/{id}/receipt": {
            "get": {"tags": ["Fees"], "summary": "Fee receipt", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}, "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "produces": ["application/pdf"]}
        },
        "/api/v1/fees/summary": {
            "get": {"tags": ["Fees"], "summary": "Fee collection summary", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/api/v1/timetable/{class}": {
            "get": {"tags": ["Schedules"], "summary": "Class timetable", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "class", "in": "path", "required": true, "type": "string"}]}
        },
        "/api/v1/settings": {
            "get": {"tags": ["Settings"], "summary": "Get settings", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "patch": {"tags": ["Settings"], "summary": "Update settings", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}]}
        },
        "/api/v1/recycle-bin": {
            "get": {"tags": ["Recycle Bin"], "summary": "List deleted records", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/api/v1/recycle-bin/{index}/restore": {
            "post": {"tags": ["Recycle Bin"], "summary": "Restore a deleted record", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}, "parameters": [{"name": "index", "in": "path", "required": true, "type": "integer"}]}
        },
        "/api/v1/directory/options": {
            "get": {"tags": ["Directory"], "summary": "Distinct filter values", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/api/v1/export/{kind}": {
            "get": {"tags": ["Export"], "summary": "Export a record list", "responses": {"200": {"description": "OK"}, "400": {"description": "Validation error"}, "404": {"description": "Not found"}}, "parameters": [{"name": "kind", "in": "path", "required": true, "type": "string"}, {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "xlsx"]}], "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"]}
        }
    },
    "definitions": {
        "Pagination": {"type": "object", "properties": {"page": {"type": "integer"}, "page_size": {"type": "integer"}, "total_count": {"type": "integer"}}},
        "APIError": {"type": "object", "properties": {"code": {"type": "string"}, "message": {"type": "string"}, "status": {"type": "integer"}}},
        "ResponseEnvelope": {"type": "object", "properties": {"data": {"type": "object"}, "error": {"$ref": "#/definitions/APIError"}, "pagination": {"$ref": "#/definitions/Pagination"}, "meta": {"type": "object"}}}
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
