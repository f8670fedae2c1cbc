package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Music School Scheduling API",
        "description": "Availability, trial lessons, enrollments and lesson calendars",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"Bearer": []}],
    "tags": [
        {"name": "Availability", "description": "Weekly recurring availability of teachers and staff"},
        {"name": "Courses", "description": "Bookable slots derived from instructor availability"},
        {"name": "Trials", "description": "Trial lesson ledger"},
        {"name": "Enrollments", "description": "Two-phase enrollment and projected lesson sessions"},
        {"name": "Payments", "description": "Checkout links gated on a completed trial"}
    ],
    "paths": {
        "/availability/{userId}": {
            "get": {
                "tags": ["Availability"],
                "summary": "Weekly availability of a user",
                "parameters": [{"name": "userId", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Seven day buckets, Sunday first", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Availability"],
                "summary": "Add availability slot",
                "parameters": [
                    {"name": "userId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddSlotRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "INVALID_RANGE or VALIDATION_ERROR", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not the owner", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability/{userId}/copy": {
            "post": {
                "tags": ["Availability"],
                "summary": "Replace one day's slots with another day's",
                "parameters": [
                    {"name": "userId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CopyDayRequest"}}
                ],
                "responses": {
                    "200": {"description": "Copied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "NOTHING_TO_COPY", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability/slots/{slotId}": {
            "put": {
                "tags": ["Availability"],
                "summary": "Update availability slot",
                "parameters": [
                    {"name": "slotId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSlotRequest"}}
                ],
                "responses": {"200": {"description": "Updated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Availability"],
                "summary": "Delete availability slot",
                "parameters": [{"name": "slotId", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}
            }
        },
        "/courses/{id}/slots": {
            "get": {
                "tags": ["Courses"],
                "summary": "Bookable weekly slots of a course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "teacher_id", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "Ordered by day, start and end", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/trials": {
            "post": {
                "tags": ["Trials"],
                "summary": "Record a trial lesson",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordTrialRequest"}}],
                "responses": {
                    "201": {"description": "Recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "200": {"description": "Already recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/trials": {
            "get": {
                "tags": ["Trials"],
                "summary": "Courses a student has trialled",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/enrollments": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll a student",
                "description": "Recurring courses without a slot return 202 with an intent token and candidate slots.",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BeginEnrollmentRequest"}}],
                "responses": {
                    "201": {"description": "COMPLETE, possibly with a SCHEDULING_WARNING", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "NEEDS_SLOT_SELECTION", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "TRIAL_REQUIRED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "SLOT_UNAVAILABLE", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/intents/{token}": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Finish a suspended enrollment",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ContinueEnrollmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "COMPLETE", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Intent expired or unknown", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/{id}/sessions": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Sessions of an enrollment",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/enrollments/{id}/sessions/export": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Download an enrollment timetable",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {"200": {"description": "Timetable document", "schema": {"type": "file"}}}
            }
        },
        "/payment-links": {
            "post": {
                "tags": ["Payments"],
                "summary": "Issue a payment link",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PaymentLinkRequest"}}],
                "responses": {
                    "201": {"description": "Issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "TRIAL_REQUIRED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Payment provider not configured", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "SlotSelection": {
            "type": "object",
            "required": ["dayOfWeek", "startTime", "endTime"],
            "properties": {
                "slotId": {"type": "string"},
                "dayOfWeek": {"type": "integer", "minimum": 0, "maximum": 6},
                "startTime": {"type": "string", "example": "14:00"},
                "endTime": {"type": "string", "example": "15:00"}
            }
        },
        "AddSlotRequest": {
            "type": "object",
            "required": ["dayOfWeek", "startTime", "endTime"],
            "properties": {
                "dayOfWeek": {"type": "integer", "minimum": 0, "maximum": 6},
                "startTime": {"type": "string", "example": "14:00"},
                "endTime": {"type": "string", "example": "15:00"},
                "category": {"type": "string"}
            }
        },
        "UpdateSlotRequest": {
            "type": "object",
            "required": ["startTime", "endTime"],
            "properties": {
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "category": {"type": "string"}
            }
        },
        "CopyDayRequest": {
            "type": "object",
            "required": ["fromDay", "toDay"],
            "properties": {
                "fromDay": {"type": "integer", "minimum": 0, "maximum": 6},
                "toDay": {"type": "integer", "minimum": 0, "maximum": 6}
            }
        },
        "RecordTrialRequest": {
            "type": "object",
            "required": ["studentId", "courseId"],
            "properties": {
                "studentId": {"type": "string"},
                "courseId": {"type": "string"},
                "teacherId": {"type": "string"},
                "slot": {"$ref": "#/definitions/SlotSelection"}
            }
        },
        "BeginEnrollmentRequest": {
            "type": "object",
            "required": ["courseId", "studentId"],
            "properties": {
                "courseId": {"type": "string"},
                "studentId": {"type": "string"},
                "teacherId": {"type": "string"},
                "slot": {"$ref": "#/definitions/SlotSelection"}
            }
        },
        "ContinueEnrollmentRequest": {
            "type": "object",
            "required": ["slot"],
            "properties": {
                "slot": {"$ref": "#/definitions/SlotSelection"}
            }
        },
        "PaymentLinkRequest": {
            "type": "object",
            "required": ["studentId", "courseId"],
            "properties": {
                "studentId": {"type": "string"},
                "courseId": {"type": "string"},
                "email": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "retryable": {"type": "boolean"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
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
