package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "eONE Classroom API",
        "description": "Assignment and submission lifecycle with derived notifications",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, token refresh, logout"},
        {"name": "Assignments", "description": "Teacher-managed assignments"},
        {"name": "Submissions", "description": "Student answer uploads and grading"},
        {"name": "Notifications", "description": "Per-user derived notification feed"},
        {"name": "Reports", "description": "Asynchronous grading exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "Tokens issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "Tokens rotated"},
                    "401": {"description": "Invalid refresh token"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Revoke refresh token",
                "responses": {
                    "204": {"description": "Session revoked"}
                }
            }
        },
        "/assignments": {
            "get": {
                "tags": ["Assignments"],
                "summary": "List assignments by teacher or student",
                "responses": {
                    "200": {"description": "Assignment list"}
                }
            },
            "post": {
                "tags": ["Assignments"],
                "summary": "Create assignment with question file",
                "responses": {
                    "201": {"description": "Assignment created"},
                    "400": {"description": "Invalid payload"}
                }
            }
        },
        "/assignments/{id}": {
            "get": {
                "tags": ["Assignments"],
                "summary": "Get assignment",
                "responses": {
                    "200": {"description": "Assignment"},
                    "404": {"description": "Not found"}
                }
            },
            "patch": {
                "tags": ["Assignments"],
                "summary": "Update assignment fields and optional new file",
                "responses": {
                    "200": {"description": "Assignment updated"},
                    "409": {"description": "Past due or grading started"}
                }
            },
            "delete": {
                "tags": ["Assignments"],
                "summary": "Delete assignment",
                "responses": {
                    "204": {"description": "Assignment deleted"},
                    "409": {"description": "Past due or has submissions"}
                }
            }
        },
        "/assignments/{id}/submissions": {
            "get": {
                "tags": ["Submissions"],
                "summary": "List submissions for an assignment",
                "responses": {
                    "200": {"description": "Submission list"}
                }
            }
        },
        "/submissions": {
            "get": {
                "tags": ["Submissions"],
                "summary": "List submissions by student",
                "responses": {
                    "200": {"description": "Submission list"}
                }
            },
            "post": {
                "tags": ["Submissions"],
                "summary": "Submit an answer file",
                "responses": {
                    "201": {"description": "Submission created"}
                }
            }
        },
        "/submissions/{id}": {
            "patch": {
                "tags": ["Submissions"],
                "summary": "Re-upload answer file",
                "responses": {
                    "200": {"description": "File replaced"},
                    "409": {"description": "Graded or past due"}
                }
            }
        },
        "/submissions/{id}/grade": {
            "patch": {
                "tags": ["Submissions"],
                "summary": "Record marks and grade",
                "responses": {
                    "200": {"description": "Submission graded"}
                }
            }
        },
        "/notifications/{id}": {
            "get": {
                "tags": ["Notifications"],
                "summary": "Notification feed for a user",
                "responses": {
                    "200": {"description": "Feed entries, newest first"}
                }
            }
        },
        "/notifications": {
            "delete": {
                "tags": ["Notifications"],
                "summary": "Delete every notification record",
                "responses": {
                    "204": {"description": "Feed reset"}
                }
            }
        },
        "/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue a grading report export",
                "responses": {
                    "202": {"description": "Job queued"}
                }
            }
        },
        "/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Report job status",
                "responses": {
                    "200": {"description": "Job status"}
                }
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a finished report",
                "responses": {
                    "200": {"description": "Report file"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"type": "object"},
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
