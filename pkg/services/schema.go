package services

// workflowSchema validates the shape of a workflow definition before it is
// persisted. Field-level constraints the schema cannot express (dense step
// numbering) are enforced in code.
const workflowSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "steps"],
  "properties": {
    "name": {"type": "string", "minLength": 3},
    "description": {"type": "string"},
    "is_active": {"type": "boolean"},
    "applicable_collections": {
      "type": "array",
      "items": {"type": "string", "minLength": 1}
    },
    "steps": {
      "type": "array",
      "minItems": 1,
      "items": {"$ref": "#/definitions/step"}
    }
  },
  "definitions": {
    "step": {
      "type": "object",
      "required": ["name", "step_type", "assignees"],
      "properties": {
        "step_number": {"type": "integer", "minimum": 0},
        "name": {"type": "string", "minLength": 1},
        "step_type": {"type": "string", "minLength": 1},
        "assignees": {
          "type": "object",
          "required": ["type"],
          "properties": {
            "type": {
              "type": "string",
              "enum": ["role", "user", "department", "manager", "creator", "previous_approver", "dynamic"]
            },
            "roles": {"type": "array", "items": {"type": "string"}},
            "users": {"type": "array", "items": {"type": "string"}},
            "departments": {"type": "array", "items": {"type": "string"}},
            "dynamic_rules": {
              "type": "array",
              "items": {
                "type": "object",
                "required": ["when", "assign_to"],
                "properties": {
                  "when": {"$ref": "#/definitions/condition"},
                  "assign_to": {"type": "string", "minLength": 1}
                }
              }
            }
          }
        },
        "conditions": {
          "type": "array",
          "items": {"$ref": "#/definitions/condition"}
        },
        "sla": {
          "type": "object",
          "properties": {
            "enabled": {"type": "boolean"},
            "hours": {"type": "integer", "minimum": 0},
            "business_hours": {"type": "boolean"},
            "escalation_action": {
              "type": "string",
              "enum": ["reminder", "auto_approve", "escalate_manager", "escalate_director", "notification"]
            }
          }
        },
        "next_steps": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["condition", "next_step_number"],
            "properties": {
              "condition": {"type": "string", "minLength": 1},
              "next_step_number": {"type": "integer", "minimum": 1}
            }
          }
        },
        "is_required": {"type": "boolean"},
        "allow_comments": {"type": "boolean"},
        "require_comments": {"type": "boolean"}
      }
    },
    "condition": {
      "type": "object",
      "required": ["field", "operator"],
      "properties": {
        "field": {"type": "string", "minLength": 1},
        "operator": {
          "type": "string",
          "enum": [
            "eq", "ne", "gt", "lt", "gte", "lte",
            "contains", "not_contains", "starts_with", "ends_with",
            "in", "not_in", "is_empty", "is_not_empty", "is_null", "is_not_null"
          ]
        },
        "value": {"type": "string"},
        "multiple_values": {"type": "array", "items": {"type": "string"}}
      }
    }
  }
}`
