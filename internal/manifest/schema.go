package manifest

// schema is the JSON schema every app manifest is validated against before
// typed decoding. The argument type enum is closed: adding a kind means
// extending the enum here and the validation in the arguments package.
var schema = `
{
  "$schema": "http://json-schema.org/draft-04/schema#",
  "title": "App manifest",
  "type": "object",
  "additionalProperties": true,
  "required": ["id", "name"],
  "properties": {
    "id": {
      "type": "string",
      "pattern": "^[a-z0-9]+([_-][a-z0-9]+)*$"
    },
    "name": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "version": {"type": "string"},
    "url": {"type": "string"},
    "license": {"type": "string"},
    "maintainer": {
      "type": "object",
      "properties": {
        "name": {"type": "string"},
        "email": {"type": "string"}
      }
    },
    "multi_instance": {"type": "boolean"},
    "min_version": {"type": "string"},
    "requirements": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    },
    "arguments": {
      "type": "object",
      "additionalProperties": {
        "type": "array",
        "items": {
          "type": "object",
          "required": ["name"],
          "properties": {
            "name": {"type": "string", "minLength": 1},
            "type": {
              "enum": ["string", "password", "boolean", "domain", "path", "user", "app"]
            },
            "ask": {"type": "string"},
            "default": {},
            "choices": {
              "type": "array",
              "items": {"type": "string"}
            },
            "optional": {"type": "boolean"},
            "example": {"type": "string"}
          }
        }
      }
    }
  }
}
`
