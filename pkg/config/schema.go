package config

// Schema is the JSON schema for validating configuration files
const Schema = `{
    "$schema": "http://json-schema.org/draft-07/schema#",
    "type": "object",
    "additionalProperties": false,
    "properties": {
        "general": {
            "type": "object",
            "additionalProperties": false,
            "properties": {
                "region": {"type": "string", "minLength": 1}
            }
        },
        "log": {
            "type": "object",
            "additionalProperties": false,
            "properties": {
                "log_path": {"type": "string", "minLength": 1},
                "log_rolloversize": {"type": "integer", "minimum": 1},
                "log_handler": {
                    "type": "string",
                    "enum": ["console", "file", "rotation"]
                },
                "log_level": {
                    "type": "string",
                    "enum": ["debug", "info", "warn", "error"]
                },
                "log_format": {
                    "type": "string",
                    "enum": ["json", "console"]
                }
            }
        },
        "credential": {
            "type": "object",
            "additionalProperties": false,
            "properties": {
                "profile": {"type": "string"},
                "access_key": {"type": "string"},
                "secret_key": {"type": "string"}
            }
        },
        "storage": {
            "type": "object",
            "additionalProperties": false,
            "properties": {
                "type": {
                    "type": "string",
                    "enum": ["s3", "local", "backblaze", "ssh"]
                },
                "bucket": {"type": "string"},
                "endpoint": {"type": "string"},
                "prefix": {"type": "string"},
                "force_path_style": {"type": "boolean"},
                "skip_verify": {"type": "boolean"},
                "options": {"type": "object"}
            }
        },
        "notification": {
            "type": "object",
            "additionalProperties": false,
            "properties": {
                "enabled": {"type": "boolean"},
                "transport": {
                    "type": "string",
                    "enum": ["smtp", "ses"]
                },
                "smtp_server": {"type": "string"},
                "smtp_port": {"type": "integer", "minimum": 1, "maximum": 65535},
                "from": {"type": "string"},
                "to": {
                    "type": "array",
                    "items": {"type": "string", "minLength": 1}
                },
                "cc": {
                    "type": "array",
                    "items": {"type": "string", "minLength": 1}
                },
                "ses_access_key": {"type": "string"},
                "ses_secret_key": {"type": "string"}
            }
        },
        "transfer": {
            "type": "object",
            "additionalProperties": false,
            "properties": {
                "archive_name": {"type": "string"},
                "key_name": {"type": "string"},
                "remove_source": {"type": "boolean"}
            }
        }
    }
}`
