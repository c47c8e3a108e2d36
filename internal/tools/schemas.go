package tools

// JSON Schemas for tool inputs. Every schema requires userId and rejects
// unknown fields so a typo'd parameter fails validation instead of being
// silently dropped at dispatch.

const schemaGmailSend = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "gmail_send input",
  "type": "object",
  "required": ["userId", "to", "subject", "body"],
  "additionalProperties": false,
  "properties": {
    "userId": {"type": "string", "minLength": 1},
    "to": {"type": "string", "format": "email"},
    "subject": {"type": "string", "minLength": 1, "maxLength": 200},
    "body": {"type": "string", "minLength": 1},
    "cc": {"type": "array", "items": {"type": "string", "format": "email"}},
    "bcc": {"type": "array", "items": {"type": "string", "format": "email"}}
  }
}`

const schemaGmailSearch = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "gmail_search input",
  "type": "object",
  "required": ["userId", "query"],
  "additionalProperties": false,
  "properties": {
    "userId": {"type": "string", "minLength": 1},
    "query": {"type": "string", "minLength": 1},
    "maxResults": {"type": "integer", "minimum": 1, "maximum": 50}
  }
}`

const schemaGmailSummary = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "gmail_summary input",
  "type": "object",
  "required": ["userId"],
  "additionalProperties": false,
  "properties": {
    "userId": {"type": "string", "minLength": 1},
    "query": {"type": "string"},
    "timeframe": {"type": "string", "enum": ["today", "week", "month"]},
    "maxEmails": {"type": "integer", "minimum": 1, "maximum": 50}
  }
}`

const schemaCalendarCreateEvent = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "calendar_create_event input",
  "type": "object",
  "required": ["userId", "title", "start", "end"],
  "additionalProperties": false,
  "properties": {
    "userId": {"type": "string", "minLength": 1},
    "title": {"type": "string", "minLength": 1, "maxLength": 200},
    "start": {"type": "string", "format": "date-time"},
    "end": {"type": "string", "format": "date-time"},
    "description": {"type": "string"},
    "location": {"type": "string"},
    "attendees": {"type": "array", "items": {"type": "string", "format": "email"}}
  }
}`

const schemaCalendarListEvents = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "calendar_list_events input",
  "type": "object",
  "required": ["userId"],
  "additionalProperties": false,
  "properties": {
    "userId": {"type": "string", "minLength": 1},
    "timeMin": {"type": "string", "format": "date-time"},
    "timeMax": {"type": "string", "format": "date-time"},
    "maxResults": {"type": "integer", "minimum": 1, "maximum": 100}
  }
}`

const schemaTaskCreate = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "task_create input",
  "type": "object",
  "required": ["userId", "title"],
  "additionalProperties": false,
  "properties": {
    "userId": {"type": "string", "minLength": 1},
    "title": {"type": "string", "minLength": 1, "maxLength": 200},
    "description": {"type": "string"},
    "dueDate": {"type": "string", "format": "date-time"},
    "priority": {"type": "string", "enum": ["low", "medium", "high"]},
    "tags": {"type": "array", "items": {"type": "string"}}
  }
}`

const schemaTaskList = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "task_list input",
  "type": "object",
  "required": ["userId"],
  "additionalProperties": false,
  "properties": {
    "userId": {"type": "string", "minLength": 1},
    "status": {"type": "string", "enum": ["pending", "completed", "all"]},
    "priority": {"type": "string", "enum": ["low", "medium", "high"]},
    "maxResults": {"type": "integer", "minimum": 1, "maximum": 100}
  }
}`

const schemaNoteCreate = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "note_create input",
  "type": "object",
  "required": ["userId", "title", "content"],
  "additionalProperties": false,
  "properties": {
    "userId": {"type": "string", "minLength": 1},
    "title": {"type": "string", "minLength": 1, "maxLength": 200},
    "content": {"type": "string", "minLength": 1},
    "tags": {"type": "array", "items": {"type": "string"}},
    "category": {"type": "string"}
  }
}`

const schemaNoteSearch = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "note_search input",
  "type": "object",
  "required": ["userId", "query"],
  "additionalProperties": false,
  "properties": {
    "userId": {"type": "string", "minLength": 1},
    "query": {"type": "string", "minLength": 1},
    "tags": {"type": "array", "items": {"type": "string"}},
    "category": {"type": "string"},
    "maxResults": {"type": "integer", "minimum": 1, "maximum": 100}
  }
}`

// inputSchemas maps each action to its raw schema document.
var inputSchemas = map[Action]string{
	ActionGmailSend:           schemaGmailSend,
	ActionGmailSearch:         schemaGmailSearch,
	ActionGmailSummary:        schemaGmailSummary,
	ActionCalendarCreateEvent: schemaCalendarCreateEvent,
	ActionCalendarListEvents:  schemaCalendarListEvents,
	ActionTaskCreate:          schemaTaskCreate,
	ActionTaskList:            schemaTaskList,
	ActionNoteCreate:          schemaNoteCreate,
	ActionNoteSearch:          schemaNoteSearch,
}
