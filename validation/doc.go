// Package validation compiles operation schemas into request validators.
//
// An operation's declared parameters and JSON request body are folded into
// one JSON Schema with four properties, headers, params, query and body:
//
//	{
//	  "type": "object",
//	  "required": ["headers", "params", "query"],
//	  "properties": {
//	    "headers": {"type": "object", "required": [...], "properties": {...}},
//	    "params":  {...},
//	    "query":   {...},
//	    "body":    <requestBody.content["application/json"].schema>
//	  },
//	  "components": {"schemas": {...}}
//	}
//
// Header parameter names are lower cased. OpenAPI 3.0 specifics such as
// nullable and boolean exclusive bounds are rewritten into their JSON
// Schema draft-07 forms before compilation.
//
// A Gate is the request-time side: it is placed on a route stack,
// compiles its validator on the first request and answers invalid
// requests with a 400 carrying every failed constraint:
//
//	{
//	  "message": "request validation failed",
//	  "validationErrors": [
//	    {"instancePath": "/headers", "keyword": "required",
//	     "params": {"missingProperty": "x-custom-header"}, "message": "..."}
//	  ]
//	}
//
// Textual values are coerced to the declared types before validation. By
// default this happens on a copy of the input; CoerceInPlace makes the
// converted values available to handlers through FromRequest.
package validation
