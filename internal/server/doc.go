// Package server exposes the transformers over HTTP using gin.
//
// Routes:
//
//	POST /v1/transform/:name/request   resolve the request document of template :name
//	POST /v1/transform/:name/response  resolve the response document of template :name
//	GET  /v1/templates                 list loaded template names
//	POST /v1/templates/refresh         reload templates from their source
//	GET  /health, /ready               liveness and readiness
//
// Failures are answered with {"error": kind, "message": text}. Payload
// problems are 400, template faults are 500 and unknown templates are 404.
package server
