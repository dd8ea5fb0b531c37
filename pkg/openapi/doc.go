// Package openapi derives form schemas from OpenAPI request bodies. The public
// types here stay free of kin-openapi; the parser that reads documents lives
// under internal/openapi.
package openapi
