// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Catalogue: Field limits and retry bounds shared by the release pipeline.

Using this package keeps magic strings and magic numbers out of the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "crate-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "crate.app"

	// AllowedOriginSuffix is the production origin accepted by CORS.
	AllowedOriginSuffix = "crate.app"
)

// # HTTP Headers

const (
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"
	HeaderOrigin        = "Origin"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"

	// HeaderActingTenant lets an administrator operate on another tenant's catalogue.
	HeaderActingTenant = "X-Acting-Tenant"
)

// # Catalogue Limits

const (
	// MaxTitleLength bounds release, medium and track titles.
	MaxTitleLength = 300

	// MaxLookupNameLength bounds reference entity names.
	MaxLookupNameLength = 255

	// MaxCatalogNumberLength bounds catalogue numbers and UPC codes.
	MaxCatalogNumberLength = 100

	// MaxResolveAttempts bounds resolve-or-create retries after a concurrent insert.
	MaxResolveAttempts = 3

	// DefaultListLimit and MaxListLimit bound list endpoints.
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// # JSON Field Identifiers

const (
	FieldError   = "error"
	FieldCode    = "code"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	// RedisPrefixLookupName keys cached display names: lookup:name:<kind>:<tenant>:<id>.
	RedisPrefixLookupName = "lookup:name:"
)
