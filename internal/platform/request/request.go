// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package requestutil provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/crate/internal/platform/apperr"
	"github.com/taibuivan/crate/internal/platform/constants"
	"github.com/taibuivan/crate/internal/platform/ctxutil"
	"github.com/taibuivan/crate/internal/platform/sec"
	"github.com/taibuivan/crate/internal/platform/tenant"
	"github.com/taibuivan/crate/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Unknown fields are rejected so typos in payloads surface as validation errors.
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	decoder := json.NewDecoder(request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Int64Param parses a named URL parameter as a positive integer identifier.
*/
func Int64Param(request *http.Request, name string) (int64, error) {
	value, err := strconv.ParseInt(chi.URLParam(request, name), 10, 64)
	if err != nil || value <= 0 {
		return 0, validate.RequiredError(name, "Must be a positive integer")
	}
	return value, nil
}

/*
Page reads limit/offset query parameters, clamped to the list bounds.
*/
func Page(request *http.Request) (limit, offset int) {
	query := request.URL.Query()

	limit, err := strconv.Atoi(query.Get("limit"))
	if err != nil || limit <= 0 {
		limit = constants.DefaultListLimit
	}
	if limit > constants.MaxListLimit {
		limit = constants.MaxListLimit
	}

	offset, err = strconv.Atoi(query.Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

/*
Claims extracts the authenticated user claims from the request context.

Returns nil if the request is not authenticated.
*/
func Claims(request *http.Request) *sec.AuthClaims {
	return ctxutil.GetAuthUser(request.Context())
}

/*
RequiredClaims ensures the request is authenticated and returns the user claims.
*/
func RequiredClaims(request *http.Request) (*sec.AuthClaims, error) {
	claims := ctxutil.GetAuthUser(request.Context())
	if claims == nil {
		return nil, apperr.Unauthenticated("Authentication required")
	}
	return claims, nil
}

/*
TenantID resolves the tenant a request operates on.

The tenant comes from the token. An administrator may act on another tenant by
sending the acting-tenant header; for anyone else the header is ignored.
*/
func TenantID(request *http.Request) (tenant.ID, error) {
	claims, err := RequiredClaims(request)
	if err != nil {
		return tenant.None, err
	}

	id := tenant.ID(claims.TenantID)

	if acting := strings.TrimSpace(request.Header.Get(constants.HeaderActingTenant)); acting != "" &&
		sec.UserRole(claims.Role).AtLeast(sec.RoleAdmin) {
		id = tenant.Parse(acting)
		ctxutil.GetLogger(request.Context()).InfoContext(request.Context(), "acting_tenant_override",
			slog.String("user_id", claims.UserID),
			slog.Int64("home_tenant_id", claims.TenantID),
			slog.String("acting_tenant_id", id.String()),
		)
	}

	if err := tenant.Require(id); err != nil {
		return tenant.None, err
	}
	return id, nil
}
