// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package lookup

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/crate/internal/platform/apperr"
	"github.com/taibuivan/crate/internal/platform/middleware"
	requestutil "github.com/taibuivan/crate/internal/platform/request"
	"github.com/taibuivan/crate/internal/platform/respond"
	"github.com/taibuivan/crate/internal/platform/sec"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type nameInput struct {
	Name string `json:"name"`
}

type seedInput struct {
	Names []string `json:"names"`
}

// RegisterRoutes mounts /{kind} collections, e.g. /artists or /countries.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/{kind}", func(kindRoute chi.Router) {
		kindRoute.Use(middleware.RequireRole(sec.RoleViewer))

		kindRoute.Get("/", handler.list)
		kindRoute.Get("/{id}", handler.get)

		kindRoute.Group(func(editorRoute chi.Router) {
			editorRoute.Use(middleware.RequireRole(sec.RoleEditor))

			editorRoute.Post("/", handler.create)
			editorRoute.Post("/seed", handler.seed)
			editorRoute.Patch("/{id}", handler.rename)
			editorRoute.Delete("/{id}", handler.delete)
		})
	})
}

func kindParam(request *http.Request) (Kind, error) {
	kind, ok := ParseKind(requestutil.Param(request, "kind"))
	if !ok {
		return "", apperr.NotFound("Lookup collection")
	}
	return kind, nil
}

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	kind, err := kindParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	tenantID, err := requestutil.TenantID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	lookups, err := handler.service.List(request.Context(), kind, tenantID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.List(writer, lookups, len(lookups))
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	kind, err := kindParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	tenantID, err := requestutil.TenantID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	id, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	l, err := handler.service.Get(request.Context(), kind, tenantID, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, l)
}

func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	kind, err := kindParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	tenantID, err := requestutil.TenantID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input nameInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	l, err := handler.service.Create(request.Context(), kind, tenantID, input.Name)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, l)
}

func (handler *Handler) seed(writer http.ResponseWriter, request *http.Request) {
	kind, err := kindParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	tenantID, err := requestutil.TenantID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input seedInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.Seed(request.Context(), kind, tenantID, input.Names)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, result)
}

func (handler *Handler) rename(writer http.ResponseWriter, request *http.Request) {
	kind, err := kindParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	tenantID, err := requestutil.TenantID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	id, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input nameInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	l, err := handler.service.Rename(request.Context(), kind, tenantID, id, input.Name)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, l)
}

func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	kind, err := kindParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	tenantID, err := requestutil.TenantID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	id, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), kind, tenantID, id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
