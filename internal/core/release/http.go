// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package release

import (
	"net/http"

	"github.com/go-chi/chi/v5"

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

// RegisterRoutes mounts the release collection.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Group(func(viewerRoute chi.Router) {
		viewerRoute.Use(middleware.RequireRole(sec.RoleViewer))

		viewerRoute.Get("/", handler.list)
		viewerRoute.Get("/{id}", handler.get)
		viewerRoute.Post("/duplicates/check", handler.checkDuplicates)
	})

	router.Group(func(editorRoute chi.Router) {
		editorRoute.Use(middleware.RequireRole(sec.RoleEditor))

		editorRoute.Post("/", handler.create)
		editorRoute.Put("/{id}", handler.update)
		editorRoute.Delete("/{id}", handler.delete)
	})
}

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	tenantID, err := requestutil.TenantID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	limit, offset := requestutil.Page(request)
	views, total, err := handler.service.Page(request.Context(), tenantID, limit, offset)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.List(writer, views, total)
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
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

	view, err := handler.service.Get(request.Context(), tenantID, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

func (handler *Handler) checkDuplicates(writer http.ResponseWriter, request *http.Request) {
	tenantID, err := requestutil.TenantID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var candidate Candidate
	if err := requestutil.DecodeJSON(request, &candidate); err != nil {
		respond.Error(writer, request, err)
		return
	}

	views, err := handler.service.CheckDuplicates(request.Context(), tenantID, candidate)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.List(writer, views, len(views))
}

func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	tenantID, err := requestutil.TenantID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input CreateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.Create(request.Context(), tenantID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, result)
}

func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
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

	var input UpdateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.Update(request.Context(), tenantID, id, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, result)
}

func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
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

	if err := handler.service.Delete(request.Context(), tenantID, id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
