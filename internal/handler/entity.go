package handler

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/anikmoz/green-firm-house/internal/apierror"
	"github.com/anikmoz/green-firm-house/internal/dto"
	"github.com/anikmoz/green-firm-house/internal/repository"
	"github.com/anikmoz/green-firm-house/internal/service"

	"github.com/gin-gonic/gin"
)

// Paging bounds the page size of list endpoints.
type Paging struct {
	DefaultSize int
	MaxSize     int
}

// EntityHandler serves one REST resource on top of an EntityService.
type EntityHandler[D dto.Record] struct {
	svc    service.EntityService[D]
	app    string
	paging Paging
}

func NewEntityHandler[D dto.Record](svc service.EntityService[D], appName string, paging Paging) *EntityHandler[D] {
	if paging.DefaultSize <= 0 {
		paging.DefaultSize = 20
	}
	if paging.MaxSize < paging.DefaultSize {
		paging.MaxSize = paging.DefaultSize
	}
	return &EntityHandler[D]{svc: svc, app: appName, paging: paging}
}

// Register mounts the resource routes on g.
func (h *EntityHandler[D]) Register(g *gin.RouterGroup) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.PATCH("/:id", h.PartialUpdate)
	g.DELETE("/:id", h.Delete)
}

// Create godoc
// @Summary      Create a record
// @Description  Creates a product type, customer or purchase. The body must not carry an id.
// @Tags         entities
// @Accept       json
// @Produce      json
// @Param        resource path string true "Resource" Enums(product-types, customers, customer-boughts)
// @Param        body body object true "Record without id"
// @Success      201  {object} object
// @Header       201  {string} Location "URL of the new record"
// @Failure      400  {object} apierror.AlertError
// @Failure      422  {object} apierror.ValidationError
// @Router       /api/{resource} [post]
func (h *EntityHandler[D]) Create(c *gin.Context) {
	var req D
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	id := *resp.GetID()
	c.Header("Location", fmt.Sprintf("%s/%d", strings.TrimSuffix(c.Request.URL.Path, "/"), id))
	setAlert(c, h.app, alertCreated, h.svc.EntityName(), id)
	c.JSON(http.StatusCreated, resp)
}

// Update godoc
// @Summary      Replace a record
// @Description  The body id must match the path id.
// @Tags         entities
// @Accept       json
// @Produce      json
// @Param        resource path string true "Resource" Enums(product-types, customers, customer-boughts)
// @Param        id   path int    true "Record id"
// @Param        body body object true "Full record"
// @Success      200  {object} object
// @Failure      400  {object} apierror.AlertError
// @Failure      422  {object} apierror.ValidationError
// @Router       /api/{resource}/{id} [put]
func (h *EntityHandler[D]) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req D
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	setAlert(c, h.app, alertUpdated, h.svc.EntityName(), id)
	c.JSON(http.StatusOK, resp)
}

// PartialUpdate godoc
// @Summary      Change some fields of a record
// @Description  Fields that are absent or null keep their stored value.
// @Tags         entities
// @Accept       json
// @Produce      json
// @Param        resource path string true "Resource" Enums(product-types, customers, customer-boughts)
// @Param        id   path int    true "Record id"
// @Param        body body object true "Partial record with id"
// @Success      200  {object} object
// @Failure      400  {object} apierror.AlertError
// @Failure      422  {object} apierror.ValidationError
// @Router       /api/{resource}/{id} [patch]
func (h *EntityHandler[D]) PartialUpdate(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req D
	if !bindAndValidatePresent(c, &req) {
		return
	}
	resp, err := h.svc.PartialUpdate(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	setAlert(c, h.app, alertUpdated, h.svc.EntityName(), id)
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary      List records
// @Description  Paged list. X-Total-Count carries the total and Link the first, prev, next and last pages.
// @Tags         entities
// @Produce      json
// @Param        resource path string true "Resource" Enums(product-types, customers, customer-boughts)
// @Param        page query int    false "Zero-based page (default 0)"
// @Param        size query int    false "Page size (default 20)"
// @Param        sort query string false "field,asc or field,desc"
// @Success      200  {array}  object
// @Header       200  {integer} X-Total-Count "Total number of records"
// @Failure      400  {object} apierror.APIError
// @Router       /api/{resource} [get]
func (h *EntityHandler[D]) List(c *gin.Context) {
	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid paging parameters"))
		return
	}
	if !validationResponse(c, validate.Struct(&q)) {
		return
	}

	p, ok := h.pageable(q)
	if !ok {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid paging parameters"))
		return
	}
	items, total, err := h.svc.FindAll(c.Request.Context(), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	setPaginationHeaders(c, p.Page, p.Size, total)
	c.JSON(http.StatusOK, items)
}

// Get godoc
// @Summary      Get a record
// @Tags         entities
// @Produce      json
// @Param        resource path string true "Resource" Enums(product-types, customers, customer-boughts)
// @Param        id   path int    true "Record id"
// @Success      200  {object} object
// @Failure      404  {object} apierror.APIError
// @Router       /api/{resource}/{id} [get]
func (h *EntityHandler[D]) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.FindOne(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary      Delete a record
// @Description  Product types and customers still referenced by a purchase answer 409.
// @Tags         entities
// @Param        resource path string true "Resource" Enums(product-types, customers, customer-boughts)
// @Param        id   path int    true "Record id"
// @Success      204
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /api/{resource}/{id} [delete]
func (h *EntityHandler[D]) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	setAlert(c, h.app, alertDeleted, h.svc.EntityName(), id)
	c.Status(http.StatusNoContent)
}

func (h *EntityHandler[D]) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return 0, false
	}
	return id, true
}

// maxOffset bounds Page*Size so the SQL offset cannot overflow.
const maxOffset = math.MaxInt32

func (h *EntityHandler[D]) pageable(q dto.PageQuery) (repository.Pageable, bool) {
	size := q.Size
	if size <= 0 {
		size = h.paging.DefaultSize
	}
	if size > h.paging.MaxSize {
		size = h.paging.MaxSize
	}
	if q.Page > maxOffset/size {
		return repository.Pageable{}, false
	}

	p := repository.Pageable{Page: q.Page, Size: size}
	for _, s := range q.Sort {
		field, dir, _ := strings.Cut(s, ",")
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		p.Sort = append(p.Sort, repository.Order{
			Field: field,
			Desc:  strings.EqualFold(strings.TrimSpace(dir), "desc"),
		})
	}
	return p, true
}

// fail maps a service error onto the response. Anything unknown is left to
// the ErrorHandler middleware.
func (h *EntityHandler[D]) fail(c *gin.Context, err error) {
	var bad *service.BadRequestError
	var invalid *service.ValidationError

	switch {
	case errors.As(err, &bad):
		setFailureAlert(c, h.app, bad.Entity, bad.Key)
		c.JSON(http.StatusBadRequest, apierror.NewAlert(bad.Message, bad.Entity, bad.Key))
	case errors.As(err, &invalid):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(invalid.Fields))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, apierror.New(h.svc.EntityName()+" not found"))
	case errors.Is(err, service.ErrReferenced):
		c.JSON(http.StatusConflict, apierror.New(h.svc.EntityName()+" is still referenced by other records"))
	default:
		_ = c.Error(err)
	}
}
