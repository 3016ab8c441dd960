package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pagination is the envelope metadata shared by all list endpoints.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPagination derives page counts from a total row count.
func NewPagination(page, limit int, total int64) Pagination {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// ListResponse is the uniform shape of paginated collections.
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination Pagination  `json:"pagination"`
}

// OK writes a 200 response with the given body.
func OK(ctx *gin.Context, body interface{}) {
	ctx.JSON(http.StatusOK, body)
}

// Created writes a 201 response with the given body.
func Created(ctx *gin.Context, body interface{}) {
	ctx.JSON(http.StatusCreated, body)
}

// List writes a 200 response with the standard list envelope.
func List(ctx *gin.Context, items interface{}, p Pagination) {
	ctx.JSON(http.StatusOK, ListResponse{Items: items, Pagination: p})
}
