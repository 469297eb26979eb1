package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// successResponse 成功响应结构，data 为空时省略
type successResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// errorResponse 错误响应结构
type errorResponse struct {
	Error string `json:"error"`
}

// OK 成功响应（200）
func OK(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, successResponse{Message: msg, Data: data})
}

// Created 创建成功响应（201）
func Created(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusCreated, successResponse{Message: msg, Data: data})
}

// BadRequest 请求参数错误（400）
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

// NotFound 资源不存在错误（404）
func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

// InternalError 服务器内部错误（500）
func InternalError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, errorResponse{Error: msg})
}
