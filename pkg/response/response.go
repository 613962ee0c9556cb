package response

import (
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

// MetaKey is the gin context key holding request scoped response metadata.
const MetaKey = "response.meta"

// SetMeta records a metadata entry added to every envelope of the request.
func SetMeta(c *gin.Context, key string, value interface{}) {
	meta, _ := c.Get(MetaKey)
	m, ok := meta.(map[string]interface{})
	if !ok {
		m = map[string]interface{}{}
		c.Set(MetaKey, m)
	}
	m[key] = value
}

func mergeMeta(c *gin.Context, meta []map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	if base, ok := c.Get(MetaKey); ok {
		if m, ok := base.(map[string]interface{}); ok {
			for k, v := range m {
				out[k] = v
			}
		}
	}
	for _, m := range meta {
		for k, v := range m {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Envelope represents the common response contract.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// listEnvelope keeps the data key even when the list is empty.
type listEnvelope struct {
	Data       interface{}            `json:"data"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// JSON sends a success response with optional pagination metadata.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	noStore(c)
	envelope := Envelope{Data: data, Pagination: pagination, Meta: mergeMeta(c, meta)}
	c.JSON(status, envelope)
}

// List sends a `{data: [...]}` payload; nil slices are rendered as an empty array.
func List(c *gin.Context, items interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	noStore(c)
	if items == nil {
		items = []struct{}{}
	} else if v := reflect.ValueOf(items); v.Kind() == reflect.Slice && v.IsNil() {
		items = reflect.MakeSlice(v.Type(), 0, 0).Interface()
	}
	envelope := listEnvelope{Data: items, Pagination: pagination, Meta: mergeMeta(c, meta)}
	c.JSON(http.StatusOK, envelope)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error, meta ...map[string]interface{}) {
	appErr := appErrors.FromError(err)
	noStore(c)
	envelope := Envelope{Error: appErr, Meta: mergeMeta(c, meta)}
	c.JSON(appErr.Status, envelope)
}

// HTML writes a pre-rendered fragment.
func HTML(c *gin.Context, status int, fragment []byte) {
	noStore(c)
	c.Data(status, "text/html; charset=utf-8", fragment)
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
