package utils

import (
	"strconv"
	"strings"

	"github.com/clipnest/backend/apperr"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// QueryLimits caps the page size accepted from clients.
type QueryLimits struct {
	Default int64
	Max     int64
}

func ParseIntDefault(v string, def int64) int64 {
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func ParseBoolQuery(value string) (*bool, error) {
	if value == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Pagination reads page and limit from the query string. Out of range values
// are clamped rather than rejected.
func (l QueryLimits) Pagination(c *gin.Context) (page, limit int64) {
	page = ParseIntDefault(c.Query("page"), 1)
	limit = ParseIntDefault(c.Query("limit"), l.Default)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = l.Default
	}
	if l.Max > 0 && limit > l.Max {
		limit = l.Max
	}
	return page, limit
}

// ObjectIDParam parses the named path parameter.
func ObjectIDParam(c *gin.Context, name string) (bson.ObjectID, error) {
	return ParseObjectID(c.Param(name), name)
}

func ParseObjectID(raw, field string) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return bson.ObjectID{}, apperr.InvalidArgumentf("invalid %s", field)
	}
	return id, nil
}
