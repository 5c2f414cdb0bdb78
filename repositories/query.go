package repositories

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/prashant564/Courses24-API/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultPage  = 1
	DefaultLimit = 25
	MaxLimit     = 100
)

var reservedKeys = map[string]bool{
	"select": true,
	"sort":   true,
	"page":   true,
	"limit":  true,
}

var comparisonOps = map[string]bool{
	"gt": true, "gte": true, "lt": true, "lte": true,
	"in": true, "nin": true, "ne": true, "eq": true,
}

// Reference fields whose hex values are compared as ObjectIDs.
var objectIDFields = map[string]bool{
	"_id":      true,
	"user":     true,
	"bootcamp": true,
}

// ListQuery is a parsed listing request: a Mongo filter plus projection,
// sort order and page window.
type ListQuery struct {
	Filter     bson.M
	Projection bson.M
	Sort       bson.D
	Page       int
	Limit      int
}

// ParseListQuery turns a query string such as
// "averageCost[lte]=10000&select=name&sort=-name&page=2" into a ListQuery.
// When a key is repeated only its last value is used.
func ParseListQuery(values url.Values) (ListQuery, error) {
	q := ListQuery{
		Filter: bson.M{},
		Sort:   bson.D{{Key: "createdAt", Value: -1}},
		Page:   DefaultPage,
		Limit:  DefaultLimit,
	}

	equals := map[string]interface{}{}
	ops := map[string]bson.M{}

	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		raw := vals[len(vals)-1]

		if strings.Contains(key, "$") {
			return ListQuery{}, fmt.Errorf("%w: operator keys are not allowed (%s)", ErrInvalidQuery, key)
		}
		if reservedKeys[key] {
			continue
		}

		field, op, err := splitKey(key)
		if err != nil {
			return ListQuery{}, err
		}

		if op == "" {
			equals[field] = typedValue(field, raw)
			continue
		}
		if ops[field] == nil {
			ops[field] = bson.M{}
		}
		if op == "in" || op == "nin" {
			parts := strings.Split(raw, ",")
			list := make([]interface{}, 0, len(parts))
			for _, p := range parts {
				list = append(list, typedValue(field, strings.TrimSpace(p)))
			}
			ops[field]["$"+op] = list
		} else {
			ops[field]["$"+op] = typedValue(field, raw)
		}
	}

	for field, v := range equals {
		if m, ok := ops[field]; ok {
			m["$eq"] = v
			continue
		}
		q.Filter[field] = v
	}
	for field, m := range ops {
		q.Filter[field] = m
	}

	if sel := strings.TrimSpace(lastValue(values, "select")); sel != "" {
		q.Projection = bson.M{}
		for _, f := range strings.Split(sel, ",") {
			if f = strings.TrimSpace(f); f != "" {
				q.Projection[f] = 1
			}
		}
	}

	if s := strings.TrimSpace(lastValue(values, "sort")); s != "" {
		q.Sort = parseSort(s)
	}

	var err error
	if q.Page, err = positiveInt(lastValue(values, "page"), DefaultPage); err != nil {
		return ListQuery{}, fmt.Errorf("%w: page %v", ErrInvalidQuery, err)
	}
	if q.Limit, err = positiveInt(lastValue(values, "limit"), DefaultLimit); err != nil {
		return ListQuery{}, fmt.Errorf("%w: limit %v", ErrInvalidQuery, err)
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}

	return q, nil
}

// Skip is the number of documents before the requested page.
func (q ListQuery) Skip() int64 {
	return int64((q.Page - 1) * q.Limit)
}

// Paginate computes the previous/next page references for a result total.
func (q ListQuery) Paginate(total int64) models.Pagination {
	var p models.Pagination
	if int64(q.Page*q.Limit) < total {
		p.Next = &models.PageRef{Page: q.Page + 1, Limit: q.Limit}
	}
	if q.Skip() > 0 {
		p.Prev = &models.PageRef{Page: q.Page - 1, Limit: q.Limit}
	}
	return p
}

// With returns a copy of q whose filter also requires field == value.
func (q ListQuery) With(field string, value interface{}) ListQuery {
	filter := make(bson.M, len(q.Filter)+1)
	for k, v := range q.Filter {
		filter[k] = v
	}
	filter[field] = value
	q.Filter = filter
	return q
}

func splitKey(key string) (field, op string, err error) {
	open := strings.Index(key, "[")
	if open < 0 {
		if key == "" {
			return "", "", fmt.Errorf("%w: empty field", ErrInvalidQuery)
		}
		return key, "", nil
	}
	if !strings.HasSuffix(key, "]") || open == 0 {
		return "", "", fmt.Errorf("%w: malformed key %q", ErrInvalidQuery, key)
	}
	field = key[:open]
	op = key[open+1 : len(key)-1]
	if !comparisonOps[op] {
		return "", "", fmt.Errorf("%w: unsupported operator %q", ErrInvalidQuery, op)
	}
	return field, op, nil
}

func parseSort(s string) bson.D {
	var sort bson.D
	hasID := false
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		dir := 1
		if strings.HasPrefix(f, "-") {
			dir = -1
			f = f[1:]
		}
		if f == "_id" {
			hasID = true
		}
		sort = append(sort, bson.E{Key: f, Value: dir})
	}
	if len(sort) == 0 {
		return bson.D{{Key: "createdAt", Value: -1}}
	}
	// stable order across pages
	if !hasID {
		sort = append(sort, bson.E{Key: "_id", Value: 1})
	}
	return sort
}

// typedValue converts a raw query value into the BSON type it most likely
// represents. Values with a leading zero such as zipcodes stay strings.
func typedValue(field, raw string) interface{} {
	if objectIDFields[field] {
		if id, err := primitive.ObjectIDFromHex(raw); err == nil {
			return id
		}
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if len(raw) > 1 && raw[0] == '0' && raw[1] != '.' {
		return raw
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	return raw
}

func positiveInt(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	if n < 1 {
		return 0, fmt.Errorf("must be at least 1")
	}
	return n, nil
}

func lastValue(values url.Values, key string) string {
	vals := values[key]
	if len(vals) == 0 {
		return ""
	}
	return vals[len(vals)-1]
}
