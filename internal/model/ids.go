package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IDString coerces an identifier to its string form. Question ids were
// stored both natively (numbers, ObjectIDs) and as strings, so every id
// comparison goes through here first.
func IDString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		if f, err := x.Float64(); err == nil {
			return IDString(f)
		}
		return x.String()
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case primitive.ObjectID:
		return x.Hex()
	case fmt.Stringer:
		return strings.TrimSpace(x.String())
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
