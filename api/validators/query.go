package validators

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	pkgerrors "github.com/TThanhhDatt/agent-bot/pkg/errors"
	"github.com/TThanhhDatt/agent-bot/pkg/pagination"
)

// ListQuery is the paging and filter part of an admin list request.
type ListQuery struct {
	Limit    int
	Cursor   string
	OpenOnly bool
}

// ParseListQuery reads limit, cursor and openOnly. A missing limit means
// pagination.DefaultLimit; the cursor is passed through opaque and checked by the service.
func ParseListQuery(r *http.Request) (ListQuery, error) {
	values := r.URL.Query()
	q := ListQuery{Limit: pagination.DefaultLimit, Cursor: queryValue(values, "cursor")}

	if raw := queryValue(values, "limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return ListQuery{}, invalidQuery("limit", "must be numeric")
		}
		if limit < 1 || limit > pagination.MaxLimit {
			return ListQuery{}, invalidQuery("limit", "must be between 1 and "+strconv.Itoa(pagination.MaxLimit))
		}
		q.Limit = limit
	}

	if raw := queryValue(values, "openOnly"); raw != "" {
		open, err := strconv.ParseBool(raw)
		if err != nil {
			return ListQuery{}, invalidQuery("openOnly", "must be true or false")
		}
		q.OpenOnly = open
	}
	return q, nil
}

func queryValue(values url.Values, key string) string {
	return strings.TrimSpace(values.Get(key))
}

func invalidQuery(field, reason string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid query parameter").
		WithDetails(map[string]string{field: reason})
}
