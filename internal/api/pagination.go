package api

import (
	"net/http"
	"strconv"

	"github.com/jdholdren/flock/api"
	"github.com/jdholdren/flock/internal/flock"
)

// parsePage reads ?page=&page_size=, also accepting the camelCase pageSize
// older clients send. Missing or malformed values fall back to the defaults
// and out of range ones are clamped, never rejected.
func parsePage(r *http.Request) flock.Page {
	query := r.URL.Query()

	sizeParam := query.Get("page_size")
	if sizeParam == "" {
		sizeParam = query.Get("pageSize")
	}

	number, _ := strconv.Atoi(query.Get("page"))
	size, _ := strconv.Atoi(sizeParam)

	return flock.NewPage(number, size)
}

// apiPage converts a page of domain records into the wire envelope.
func apiPage[T, U any](pg flock.Paginated[T], f func(T) U) api.Page[U] {
	items := make([]U, 0, len(pg.Items))
	for _, it := range pg.Items {
		items = append(items, f(it))
	}

	return api.Page[U]{
		Items: items,
		Pagination: api.Pagination{
			Total:       pg.Total,
			Page:        pg.Page,
			PageSize:    pg.PageSize,
			PageCount:   pg.PageCount,
			HasNextPage: pg.HasNextPage,
			HasPrevPage: pg.HasPrevPage,
		},
	}
}
