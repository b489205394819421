package flock

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is a normalized pagination request. Build one with [NewPage]; the zero
// value is not clamped.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps the requested values instead of rejecting them.
func NewPage(number, size int) Page {
	if number < 1 {
		number = DefaultPage
	}
	switch {
	case size < 1:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}

	return Page{Number: number, Size: size}
}

// Window returns the half-open range [start, end) of a list of total items
// that falls on this page. Pages past the end yield an empty range.
func (p Page) Window(total int) (start, end int) {
	// Compare page indices before multiplying so huge page numbers can't wrap.
	if p.Number-1 >= p.PageCount(total) {
		return total, total
	}

	start = (p.Number - 1) * p.Size

	return start, min(start+p.Size, total)
}

// PageCount is ceil(total / size), and 0 when there is nothing to page.
func (p Page) PageCount(total int) int {
	if total <= 0 {
		return 0
	}

	return (total + p.Size - 1) / p.Size
}

// Paginated is one page of results plus the metadata to fetch the others.
type Paginated[T any] struct {
	Items       []T
	Total       int
	Page        int
	PageSize    int
	PageCount   int
	HasNextPage bool
	HasPrevPage bool
}

// Paginate cuts the page out of the full result set.
func Paginate[T any](all []T, p Page) Paginated[T] {
	start, end := p.Window(len(all))
	items := make([]T, end-start)
	copy(items, all[start:end])

	return envelope(items, len(all), p)
}

func envelope[T any](items []T, total int, p Page) Paginated[T] {
	pageCount := p.PageCount(total)
	return Paginated[T]{
		Items:       items,
		Total:       total,
		Page:        p.Number,
		PageSize:    p.Size,
		PageCount:   pageCount,
		HasNextPage: p.Number < pageCount,
		HasPrevPage: p.Number > 1,
	}
}

// mapPage converts the items of a page while keeping its metadata.
func mapPage[T, U any](pg Paginated[T], f func(T) (U, error)) (Paginated[U], error) {
	items := make([]U, 0, len(pg.Items))
	for _, it := range pg.Items {
		u, err := f(it)
		if err != nil {
			return Paginated[U]{}, err
		}
		items = append(items, u)
	}

	return Paginated[U]{
		Items:       items,
		Total:       pg.Total,
		Page:        pg.Page,
		PageSize:    pg.PageSize,
		PageCount:   pg.PageCount,
		HasNextPage: pg.HasNextPage,
		HasPrevPage: pg.HasPrevPage,
	}, nil
}
