// Package view derives what the page shows from the task list: sort order,
// completed/pending filter and paging. Nothing here mutates the stored list.
package view

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"tasklist/internal/models"
)

// DefaultPageSize matches the table widget's default page length.
const DefaultPageSize = 10

// CompareFold compares a and b ignoring case, using Unicode case folding.
func CompareFold(a, b string) int {
	fold := cases.Fold()
	return strings.Compare(fold.String(a), fold.String(b))
}

// SortField names a sortable text column.
type SortField string

const (
	SortNone        SortField = ""
	SortName        SortField = "name"
	SortDescription SortField = "description"
)

func (f SortField) value(t models.Task) string {
	if f == SortDescription {
		return t.Description
	}
	return t.Name
}

// Order is the sort direction.
type Order string

const (
	Ascending  Order = "asc"
	Descending Order = "desc"
)

// SortBy returns a copy of tasks stably sorted on field. SortNone keeps
// stored order.
func SortBy(tasks []models.Task, field SortField, order Order) []models.Task {
	out := slices.Clone(tasks)
	if field == SortNone {
		return out
	}
	slices.SortStableFunc(out, func(a, b models.Task) int {
		c := CompareFold(field.value(a), field.value(b))
		if order == Descending {
			return -c
		}
		return c
	})
	return out
}

// Filter selects tasks by completion.
type Filter string

const (
	FilterAll       Filter = ""
	FilterCompleted Filter = "completed"
	FilterPending   Filter = "pending"
)

// ParseFilter maps a query value to a Filter; unknown values select all.
func ParseFilter(s string) Filter {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case FilterCompleted:
		return FilterCompleted
	case FilterPending:
		return FilterPending
	default:
		return FilterAll
	}
}

// Apply returns the tasks matching f, in input order.
func (f Filter) Apply(tasks []models.Task) []models.Task {
	if f == FilterAll {
		return slices.Clone(tasks)
	}
	want := f == FilterCompleted
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Completed == want {
			out = append(out, t)
		}
	}
	return out
}

// Page is one page of tasks.
type Page struct {
	Tasks      []models.Task
	Number     int
	Size       int
	TotalPages int
	TotalItems int
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a next page exists.
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

// Prev returns the previous page number.
func (p Page) Prev() int { return p.Number - 1 }

// Next returns the next page number.
func (p Page) Next() int { return p.Number + 1 }

// Paginate returns page number (1-based) of tasks. Out-of-range numbers are
// clamped; an empty list has a single empty page.
func Paginate(tasks []models.Task, number, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(tasks)
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	number = min(max(number, 1), pages)

	start := min((number-1)*size, total)
	end := min(start+size, total)

	return Page{
		Tasks:      slices.Clone(tasks[start:end]),
		Number:     number,
		Size:       size,
		TotalPages: pages,
		TotalItems: total,
	}
}

// Query is the view state carried in the page URL.
type Query struct {
	Sort   SortField
	Order  Order
	Filter Filter
	Page   int
}

// ParseQuery reads sort, order, filter and page from v. Unknown values fall
// back to defaults.
func ParseQuery(v url.Values) Query {
	q := Query{
		Order:  Ascending,
		Filter: ParseFilter(v.Get("filter")),
		Page:   1,
	}

	switch SortField(v.Get("sort")) {
	case SortName:
		q.Sort = SortName
	case SortDescription:
		q.Sort = SortDescription
	}
	if Order(v.Get("order")) == Descending {
		q.Order = Descending
	}
	if n, err := strconv.Atoi(v.Get("page")); err == nil && n > 0 {
		q.Page = n
	}

	return q
}

// Values encodes q, omitting defaults.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Sort != SortNone {
		v.Set("sort", string(q.Sort))
		if q.Order == Descending {
			v.Set("order", string(Descending))
		}
	}
	if q.Filter != FilterAll {
		v.Set("filter", string(q.Filter))
	}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}

// Encode returns q as a query string, without the leading "?".
func (q Query) Encode() string {
	return q.Values().Encode()
}

// WithPage returns q on another page.
func (q Query) WithPage(n int) Query {
	q.Page = n
	return q
}

// WithSort returns q sorted on field, flipping the order when field is
// already the active sort.
func (q Query) WithSort(field SortField) Query {
	if q.Sort == field && q.Order == Ascending {
		q.Order = Descending
	} else {
		q.Order = Ascending
	}
	q.Sort = field
	q.Page = 1
	return q
}

// WithFilter returns q with another filter, back on the first page.
func (q Query) WithFilter(f Filter) Query {
	q.Filter = f
	q.Page = 1
	return q
}

// Apply filters, sorts and pages tasks.
func (q Query) Apply(tasks []models.Task, pageSize int) Page {
	return Paginate(SortBy(q.Filter.Apply(tasks), q.Sort, q.Order), q.Page, pageSize)
}
