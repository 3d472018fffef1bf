package services

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type SortType string

const (
	SortText   SortType = "text"
	SortNumber SortType = "number"
)

type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// Column describes one sortable grid column.
type Column struct {
	Key   string   `json:"key"`
	Label string   `json:"label"`
	Sort  SortType `json:"sort"`
}

// MinQueryLength: shorter queries show the full collection, so a single
// keystroke never filters.
const MinQueryLength = 2

// PageSizes the grid accepts.
var PageSizes = []int{10, 25, 50, 100}

const pageWindowSize = 5

// Page is one visible slice of a filtered, sorted collection plus the
// metadata the pagination controls render from.
type Page[T any] struct {
	Rows       []T           `json:"rows"`
	Empty      bool          `json:"empty"`
	PageNumber int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalRows  int           `json:"totalRows"`
	TotalPages int           `json:"totalPages"`
	Window     []int         `json:"window"`
	SortKey    string        `json:"sortKey"`
	SortDir    SortDirection `json:"sortDir"`
	Query      string        `json:"query"`
}

// Grid is the client-side query engine rendered server-side: one per
// entity view, holding the current sort, filter and page. The collection
// itself is passed on every call so the store stays the only owner.
type Grid[T any] struct {
	columns    []Column
	value      func(row T, key string) any
	searchText func(row T) string
	collator   *collate.Collator

	mu       sync.Mutex
	sortKey  string
	sortDir  SortDirection
	query    string
	page     int
	pageSize int
}

func NewGrid[T any](
	columns []Column,
	defaultSort string,
	pageSize int,
	value func(row T, key string) any,
	searchText func(row T) string,
) *Grid[T] {
	if !validPageSize(pageSize) {
		pageSize = 25
	}
	return &Grid[T]{
		columns:    columns,
		value:      value,
		searchText: searchText,
		collator:   collate.New(language.English, collate.IgnoreCase),
		sortKey:    defaultSort,
		sortDir:    SortAscending,
		page:       1,
		pageSize:   pageSize,
	}
}

func validPageSize(size int) bool {
	for _, allowed := range PageSizes {
		if size == allowed {
			return true
		}
	}
	return false
}

func (g *Grid[T]) column(key string) (Column, bool) {
	for _, col := range g.columns {
		if col.Key == key {
			return col, true
		}
	}
	return Column{}, false
}

// SetSort sorts by the column. The same column toggles direction, a new
// column resets to ascending. Either way the view returns to page 1.
func (g *Grid[T]) SetSort(key string) {
	if _, known := g.column(key); !known {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.sortKey == key {
		if g.sortDir == SortAscending {
			g.sortDir = SortDescending
		} else {
			g.sortDir = SortAscending
		}
	} else {
		g.sortKey = key
		g.sortDir = SortAscending
	}
	g.page = 1
}

// SetDirection forces the sort direction, overriding the toggle.
func (g *Grid[T]) SetDirection(dir SortDirection) {
	if dir != SortAscending && dir != SortDescending {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sortDir = dir
}

// SetFilter stores the free-text query and resets to page 1. Queries
// shorter than MinQueryLength are kept but act as "no filter".
func (g *Grid[T]) SetFilter(query string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.query = strings.TrimSpace(query)
	g.page = 1
}

func (g *Grid[T]) SetPage(page int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if page >= 1 {
		g.page = page
	}
}

// SetPageSize switches among the allowed sizes and always resets to
// page 1. Unknown sizes are ignored.
func (g *Grid[T]) SetPageSize(size int) {
	if !validPageSize(size) {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pageSize = size
	g.page = 1
}

// VisiblePage filters, sorts and pages the collection. Sorting is stable:
// rows that compare equal keep their original relative order.
func (g *Grid[T]) VisiblePage(rows []T) Page[T] {
	g.mu.Lock()
	defer g.mu.Unlock()

	filtered := g.filter(rows)
	g.sort(filtered)

	total := len(filtered)
	totalPages := (total + g.pageSize - 1) / g.pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if g.page > totalPages {
		g.page = totalPages
	}

	start := (g.page - 1) * g.pageSize
	end := start + g.pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page[T]{
		Rows:       filtered[start:end],
		Empty:      total == 0,
		PageNumber: g.page,
		PageSize:   g.pageSize,
		TotalRows:  total,
		TotalPages: totalPages,
		Window:     pageWindow(g.page, totalPages),
		SortKey:    g.sortKey,
		SortDir:    g.sortDir,
		Query:      g.query,
	}
}

func (g *Grid[T]) filter(rows []T) []T {
	if utf8.RuneCountInString(g.query) < MinQueryLength {
		return append([]T(nil), rows...)
	}

	query := strings.ToLower(g.query)
	filtered := make([]T, 0, len(rows))
	for _, row := range rows {
		if strings.Contains(g.searchText(row), query) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

func (g *Grid[T]) sort(rows []T) {
	col, known := g.column(g.sortKey)
	if !known {
		return
	}

	descending := g.sortDir == SortDescending
	sort.SliceStable(rows, func(i, j int) bool {
		var cmp int
		switch col.Sort {
		case SortNumber:
			a, b := numberValue(g.value(rows[i], col.Key)), numberValue(g.value(rows[j], col.Key))
			switch {
			case a < b:
				cmp = -1
			case a > b:
				cmp = 1
			}
		default:
			a, _ := g.value(rows[i], col.Key).(string)
			b, _ := g.value(rows[j], col.Key).(string)
			cmp = g.collator.CompareString(a, b)
		}
		if descending {
			return cmp > 0
		}
		return cmp < 0
	})
}

// numberValue coerces a column value for numeric comparison; absent or
// non-numeric values compare as 0.
func numberValue(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case *float64:
		if v != nil {
			return *v
		}
	}
	return 0
}

// pageWindow returns up to five page numbers centered on the current
// page, clamped at the collection boundaries.
func pageWindow(page, totalPages int) []int {
	start := page - pageWindowSize/2
	if start < 1 {
		start = 1
	}
	end := start + pageWindowSize - 1
	if end > totalPages {
		end = totalPages
		start = end - pageWindowSize + 1
		if start < 1 {
			start = 1
		}
	}

	window := make([]int, 0, pageWindowSize)
	for n := start; n <= end; n++ {
		window = append(window, n)
	}
	return window
}
