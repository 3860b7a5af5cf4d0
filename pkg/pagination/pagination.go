package pagination

import "github.com/gin-gonic/gin"

// Allowed per-page sizes for dashboard tables.
var PerPageChoices = []int{5, 10, 20, 50, 100}

const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Envelope is the wire format every paginated list endpoint replies with.
type Envelope[T any] struct {
	Data        []T   `json:"data"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	Total       int64 `json:"total"`
	From        int   `json:"from"`
	To          int   `json:"to"`
	PerPage     int   `json:"per_page"`
}

// Params holds the query parameters of a paginated, searchable list request.
// Both "per" and "per_page" are accepted; "per" wins when both are present.
type Params struct {
	Search  string `form:"search"`
	Page    int    `form:"page"`
	Per     int    `form:"per"`
	PerPage int    `form:"per_page"`
}

// Bind reads pagination params from the request query and applies defaults
// and clamping.
func Bind(c *gin.Context) (Params, error) {
	var p Params
	if err := c.ShouldBindQuery(&p); err != nil {
		return p, err
	}
	p.Normalize()
	return p, nil
}

// Normalize applies defaults and clamping in place.
func (p *Params) Normalize() {
	if p.Per == 0 {
		p.Per = p.PerPage
	}
	if p.Per <= 0 {
		p.Per = DefaultPerPage
	}
	if p.Per > MaxPerPage {
		p.Per = MaxPerPage
	}
	if p.Page <= 0 {
		p.Page = DefaultPage
	}
	p.PerPage = p.Per
}

// Offset converts (page, per) into a row offset.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Per
}

// Wrap builds the response envelope for one page of data. The current page is
// clamped down to the last page so a shrunken result set never reports a page
// past the end.
func Wrap[T any](data []T, p Params, total int64) Envelope[T] {
	last := LastPage(total, p.Per)
	page := p.Page
	if page > last {
		page = last
	}

	from, to := 0, 0
	if len(data) > 0 {
		from = (page-1)*p.Per + 1
		to = from + len(data) - 1
	}

	return Envelope[T]{
		Data:        data,
		CurrentPage: page,
		LastPage:    last,
		Total:       total,
		From:        from,
		To:          to,
		PerPage:     p.Per,
	}
}

// LastPage returns ceil(total/per), with a minimum of 1.
func LastPage(total int64, per int) int {
	if per <= 0 {
		per = DefaultPerPage
	}
	last := int((total + int64(per) - 1) / int64(per))
	if last < 1 {
		last = 1
	}
	return last
}

// Window returns a sliding window of page numbers around current, at most
// width entries, for numbered pagination links.
func Window(current, last, width int) []int {
	if width <= 0 {
		width = 5
	}
	if last < 1 {
		last = 1
	}
	if current < 1 {
		current = 1
	}
	if current > last {
		current = last
	}

	start := current - width/2
	if start < 1 {
		start = 1
	}
	end := start + width - 1
	if end > last {
		end = last
		start = end - width + 1
		if start < 1 {
			start = 1
		}
	}

	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}
