package services

import (
	"net/url"
	"strconv"
)

// Page is a length-aware page of results, shaped like the paginator JSON the
// dashboard clients already consume.
type Page[T any] struct {
	Data         []T     `json:"data"`
	CurrentPage  int     `json:"current_page"`
	PerPage      int     `json:"per_page"`
	Total        int64   `json:"total"`
	LastPage     int     `json:"last_page"`
	From         *int    `json:"from"`
	To           *int    `json:"to"`
	Path         string  `json:"path"`
	FirstPageURL string  `json:"first_page_url"`
	LastPageURL  string  `json:"last_page_url"`
	NextPageURL  *string `json:"next_page_url"`
	PrevPageURL  *string `json:"prev_page_url"`
}

// NewPage builds page metadata for data, which must be the rows at
// PageOffset(page, perPage).
func NewPage[T any](data []T, page, perPage int, total int64) *Page[T] {
	page = NormalizePage(page)
	if data == nil {
		data = []T{}
	}
	last := 1
	if perPage > 0 && total > 0 {
		last = int((total + int64(perPage) - 1) / int64(perPage))
	}
	p := &Page[T]{
		Data:        data,
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
		LastPage:    last,
	}
	if len(data) > 0 {
		from := PageOffset(page, perPage) + 1
		to := from + len(data) - 1
		p.From, p.To = &from, &to
	}
	return p
}

// WithLinks fills the URL fields from the request path and its query; the
// page parameter is replaced per link and every other parameter is kept.
func (p *Page[T]) WithLinks(path string, query url.Values) *Page[T] {
	p.Path = path
	link := func(n int) string {
		q := url.Values{}
		for k, v := range query {
			q[k] = append([]string(nil), v...)
		}
		q.Set("page", strconv.Itoa(n))
		return path + "?" + q.Encode()
	}
	p.FirstPageURL = link(1)
	p.LastPageURL = link(p.LastPage)
	p.NextPageURL, p.PrevPageURL = nil, nil
	if p.CurrentPage < p.LastPage {
		next := link(p.CurrentPage + 1)
		p.NextPageURL = &next
	}
	if p.CurrentPage > 1 {
		prev := link(p.CurrentPage - 1)
		p.PrevPageURL = &prev
	}
	return p
}

func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func PageOffset(page, perPage int) int {
	return (NormalizePage(page) - 1) * perPage
}
