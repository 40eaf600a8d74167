package service

import (
	"strconv"
	"strings"
)

// Page describes one page of a listing using 1-based numbering.
type Page struct {
	Number     int   `json:"number"`
	Size       int   `json:"size"`
	NumPages   int   `json:"num_pages"`
	TotalCount int64 `json:"count"`
}

// Paginate resolves a raw page parameter against total items. A parameter
// that is not an integer selects the first page; an integer outside
// [1, NumPages] selects the last page. There is always at least one page.
func Paginate(raw string, total int64, size int) Page {
	if size <= 0 {
		size = 1
	}
	numPages := int((total + int64(size) - 1) / int64(size))
	if numPages < 1 {
		numPages = 1
	}

	number, err := strconv.Atoi(strings.TrimSpace(raw))
	switch {
	case err != nil:
		number = 1
	case number < 1 || number > numPages:
		number = numPages
	}

	return Page{Number: number, Size: size, NumPages: numPages, TotalCount: total}
}

// Offset is the index of the first item on the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

func (p Page) HasPrevious() bool { return p.Number > 1 }
func (p Page) HasNext() bool     { return p.Number < p.NumPages }
func (p Page) Previous() int     { return p.Number - 1 }
func (p Page) Next() int         { return p.Number + 1 }
