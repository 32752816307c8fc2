package utils

import (
	"strconv"
	"strings"

	"gorm.io/gorm"
)

const DefaultPerPage = 10

// Page is one slice of an ordered result set. Numbers are 1-based and always
// point at an existing page: an empty result still has a single empty page.
type Page struct {
	Number   int
	NumPages int
	Count    int64
	PerPage  int
	Offset   int
}

// NewPage clamps rawPage into [1, NumPages]. Anything that is not an integer
// selects the first page.
func NewPage(count int64, rawPage string, perPage int) Page {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if count < 0 {
		count = 0
	}

	numPages := int((count + int64(perPage) - 1) / int64(perPage))
	if numPages < 1 {
		numPages = 1
	}

	number := parseIntDefault(strings.TrimSpace(rawPage), 1)
	if number < 1 {
		number = 1
	}
	if number > numPages {
		number = numPages
	}

	return Page{
		Number:   number,
		NumPages: numPages,
		Count:    count,
		PerPage:  perPage,
		Offset:   (number - 1) * perPage,
	}
}

func (p Page) HasNext() bool     { return p.Number < p.NumPages }
func (p Page) HasPrevious() bool { return p.Number > 1 }
func (p Page) HasOtherPages() bool {
	return p.HasNext() || p.HasPrevious()
}

func (p Page) NextNumber() int {
	if p.HasNext() {
		return p.Number + 1
	}
	return p.Number
}

func (p Page) PreviousNumber() int {
	if p.HasPrevious() {
		return p.Number - 1
	}
	return p.Number
}

// PageRange lists every page number, for the pager links.
func (p Page) PageRange() []int {
	pages := make([]int, p.NumPages)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}

func ApplyPagination(db *gorm.DB, p Page) *gorm.DB {
	return db.Offset(p.Offset).Limit(p.PerPage)
}

// Paginate counts the rows matched by query, resolves the requested page and
// loads it into dest. Ordering must already be part of query.
func Paginate(query *gorm.DB, rawPage string, perPage int, dest interface{}) (Page, error) {
	var count int64
	if err := query.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return Page{}, err
	}

	page := NewPage(count, rawPage, perPage)
	if count == 0 {
		return page, nil
	}

	if err := ApplyPagination(query.Session(&gorm.Session{}), page).Find(dest).Error; err != nil {
		return Page{}, err
	}
	return page, nil
}

func parseIntDefault(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
