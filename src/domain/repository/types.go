package repository

import "encoding/json"

type Page struct {
	Limit  int
	Offset int
	Total  int
}

func (self Page) Number() int {
	if self.Limit <= 0 {
		return 1
	}
	number := 1
	for ; number*self.Limit <= self.Offset; number += 1 {
	}
	return number
}

func (self Page) Pages() int {
	if self.Limit <= 0 {
		return 0
	}
	pages := self.Total / self.Limit
	if self.Total%self.Limit != 0 {
		pages += 1
	}
	return pages
}

func (self *Page) MarshalJSON() ([]byte, error) {
	if self == nil {
		return []byte("null"), nil
	}
	page := map[string]int{
		"offset": self.Offset,
		"limit":  self.Limit,
		"total":  self.Total,
	}
	if self.Limit > 0 {
		page["number"] = self.Number()
		page["pages"] = self.Pages()
	}
	return json.Marshal(page)
}
