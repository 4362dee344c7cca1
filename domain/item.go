package domain

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultListName is the title of the list backed by the flat item collection.
const DefaultListName = "Today"

// Item represents a single entry in a todo list.
type Item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// List represents a named custom list with nested items.
type List struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

var defaultItemNames = [...]string{
	"Welcome to your todolist!",
	"Hit the + button to add a new item.",
	"<-- Hit this to delete an item.",
}

// DefaultItems returns the canned items used to populate a new list.
// The items carry no ID; storage assigns one when they are persisted.
func DefaultItems() []Item {
	items := make([]Item, len(defaultItemNames))
	for i, name := range defaultItemNames {
		items[i] = Item{Name: name}
	}
	return items
}

// NormalizeListName lower-cases name and upper-cases its first letter.
func NormalizeListName(name string) string {
	if name == "" {
		return ""
	}
	lower := strings.ToLower(name)
	r, size := utf8.DecodeRuneInString(lower)
	return string(unicode.ToUpper(r)) + lower[size:]
}

// IsDefaultList reports whether name addresses the flat item collection.
// The comparison is exact; "today" names a custom list.
func IsDefaultList(name string) bool {
	return name == DefaultListName
}

// RedirectPath returns the escaped path of the page a list is rendered on.
func RedirectPath(listName string) string {
	if IsDefaultList(listName) {
		return "/"
	}
	return "/" + url.PathEscape(NormalizeListName(listName))
}
