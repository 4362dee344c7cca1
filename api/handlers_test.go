package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"todolist/domain"
)

type addCall struct {
	list string
	text string
}

type deleteCall struct {
	list string
	id   string
}

type mockLists struct {
	items      []domain.Item
	list       domain.List
	fetchErr   error
	seedErr    error
	resolveErr error
	mutateErr  error

	mu       sync.Mutex
	seeded   int
	resolved []string
	adds     []addCall
	deletes  []deleteCall
}

func (m *mockLists) DefaultList(ctx context.Context) ([]domain.Item, error) {
	return m.items, m.fetchErr
}

func (m *mockLists) SeedDefaultList(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seeded++
	return m.seedErr
}

func (m *mockLists) Resolve(ctx context.Context, name string) (domain.List, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolved = append(m.resolved, name)
	return m.list, m.resolveErr
}

func (m *mockLists) AddItem(ctx context.Context, listName, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adds = append(m.adds, addCall{list: listName, text: text})
	return m.mutateErr
}

func (m *mockLists) DeleteItem(ctx context.Context, listName, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, deleteCall{list: listName, id: itemID})
	return m.mutateErr
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Renderer = NewRenderer()
	return e
}

func newTestLogger() *log.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func parseHTML(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func renderedItems(doc *goquery.Document) []string {
	var names []string
	doc.Find("form[action='/delete'] .item p").Each(func(_ int, s *goquery.Selection) {
		names = append(names, s.Text())
	})
	return names
}

func TestHomeRendersDefaultList(t *testing.T) {
	e := newTestEcho()
	lists := &mockLists{items: []domain.Item{{ID: "1", Name: "Buy milk"}, {ID: "2", Name: "Walk <dog>"}}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := home(lists, newTestLogger())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	doc := parseHTML(t, rec.Body.String())
	if title := doc.Find("h1").First().Text(); title != "Today" {
		t.Fatalf("unexpected title %q", title)
	}
	got := renderedItems(doc)
	if len(got) != 2 || got[0] != "Buy milk" || got[1] != "Walk <dog>" {
		t.Fatalf("unexpected items: %#v", got)
	}
	if v, _ := doc.Find("input[name='checkbox']").First().Attr("value"); v != "1" {
		t.Fatalf("unexpected checkbox value %q", v)
	}
	if v, _ := doc.Find("input[name='listName']").First().Attr("value"); v != "Today" {
		t.Fatalf("unexpected listName value %q", v)
	}
	if v, _ := doc.Find("button[name='list']").Attr("value"); v != "Today" {
		t.Fatalf("unexpected add button value %q", v)
	}
	if lists.seeded != 0 {
		t.Fatalf("non-empty list must not be seeded")
	}
}

func TestHomeSeedsEmptyListAndRedirects(t *testing.T) {
	e := newTestEcho()
	lists := &mockLists{}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := home(lists, newTestLogger())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusFound {
		t.Fatalf("expected status 302 got %d", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/" {
		t.Fatalf("unexpected redirect %q", loc)
	}
	if lists.seeded != 1 {
		t.Fatalf("expected one seed, got %d", lists.seeded)
	}
}

func TestHomeStorageErrors(t *testing.T) {
	tests := []struct {
		name  string
		lists *mockLists
		body  string
	}{
		{name: "fetch", lists: &mockLists{fetchErr: errors.New("down")}, body: "Error retrieving items."},
		{name: "seed", lists: &mockLists{seedErr: errors.New("read only")}, body: "Error saving default items."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			if err := home(tt.lists, newTestLogger())(c); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("expected status 500 got %d", rec.Code)
			}
			if rec.Body.String() != tt.body {
				t.Fatalf("unexpected body %q", rec.Body.String())
			}
		})
	}
}

func TestCustomListRendersResolvedList(t *testing.T) {
	e := newTestEcho()
	lists := &mockLists{list: domain.List{ID: "l1", Name: "Work", Items: []domain.Item{{ID: "a", Name: "ship it"}}}}
	req := httptest.NewRequest(http.MethodGet, "/work", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("listName")
	c.SetParamValues("work")

	if err := customList(lists, newTestLogger())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if len(lists.resolved) != 1 || lists.resolved[0] != "work" {
		t.Fatalf("unexpected resolve calls: %#v", lists.resolved)
	}
	doc := parseHTML(t, rec.Body.String())
	if title := doc.Find("h1").First().Text(); title != "Work" {
		t.Fatalf("unexpected title %q", title)
	}
	if got := renderedItems(doc); len(got) != 1 || got[0] != "ship it" {
		t.Fatalf("unexpected items: %#v", got)
	}
}

func TestCustomListUnescapesName(t *testing.T) {
	e := newTestEcho()
	lists := &mockLists{list: domain.List{Name: "My list"}}
	req := httptest.NewRequest(http.MethodGet, "/my%20list", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("listName")
	c.SetParamValues("my%20list")

	if err := customList(lists, newTestLogger())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if lists.resolved[0] != "my list" {
		t.Fatalf("expected unescaped name, got %q", lists.resolved[0])
	}
}

func TestCustomListResolveError(t *testing.T) {
	e := newTestEcho()
	lists := &mockLists{resolveErr: errors.New("down")}
	req := httptest.NewRequest(http.MethodGet, "/work", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("listName")
	c.SetParamValues("work")

	if err := customList(lists, newTestLogger())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500 got %d", rec.Code)
	}
}

func TestAddItemRedirects(t *testing.T) {
	tests := []struct {
		name     string
		list     string
		mutErr   error
		location string
	}{
		{name: "default list", list: "Today", location: "/"},
		{name: "custom list", list: "Work", location: "/Work"},
		{name: "custom list with space", list: "My list", location: "/My%20list"},
		{name: "storage error still redirects", list: "Work", mutErr: errors.New("down"), location: "/Work"},
		{name: "missing list still redirects", list: "Gone", mutErr: domain.ErrListNotFound, location: "/Gone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho()
			lists := &mockLists{mutateErr: tt.mutErr}
			rec := httptest.NewRecorder()
			c := e.NewContext(formRequest("/", url.Values{"newItem": {"X"}, "list": {tt.list}}), rec)

			if err := addItem(lists, newTestLogger())(c); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if rec.Code != http.StatusFound {
				t.Fatalf("expected status 302 got %d", rec.Code)
			}
			if loc := rec.Header().Get(echo.HeaderLocation); loc != tt.location {
				t.Fatalf("redirect = %q, want %q", loc, tt.location)
			}
			if len(lists.adds) != 1 || lists.adds[0] != (addCall{list: tt.list, text: "X"}) {
				t.Fatalf("unexpected add calls: %#v", lists.adds)
			}
		})
	}
}

func TestDeleteItemRedirects(t *testing.T) {
	tests := []struct {
		name     string
		list     string
		mutErr   error
		location string
	}{
		{name: "default list", list: "Today", location: "/"},
		{name: "custom list", list: "Work", location: "/Work"},
		{name: "storage error still redirects", list: "Today", mutErr: errors.New("down"), location: "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho()
			lists := &mockLists{mutateErr: tt.mutErr}
			rec := httptest.NewRecorder()
			c := e.NewContext(formRequest("/delete", url.Values{"checkbox": {"42"}, "listName": {tt.list}}), rec)

			if err := deleteItem(lists, newTestLogger())(c); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if rec.Code != http.StatusFound {
				t.Fatalf("expected status 302 got %d", rec.Code)
			}
			if loc := rec.Header().Get(echo.HeaderLocation); loc != tt.location {
				t.Fatalf("redirect = %q, want %q", loc, tt.location)
			}
			if len(lists.deletes) != 1 || lists.deletes[0] != (deleteCall{list: tt.list, id: "42"}) {
				t.Fatalf("unexpected delete calls: %#v", lists.deletes)
			}
		})
	}
}

func TestAboutRoutePrecedesListRoute(t *testing.T) {
	e := echo.New()
	lists := &mockLists{}
	Register(e, lists, newTestLogger())

	req := httptest.NewRequest(http.MethodGet, "/about", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if len(lists.resolved) != 0 {
		t.Fatalf("/about must not resolve a list, got %#v", lists.resolved)
	}
	doc := parseHTML(t, rec.Body.String())
	if title := doc.Find("h1").First().Text(); title != "About" {
		t.Fatalf("unexpected title %q", title)
	}
}

func TestHealthz(t *testing.T) {
	tests := []struct {
		name  string
		lists *mockLists
		code  int
	}{
		{name: "ok", lists: &mockLists{}, code: http.StatusOK},
		{name: "storage down", lists: &mockLists{fetchErr: errors.New("down")}, code: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)
			if err := healthz(tt.lists, newTestLogger())(c); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if rec.Code != tt.code {
				t.Fatalf("expected status %d got %d", tt.code, rec.Code)
			}
		})
	}
}
