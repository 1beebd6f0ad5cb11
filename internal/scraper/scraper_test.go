package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/elcairo-events/internal/event"
	"github.com/pfrederiksen/elcairo-events/internal/factsheet"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/la-cienaga.html")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	return data
}

func fixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	data := loadFixture(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/evento/la-cienaga/2026-03-14/" {
			http.NotFound(w, r)
			return
		}
		if ua := r.Header.Get("User-Agent"); ua != UserAgent {
			t.Errorf("expected User-Agent %q, got %q", UserAgent, ua)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(data)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchDetail(t *testing.T) {
	server := fixtureServer(t)

	s := New(time.Second)
	page := s.FetchDetail(context.Background(), server.URL+"/evento/la-cienaga/2026-03-14/")
	require.NotNil(t, page)

	assert.Equal(t,
		"Verano en La Mandrágora. Mecha y su familia pasan los días junto a una pileta de agua estancada.",
		page.Synopsis())
	assert.Equal(t, "General $3000 – Jubilados y estudiantes $1500", page.Cost())

	want := event.FactSheet{
		Direction: "Lucrecia Martel",
		Cast:      "Graciela Borges, Mercedes Morán",
		Genre:     "Drama",
		Duration:  "103 min.",
		Origin:    "Argentina",
		Year:      "2001",
		Age:       "SAM13",
	}
	assert.Equal(t, want, factsheet.Parse(page.FactSheetBlock()))
}

func TestFetchDetailFailures(t *testing.T) {
	server := fixtureServer(t)

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	tests := []struct {
		name string
		url  string
	}{
		{name: "not found", url: server.URL + "/evento/missing/"},
		{name: "connection refused", url: closedURL + "/evento/la-cienaga/"},
		{name: "timeout", url: slow.URL},
		{name: "malformed url", url: "://bad"},
	}

	s := New(100 * time.Millisecond)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := s.FetchDetail(context.Background(), tt.url)
			assert.Nil(t, page)
			assert.Empty(t, page.Synopsis())
			assert.Empty(t, page.Cost())
			assert.Empty(t, page.FactSheetBlock())
		})
	}
}

func TestFetchDetailCanceledContext(t *testing.T) {
	server := fixtureServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	page := New(time.Second).FetchDetail(ctx, server.URL+"/evento/la-cienaga/2026-03-14/")
	assert.Nil(t, page)
}

func TestParseDetailMissingContainers(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		synopsis string
		cost     string
		sheet    string
	}{
		{
			name: "empty body",
			html: "<html><body></body></html>",
		},
		{
			name:     "synopsis only",
			html:     `<div class="sinopsis-online"><p> Una película. </p></div>`,
			synopsis: "Una película.",
		},
		{
			name: "container without paragraph",
			html: `<div class="informacion-entradas">Entrada libre</div>`,
		},
		{
			name:  "plain text fact sheet",
			html:  "<div class=\"ficha-tecnica-online\">ORIGEN: Chile\nAÑO: 1975</div>",
			sheet: "ORIGEN: Chile\nAÑO: 1975",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := ParseDetail(strings.NewReader(tt.html), DefaultSelectors)
			require.NoError(t, err)
			assert.Equal(t, tt.synopsis, page.Synopsis())
			assert.Equal(t, tt.cost, page.Cost())
			assert.Equal(t, tt.sheet, page.FactSheetBlock())
		})
	}
}

func TestFactSheetBlockMarkup(t *testing.T) {
	html := `<div class="ficha-tecnica-online">
<p>DIRECCIÓN: Agnès Varda</p>
<p>ORIGEN: Francia</p>
<p>AÑO: 1962</p>
</div>`
	page, err := ParseDetail(strings.NewReader(html), DefaultSelectors)
	require.NoError(t, err)

	want := event.FactSheet{Direction: "Agnès Varda", Origin: "Francia", Year: "1962"}
	assert.Equal(t, want, factsheet.Parse(page.FactSheetBlock()))
}

func TestWithSelectors(t *testing.T) {
	html := `<section id="resumen"><p>Otra maqueta</p></section>
<div class="sinopsis-online"><p>No debería leerse</p></div>`

	sel := DefaultSelectors
	sel.Synopsis = "#resumen"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(html))
	}))
	defer server.Close()

	s := New(time.Second).WithSelectors(sel)
	page := s.FetchDetail(context.Background(), server.URL)
	require.NotNil(t, page)
	assert.Equal(t, "Otra maqueta", page.Synopsis())
}

func TestNilDetailPage(t *testing.T) {
	var page *DetailPage
	assert.Empty(t, page.Synopsis())
	assert.Empty(t, page.Cost())
	assert.Empty(t, page.FactSheetBlock())
}
