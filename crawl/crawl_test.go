package crawl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchMarkdown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><h1>Shop</h1><a href="/p/1">item one</a></body></html>`))
	}))
	defer srv.Close()

	s := NewService(WithTimeout(5 * time.Second))
	md, err := s.Fetch(context.Background(), srv.URL, FormatMarkdown)
	require.NoError(t, err)
	assert.Contains(t, md, "# Shop")
	assert.Contains(t, md, srv.URL+"/p/1")
}

func TestFetchHTMLPassthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>raw</p></body></html>`))
	}))
	defer srv.Close()

	s := NewService()
	raw, err := s.Fetch(context.Background(), srv.URL, FormatHTML)
	require.NoError(t, err)
	assert.Contains(t, raw, "<p>raw</p>")
}

func TestFetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewService()
	_, err := s.Fetch(context.Background(), srv.URL, FormatMarkdown)
	assert.Error(t, err)
}

func TestFetchAllIsolatesFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "bad") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`<html><body><p>ok ` + r.URL.Path + `</p></body></html>`))
	}))
	defer srv.Close()

	s := NewService(WithMaxParallel(2))
	urls := []string{
		srv.URL + "/a",
		srv.URL + "/bad",
		srv.URL + "/b",
	}
	results := s.FetchAll(context.Background(), urls, FormatMarkdown)
	require.Len(t, results, 3)

	// input order preserved
	for i, u := range urls {
		assert.Equal(t, u, results[i].URL)
	}
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)
	assert.Contains(t, results[2].Content, "ok /b")
}

func TestFetchRobotsDisallowed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>open</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewService(WithRobots(true))

	_, err := s.Fetch(context.Background(), srv.URL+"/private/page", FormatMarkdown)
	assert.ErrorIs(t, err, ErrRobotsDisallowed)

	_, err = s.Fetch(context.Background(), srv.URL+"/public", FormatMarkdown)
	assert.NoError(t, err)
}
