package airtable

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient("test-token", 5*time.Second, 3, time.Millisecond, nil)
	c.root = server.URL
	return c
}

func baseHandler(t *testing.T) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/meta/bases/appX", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": "appX", "name": "Tracker"}`)
	})
	mux.HandleFunc("/meta/bases/appX/tables", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tables": [{"id": "tbl1", "name": "Projects", "fields": [{"id": "fld1", "name": "Name", "type": "singleLineText"}]}]}`)
	})
	mux.HandleFunc("/meta/bases/appX/tables/tbl1/views", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"views": [{"id": "viw1", "name": "Grid", "type": "grid"}]}`)
	})
	return mux
}

func TestFetchBaseSchema(t *testing.T) {
	var gotAuth string
	mux := baseHandler(t)
	wrapped := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		mux.ServeHTTP(w, r)
	})

	c := testClient(t, wrapped)
	s, err := c.FetchBaseSchema(context.Background(), "appX")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer test-token" {
		t.Errorf("unexpected auth header: %q", gotAuth)
	}
	if s.ID != "appX" || s.Name != "Tracker" {
		t.Errorf("unexpected base identity: %s/%s", s.ID, s.Name)
	}
	if len(s.Tables) != 1 || s.Tables[0].Name != "Projects" {
		t.Fatalf("unexpected tables: %+v", s.Tables)
	}
	if len(s.Tables[0].Views) != 1 || s.Tables[0].Views[0].Name != "Grid" {
		t.Errorf("unexpected views: %+v", s.Tables[0].Views)
	}
}

func TestFetchBaseSchemaNestedBaseInfo(t *testing.T) {
	mux := baseHandler(t)
	mux.HandleFunc("/meta/bases/appY", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"base": {"id": "appY", "name": "Nested"}}`)
	})
	mux.HandleFunc("/meta/bases/appY/tables", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tables": []}`)
	})

	c := testClient(t, mux)
	s, err := c.FetchBaseSchema(context.Background(), "appY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Name != "Nested" {
		t.Errorf("expected nested base info used, got %q", s.Name)
	}
}

func TestFetchBaseSchemaPagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/meta/bases/appX", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": "appX", "name": "Tracker"}`)
	})
	mux.HandleFunc("/meta/bases/appX/tables", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") == "" {
			fmt.Fprint(w, `{"tables": [{"id": "tbl1", "name": "Projects"}], "offset": "page2"}`)
			return
		}
		fmt.Fprint(w, `{"tables": [{"id": "tbl2", "name": "Tasks"}]}`)
	})
	mux.HandleFunc("/meta/bases/appX/tables/tbl1/views", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"views": []}`)
	})
	mux.HandleFunc("/meta/bases/appX/tables/tbl2/views", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"views": []}`)
	})

	c := testClient(t, mux)
	s, err := c.FetchBaseSchema(context.Background(), "appX")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Tables) != 2 || s.Tables[1].Name != "Tasks" {
		t.Errorf("expected both pages collected, got %+v", s.Tables)
	}
}

func TestFetchBaseSchemaViewsNotFound(t *testing.T) {
	mux := baseHandler(t)
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/meta/bases/appX/tables/tbl1/views" {
			http.NotFound(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	}))

	s, err := c.FetchBaseSchema(context.Background(), "appX")
	if err != nil {
		t.Fatalf("expected 404 on views tolerated, got %v", err)
	}
	if s.Tables[0].Views != nil {
		t.Errorf("expected no views, got %+v", s.Tables[0].Views)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	attempts := 0
	mux := baseHandler(t)
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/meta/bases/appX" {
			attempts++
			if attempts < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
		}
		mux.ServeHTTP(w, r)
	}))

	if _, err := c.FetchBaseSchema(context.Background(), "appX"); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestFetchAuthError(t *testing.T) {
	attempts := 0
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.FetchBaseSchema(context.Background(), "appX")
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected auth failures to not be retried, got %d attempts", attempts)
	}
}

func TestFetchBaseNotFound(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := c.FetchBaseSchema(context.Background(), "appGone")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestFetchRateLimitExhausted(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.FetchBaseSchema(context.Background(), "appX")
	var rateErr *RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
}

func TestFetchMalformedCollection(t *testing.T) {
	mux := baseHandler(t)
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/meta/bases/appX/tables" {
			fmt.Fprint(w, `{"tables": {"oops": true}}`)
			return
		}
		mux.ServeHTTP(w, r)
	}))

	_, err := c.FetchBaseSchema(context.Background(), "appX")
	if err == nil {
		t.Fatal("expected malformed-shape error")
	}
	if want := `"tables" is not a list`; !strings.Contains(err.Error(), want) {
		t.Errorf("expected %q in error, got %v", want, err)
	}
}
