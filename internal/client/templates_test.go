package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFetchTemplates(t *testing.T) {
	var query string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/templates" {
			t.Errorf("path = %s, want /api/templates", r.URL.Path)
		}
		query = r.URL.Query().Get("q")
		fmt.Fprint(w, `{"templates":[{"title":"Email","prompt":"Email {to}","form":[{"label":"To","field":"select","name":"to","options":["boss","team"]}]}]}`)
	})

	cat, err := FetchTemplates(context.Background(), srv.URL+"/api", "mail")
	if err != nil {
		t.Fatalf("FetchTemplates: %v", err)
	}
	if query != "mail" {
		t.Errorf("q = %q, want mail", query)
	}
	email, ok := cat.Find("Email")
	if !ok {
		t.Fatal("Email template missing")
	}
	if opts := email.Fields[0].Options(); len(opts) != 2 || opts[1] != "team" {
		t.Errorf("options = %v", opts)
	}
}

func TestFetchTemplatesErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			want: ErrRequestFailed,
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `<html>`)
			},
			want: ErrMalformedResponse,
		},
		{
			name: "invalid catalog",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"templates":[{"title":"A"},{"title":"A"}]}`)
			},
			want: ErrMalformedResponse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.handler)
			_, err := FetchTemplates(context.Background(), srv.URL, "")
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
