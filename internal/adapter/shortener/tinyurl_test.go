package shortener

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTinyURL_Shorten(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{name: "ok", status: http.StatusOK, body: "https://tinyurl.com/abc\n", want: "https://tinyurl.com/abc"},
		{name: "error body", status: http.StatusOK, body: "Error", wantErr: true},
		{name: "server error", status: http.StatusInternalServerError, body: "https://tinyurl.com/x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotURL string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotURL = r.URL.Query().Get("url")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			long := "https://cdn.example/file?sign=a&b=c"
			got, err := NewTinyURL(srv.URL).Shorten(context.Background(), long)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Shorten() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Shorten() = %q, want %q", got, tt.want)
			}
			if gotURL != long {
				t.Errorf("server saw url = %q, want %q", gotURL, long)
			}
		})
	}
}
