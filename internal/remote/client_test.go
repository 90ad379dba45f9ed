package remote

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

type queryLog struct {
	mu   sync.Mutex
	last url.Values
}

func (l *queryLog) record(r *http.Request) {
	l.mu.Lock()
	l.last = r.URL.Query()
	l.mu.Unlock()
}

func (l *queryLog) get(key string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last.Get(key)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func newTestAPI(t *testing.T) (*Client, *queryLog) {
	t.Helper()
	last := &queryLog{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/memes/trending", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"results":[{"id":"1","name":"One","likes":7},{"id":"2","name":"Two"}],"total":2}`)
	})
	mux.HandleFunc("/api/v1/memes", func(w http.ResponseWriter, r *http.Request) {
		last.record(r)
		writeJSON(w, http.StatusOK, `{"results":[{"id":"3","name":"Three","comments":["hi"]}],"total":41,"page":2,"limit":20}`)
	})
	mux.HandleFunc("/api/v1/memes/search", func(w http.ResponseWriter, r *http.Request) {
		last.record(r)
		writeJSON(w, http.StatusOK, `{"results":[],"total":0,"query":"cat"}`)
	})
	mux.HandleFunc("/api/v1/memes/missing", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"error":"Meme not found"}`)
	})
	mux.HandleFunc("/api/v1/memes/1/like", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, `{"id":"1","likes":8}`)
	})
	mux.HandleFunc("/api/v1/captions", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Title string `json:"title"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, `{"caption":"When `+body.Title+` hits"}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(&ClientConfig{BaseURL: srv.URL + "/api/v1/"}), last
}

func TestClient_Feeds(t *testing.T) {
	c, last := newTestAPI(t)
	ctx := t.Context()

	memes, err := c.Trending(ctx)
	if err != nil {
		t.Fatalf("Trending: %v", err)
	}
	if len(memes) != 2 || memes[0].Likes == nil || *memes[0].Likes != 7 || memes[1].Likes != nil {
		t.Fatalf("Trending = %+v", memes)
	}

	page, err := c.List(ctx, ListQuery{Category: "new", Page: 2, SortBy: "date"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 41 || page.Page != 2 || len(page.Memes[0].Comments) != 1 {
		t.Fatalf("List = %+v", page)
	}
	if last.get("category") != "new" || last.get("page") != "2" || last.get("sortBy") != "date" {
		t.Fatal("List did not forward category, page and sortBy")
	}

	if _, err := c.Search(ctx, "cat"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := last.get("q"); got != "cat" {
		t.Fatalf("Search q = %q", got)
	}
}

func TestClient_DetailLikeCaption(t *testing.T) {
	c, _ := newTestAPI(t)
	ctx := t.Context()

	_, err := c.Detail(ctx, "missing")
	if !errors.Is(err, ErrNetwork) || !strings.Contains(err.Error(), "Meme not found") {
		t.Fatalf("Detail(missing) err = %v", err)
	}

	likes, err := c.Like(ctx, "1")
	if err != nil || likes != 8 {
		t.Fatalf("Like = %d, %v", likes, err)
	}

	caption, err := c.GenerateCaption(ctx, "Mondays")
	if err != nil || caption != "When Mondays hits" {
		t.Fatalf("GenerateCaption = %q, %v", caption, err)
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := NewClient(&ClientConfig{BaseURL: srv.URL})
	if _, err := c.Trending(t.Context()); !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
}

func TestUploader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "k" {
			writeJSON(w, http.StatusUnauthorized, `{"success":false,"error":"Invalid API key","status":401}`)
			return
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, `{"success":false,"error":"no image","status":400}`)
			return
		}
		data, _ := io.ReadAll(file)
		if header.Filename != "cat.png" || string(data) != "png-bytes" {
			writeJSON(w, http.StatusBadRequest, `{"success":false,"error":"bad image","status":400}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"success":true,"status":200,"data":{"id":"x","url":"http://cdn/x.png","width":10,"height":20}}`)
	}))
	defer srv.Close()

	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "accepted", key: "k"},
		{name: "bad key", key: "nope", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewUploader(&UploaderConfig{URL: srv.URL, APIKey: tt.key})
			res, err := u.Upload(t.Context(), "cat.png", "", []byte("png-bytes"))
			if tt.wantErr {
				if !errors.Is(err, ErrUpload) || !strings.Contains(err.Error(), "Invalid API key") {
					t.Fatalf("err = %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Upload: %v", err)
			}
			if res.URL != "http://cdn/x.png" || res.Width != 10 || res.Height != 20 {
				t.Fatalf("result = %+v", res)
			}
		})
	}
}

func TestClient_ContentTypeIgnored(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{name: "json body as text/plain", body: `{"results":[{"id":"1","likes":7}],"total":1}`, want: 1},
		{name: "html body", body: `<html>maintenance</html>`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			memes, err := NewClient(&ClientConfig{BaseURL: srv.URL}).Trending(t.Context())
			if tt.wantErr {
				if !errors.Is(err, ErrNetwork) {
					t.Fatalf("err = %v, want ErrNetwork", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Trending: %v", err)
			}
			if len(memes) != tt.want || *memes[0].Likes != 7 {
				t.Fatalf("Trending = %+v", memes)
			}
		})
	}
}

func TestUploader_TextPlainSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, `{"success":true,"status":200,"data":{"id":"x","url":"http://cdn/x.png"}}`)
	}))
	defer srv.Close()

	res, err := NewUploader(&UploaderConfig{URL: srv.URL, APIKey: "k"}).Upload(t.Context(), "cat.png", "Cat", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.URL != "http://cdn/x.png" {
		t.Fatalf("result = %+v", res)
	}
}
