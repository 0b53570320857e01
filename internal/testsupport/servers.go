package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"ovtracker/internal/identification/tmdb"
)

// TMDBServer is a fake film database answering search and detail requests.
type TMDBServer struct {
	URL string

	mu       sync.Mutex
	results  map[string][]tmdb.Result
	searches []string
}

// NewTMDBServer serves results keyed by "<language>|<query>". A key without a
// language prefix matches any language.
func NewTMDBServer(t testing.TB, results map[string][]tmdb.Result) *TMDBServer {
	t.Helper()
	s := &TMDBServer{results: results}
	srv := httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(srv.Close)
	s.URL = srv.URL
	return s
}

// Searches returns the received search requests as "<language>|<query>".
func (s *TMDBServer) Searches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.searches...)
}

func (s *TMDBServer) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	q := r.URL.Query()
	switch {
	case r.URL.Path == "/search/movie":
		key := q.Get("language") + "|" + q.Get("query")
		s.mu.Lock()
		s.searches = append(s.searches, key)
		results, ok := s.results[key]
		if !ok {
			results = s.results[q.Get("query")]
		}
		s.mu.Unlock()
		_ = json.NewEncoder(w).Encode(tmdb.Response{Page: 1, Results: results, TotalResults: len(results), TotalPages: 1})
	case strings.HasPrefix(r.URL.Path, "/movie/"):
		id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/movie/"), 10, 64)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, results := range s.results {
			for _, res := range results {
				if res.ID == id {
					_ = json.NewEncoder(w).Encode(res)
					return
				}
			}
		}
		http.NotFound(w, r)
	default:
		http.NotFound(w, r)
	}
}

// TelegramMessage is one sendMessage call received by TelegramServer.
type TelegramMessage struct {
	ChatID                string
	Text                  string
	ParseMode             string
	DisableWebPagePreview bool
}

// TelegramServer is a fake Bot API.
type TelegramServer struct {
	URL   string
	Token string

	mu       sync.Mutex
	messages []TelegramMessage
	fail     bool
}

// NewTelegramServer starts a fake Bot API accepting token.
func NewTelegramServer(t testing.TB, token string) *TelegramServer {
	t.Helper()
	s := &TelegramServer{Token: token}
	srv := httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(srv.Close)
	s.URL = srv.URL
	return s
}

// Endpoint returns the API endpoint template for the Bot API client.
func (s *TelegramServer) Endpoint() string {
	return s.URL + "/bot%s/%s"
}

// FailSends makes every sendMessage call fail.
func (s *TelegramServer) FailSends(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

// Messages returns the messages received so far.
func (s *TelegramServer) Messages() []TelegramMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TelegramMessage(nil), s.messages...)
}

func (s *TelegramServer) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	prefix := "/bot" + s.Token + "/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		fmt.Fprint(w, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
		return
	}
	switch strings.TrimPrefix(r.URL.Path, prefix) {
	case "getMe":
		fmt.Fprint(w, `{"ok":true,"result":{"id":7,"is_bot":true,"first_name":"ovtracker","username":"ovtracker_bot"}}`)
	case "sendMessage":
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.fail {
			fmt.Fprint(w, `{"ok":false,"error_code":403,"description":"Forbidden: bot was kicked from the channel"}`)
			return
		}
		s.messages = append(s.messages, TelegramMessage{
			ChatID:                r.PostForm.Get("chat_id"),
			Text:                  r.PostForm.Get("text"),
			ParseMode:             r.PostForm.Get("parse_mode"),
			DisableWebPagePreview: r.PostForm.Get("disable_web_page_preview") == "true",
		})
		fmt.Fprintf(w, `{"ok":true,"result":{"message_id":%d,"date":0,"chat":{"id":1,"type":"channel"}}}`, len(s.messages))
	default:
		http.NotFound(w, r)
	}
}
