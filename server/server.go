package server

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scipunch/sitefeed/feed"
	"github.com/scipunch/sitefeed/fetcher/types"
	"github.com/scipunch/sitefeed/site"
)

// Runner produces a feed for a site
type Runner interface {
	Run(ctx context.Context, s *site.Site, full bool) types.FeedChannel
}

// Server exposes one feed route per site
type Server struct {
	runner  Runner
	sites   []*site.Site
	log     *zap.Logger
	marshal func(types.FeedChannel) ([]byte, error)
}

// New creates a server for the given sites
func New(runner Runner, sites []*site.Site, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{runner: runner, sites: sites, log: log, marshal: feed.Marshal}
}

// Handler returns the HTTP routes wrapped with request logging
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	for _, st := range s.sites {
		mux.Handle("GET /"+st.Name, s.feedHandler(st))
	}
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("GET /{$}", s.index)
	return s.logRequests(mux)
}

func (s *Server) feedHandler(st *site.Site) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		full := r.URL.Query().Get("full") == "1"
		ch := s.runner.Run(r.Context(), st, full)

		body, err := s.marshal(ch)
		if err != nil {
			s.log.Error("failed to encode feed, serving empty one",
				zap.String("site", st.Name), zap.Int("items", len(ch.Items)), zap.Error(err))
			if body, err = s.marshal(feed.Empty(st.Meta)); err != nil {
				s.log.Error("failed to encode empty feed", zap.String("site", st.Name), zap.Error(err))
				http.Error(w, "failed to encode feed", http.StatusInternalServerError)
				return
			}
		}

		h := w.Header()
		h.Set("Content-Type", feed.ContentType)
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "*")
		h.Set("Access-Control-Allow-Credentials", "*")
		h.Set("Access-Control-Allow-Headers", "*")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.sites))
	for _, st := range s.sites {
		names = append(names, st.Name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "/%s\n/%s?full=1\n", name, name)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(b.String()))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()

		next.ServeHTTP(rec, r)

		s.log.Info("request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.Int("status", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("took", time.Since(start)))
	})
}
