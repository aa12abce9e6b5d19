// Package realworldtest is an in-memory RealWorld (Conduit) backend for tests.
//
// It implements the API endpoints the suite uses with the same envelopes and
// status codes as the reference backend: 201 on creation, 422 on a rejected
// login or invalid payload, 401 without a valid token, 403 when touching another
// user's resource and 404 for unknown slugs, users or comments. Slugs are
// regenerated when a title changes.
package realworldtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/realworld-e2e/internal/models"
)

// Server holds the backend state. All handlers serialise on one mutex.
type Server struct {
	mu sync.Mutex

	router *chi.Mux
	logger arbor.ILogger

	byEmail    map[string]*account
	byUsername map[string]*account
	tokens     map[string]string // token -> username
	articles   map[string]*article
	seq        int

	duplicateTags bool
	requests      map[string]int
}

// Option configures the Server
type Option func(*Server)

// WithDuplicateTags makes GET /tags repeat every tag, like some misbehaving backends
func WithDuplicateTags() Option {
	return func(s *Server) {
		s.duplicateTags = true
	}
}

// WithLogger logs every request
func WithLogger(logger arbor.ILogger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithUser pre-registers an account
func WithUser(creds models.Credentials) Option {
	return func(s *Server) {
		s.addAccount(creds.Email, creds.Username, creds.Password)
	}
}

// New creates a backend with its routes mounted under /api
func New(opts ...Option) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		byEmail:    map[string]*account{},
		byUsername: map[string]*account{},
		tokens:     map[string]string{},
		articles:   map[string]*article{},
		requests:   map[string]int{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler serving the API under /api
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves the backend on a loopback listener. The caller closes the returned server.
// The API root is ts.URL + "/api".
func (s *Server) Start() *httptest.Server {
	return httptest.NewServer(s.router)
}

// Requests returns how many requests reached the route pattern, e.g. "POST /api/users"
func (s *Server) Requests(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[route]
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Recoverer)
	// A browser frontend served from another origin calls this API directly
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	s.router.Use(s.countRequests)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/users/login", s.handleLogin)
		r.Post("/users", s.handleRegister)
		r.Get("/user", s.handleCurrentUser)

		r.Get("/tags", s.handleTags)

		r.Route("/profiles/{username}", func(r chi.Router) {
			r.Get("/", s.handleGetProfile)
			r.Post("/follow", s.handleFollow(true))
			r.Delete("/follow", s.handleFollow(false))
		})

		r.Route("/articles", func(r chi.Router) {
			r.Get("/", s.handleListArticles)
			r.Post("/", s.handleCreateArticle)
			r.Get("/feed", s.handleFeed)
			r.Get("/{slug}", s.handleGetArticle)
			r.Put("/{slug}", s.handleUpdateArticle)
			r.Delete("/{slug}", s.handleDeleteArticle)
			r.Post("/{slug}/favorite", s.handleFavorite(true))
			r.Delete("/{slug}/favorite", s.handleFavorite(false))
			r.Get("/{slug}/comments", s.handleListComments)
			r.Post("/{slug}/comments", s.handleCreateComment)
			r.Delete("/{slug}/comments/{id}", s.handleDeleteComment)
		})
	})
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = strings.TrimSuffix(rctx.RoutePattern(), "/")
		}
		s.mu.Lock()
		s.requests[r.Method+" "+route]++
		s.mu.Unlock()

		if s.logger != nil {
			s.logger.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("realworldtest request")
		}
	})
}

func (s *Server) addAccount(email, username, password string) *account {
	a := &account{email: email, username: username, password: password, follows: map[string]bool{}}
	s.byEmail[email] = a
	s.byUsername[username] = a
	return a
}

func (s *Server) issueToken(a *account) models.User {
	token := uuid.New().String()
	s.tokens[token] = a.username
	return models.User{Email: a.email, Token: token, Username: a.username, Bio: a.bio, Image: a.image}
}

// viewer resolves the Authorization header. ok is false when a header was sent
// but does not carry a known token.
func (s *Server) viewer(r *http.Request) (a *account, ok bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, true
	}
	token, found := strings.CutPrefix(header, "Token ")
	if !found {
		return nil, false
	}
	username, known := s.tokens[token]
	if !known {
		return nil, false
	}
	return s.byUsername[username], true
}

// requireViewer writes 401 and returns nil when the request is not authenticated
func (s *Server) requireViewer(w http.ResponseWriter, r *http.Request) *account {
	a, ok := s.viewer(r)
	if !ok || a == nil {
		writeErrors(w, http.StatusUnauthorized, "token", "is missing or invalid")
		return nil
	}
	return a
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in models.LoginEnvelope
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byEmail[in.User.Email]
	if !ok || a.password != in.User.Password {
		writeErrors(w, http.StatusUnprocessableEntity, "email or password", "is invalid")
		return
	}
	writeJSON(w, http.StatusOK, models.UserEnvelope{User: s.issueToken(a)})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterEnvelope
	if !decode(w, r, &in) {
		return
	}
	u := in.User
	if u.Email == "" || u.Username == "" || u.Password == "" {
		writeErrors(w, http.StatusUnprocessableEntity, "user", "email, username and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[u.Email]; taken {
		writeErrors(w, http.StatusUnprocessableEntity, "email", "has already been taken")
		return
	}
	if _, taken := s.byUsername[u.Username]; taken {
		writeErrors(w, http.StatusUnprocessableEntity, "username", "has already been taken")
		return
	}
	a := s.addAccount(u.Email, u.Username, u.Password)
	writeJSON(w, http.StatusCreated, models.UserEnvelope{User: s.issueToken(a)})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.requireViewer(w, r)
	if a == nil {
		return
	}
	token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Token ")
	writeJSON(w, http.StatusOK, models.UserEnvelope{User: models.User{
		Email: a.email, Token: token, Username: a.username, Bio: a.bio, Image: a.image,
	}})
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, models.TagsEnvelope{Tags: s.tagList()})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	viewer, ok := s.viewer(r)
	if !ok {
		writeErrors(w, http.StatusUnauthorized, "token", "is invalid")
		return
	}
	target, found := s.byUsername[chi.URLParam(r, "username")]
	if !found {
		writeErrors(w, http.StatusNotFound, "profile", "not found")
		return
	}
	writeJSON(w, http.StatusOK, models.ProfileEnvelope{Profile: profileFor(target, viewer)})
}

func (s *Server) handleFollow(follow bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		viewer := s.requireViewer(w, r)
		if viewer == nil {
			return
		}
		target, found := s.byUsername[chi.URLParam(r, "username")]
		if !found {
			writeErrors(w, http.StatusNotFound, "profile", "not found")
			return
		}
		if follow {
			viewer.follows[target.username] = true
		} else {
			delete(viewer.follows, target.username)
		}
		writeJSON(w, http.StatusOK, models.ProfileEnvelope{Profile: profileFor(target, viewer)})
	}
}

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	viewer, ok := s.viewer(r)
	if !ok {
		writeErrors(w, http.StatusUnauthorized, "token", "is invalid")
		return
	}

	q := r.URL.Query()
	tag, author, favorited := q.Get("tag"), q.Get("author"), q.Get("favorited")

	var matched []*article
	for _, a := range s.newestFirst() {
		if tag != "" && !models.NewTagSet(a.tags...).Contains(tag) {
			continue
		}
		if author != "" && a.author != author {
			continue
		}
		if favorited != "" && !a.favoritedBy[favorited] {
			continue
		}
		matched = append(matched, a)
	}
	s.writeArticleList(w, matched, viewer, intParam(q.Get("limit"), 20), intParam(q.Get("offset"), 0))
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	viewer := s.requireViewer(w, r)
	if viewer == nil {
		return
	}

	var matched []*article
	for _, a := range s.newestFirst() {
		if viewer.follows[a.author] {
			matched = append(matched, a)
		}
	}
	q := r.URL.Query()
	s.writeArticleList(w, matched, viewer, intParam(q.Get("limit"), 20), intParam(q.Get("offset"), 0))
}

func (s *Server) writeArticleList(w http.ResponseWriter, matched []*article, viewer *account, limit, offset int) {
	list := models.ArticleList{Articles: []models.Article{}, ArticlesCount: len(matched)}
	for _, a := range page(matched, limit, offset) {
		list.Articles = append(list.Articles, s.articleView(a, viewer))
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	var in models.ArticleInputEnvelope
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	viewer := s.requireViewer(w, r)
	if viewer == nil {
		return
	}
	if in.Article.Title == "" || in.Article.Description == "" || in.Article.Body == "" {
		writeErrors(w, http.StatusUnprocessableEntity, "article", "title, description and body are required")
		return
	}

	now := time.Now().UTC()
	s.seq++
	a := &article{
		seq:         s.seq,
		title:       in.Article.Title,
		description: in.Article.Description,
		body:        in.Article.Body,
		tags:        models.NewTagSet(in.Article.TagList...).Slice(),
		author:      viewer.username,
		createdAt:   now,
		updatedAt:   now,
		favoritedBy: map[string]bool{},
		nextComment: 1,
	}
	a.slug = s.slugFor(a)
	s.articles[a.slug] = a

	writeJSON(w, http.StatusCreated, models.ArticleEnvelope{Article: s.articleView(a, viewer)})
}

func (s *Server) slugFor(a *article) string {
	return fmt.Sprintf("%s-%d", slugify(a.title), a.seq)
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	viewer, ok := s.viewer(r)
	if !ok {
		writeErrors(w, http.StatusUnauthorized, "token", "is invalid")
		return
	}
	a := s.findArticle(w, r)
	if a == nil {
		return
	}
	writeJSON(w, http.StatusOK, models.ArticleEnvelope{Article: s.articleView(a, viewer)})
}

func (s *Server) handleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	var in models.ArticleUpdateEnvelope
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	viewer := s.requireViewer(w, r)
	if viewer == nil {
		return
	}
	a := s.findArticle(w, r)
	if a == nil {
		return
	}
	if a.author != viewer.username {
		writeErrors(w, http.StatusForbidden, "article", "not owned by user")
		return
	}

	u := in.Article
	if u.Title != nil && *u.Title != a.title {
		a.title = *u.Title
		delete(s.articles, a.slug)
		a.slug = s.slugFor(a)
		s.articles[a.slug] = a
	}
	if u.Description != nil {
		a.description = *u.Description
	}
	if u.Body != nil {
		a.body = *u.Body
	}
	a.updatedAt = time.Now().UTC()

	writeJSON(w, http.StatusOK, models.ArticleEnvelope{Article: s.articleView(a, viewer)})
}

func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	viewer := s.requireViewer(w, r)
	if viewer == nil {
		return
	}
	a := s.findArticle(w, r)
	if a == nil {
		return
	}
	if a.author != viewer.username {
		writeErrors(w, http.StatusForbidden, "article", "not owned by user")
		return
	}
	delete(s.articles, a.slug)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFavorite(favorite bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		viewer := s.requireViewer(w, r)
		if viewer == nil {
			return
		}
		a := s.findArticle(w, r)
		if a == nil {
			return
		}
		if favorite {
			a.favoritedBy[viewer.username] = true
		} else {
			delete(a.favoritedBy, viewer.username)
		}
		writeJSON(w, http.StatusOK, models.ArticleEnvelope{Article: s.articleView(a, viewer)})
	}
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	viewer, ok := s.viewer(r)
	if !ok {
		writeErrors(w, http.StatusUnauthorized, "token", "is invalid")
		return
	}
	a := s.findArticle(w, r)
	if a == nil {
		return
	}
	out := models.CommentsEnvelope{Comments: []models.Comment{}}
	for _, c := range a.comments {
		out.Comments = append(out.Comments, s.commentView(c, viewer))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var in models.CommentInputEnvelope
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	viewer := s.requireViewer(w, r)
	if viewer == nil {
		return
	}
	a := s.findArticle(w, r)
	if a == nil {
		return
	}
	if strings.TrimSpace(in.Comment.Body) == "" {
		writeErrors(w, http.StatusUnprocessableEntity, "body", "can't be blank")
		return
	}

	now := time.Now().UTC()
	c := &comment{id: a.nextComment, body: in.Comment.Body, author: viewer.username, createdAt: now, updatedAt: now}
	a.nextComment++
	a.comments = append(a.comments, c)

	writeJSON(w, http.StatusCreated, models.CommentEnvelope{Comment: s.commentView(c, viewer)})
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	viewer := s.requireViewer(w, r)
	if viewer == nil {
		return
	}
	a := s.findArticle(w, r)
	if a == nil {
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeErrors(w, http.StatusNotFound, "comment", "not found")
		return
	}
	for i, c := range a.comments {
		if c.id != id {
			continue
		}
		if c.author != viewer.username {
			writeErrors(w, http.StatusForbidden, "comment", "not owned by user")
			return
		}
		a.comments = append(a.comments[:i], a.comments[i+1:]...)
		w.WriteHeader(http.StatusOK)
		return
	}
	writeErrors(w, http.StatusNotFound, "comment", "not found")
}

// findArticle writes 404 and returns nil when the slug is unknown
func (s *Server) findArticle(w http.ResponseWriter, r *http.Request) *article {
	a, ok := s.articles[chi.URLParam(r, "slug")]
	if !ok {
		writeErrors(w, http.StatusNotFound, "article", "not found")
		return nil
	}
	return a
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrors(w, http.StatusUnprocessableEntity, "body", "is not valid JSON")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrors(w http.ResponseWriter, status int, field, message string) {
	writeJSON(w, status, models.ErrorsEnvelope{Errors: map[string][]string{field: {message}}})
}

func intParam(v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
