package httpapp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bunchup/bunchup/internal/auth"
	"github.com/bunchup/bunchup/internal/log"
	"github.com/bunchup/bunchup/internal/model"
	"github.com/bunchup/bunchup/internal/rate"
	"github.com/bunchup/bunchup/internal/store"

	"github.com/gorilla/mux"
)

const (
	defaultLimit     = 100
	defaultPollLimit = 50

	// Password grant attempts allowed per username per minute.
	loginAttempts = 10
)

type Server struct {
	store  store.Store
	auth   *auth.Service
	logins rate.Limiter
	router *mux.Router
	now    func() time.Time
}

func NewServer(store store.Store, authSvc *auth.Service) *Server {
	s := &Server{
		store:  store,
		auth:   authSvc,
		logins: rate.NewWindow(loginAttempts, time.Minute),
		now:    time.Now,
	}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	r.Use(recoverMiddleware, logMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = r.NotFoundHandler
	api.MethodNotAllowedHandler = r.MethodNotAllowedHandler

	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/token", s.handleToken).Methods(http.MethodPost)
	api.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet)

	collection(api, "/unions/", s.handleListUnions, http.MethodGet)
	collection(api, "/unions/", s.handleCreateUnion, http.MethodPost)
	api.HandleFunc("/unions/industries", s.handleListIndustries).Methods(http.MethodGet)
	api.HandleFunc("/unions/{id:[0-9]+}", s.handleGetUnion).Methods(http.MethodGet)
	api.HandleFunc("/unions/{id:[0-9]+}/join", s.handleJoinUnion).Methods(http.MethodPost)
	api.HandleFunc("/unions/{id:[0-9]+}/leave", s.handleLeaveUnion).Methods(http.MethodDelete)
	api.HandleFunc("/unions/{id:[0-9]+}/members", s.handleUnionMembers).Methods(http.MethodGet)

	api.HandleFunc("/posts/union/{id:[0-9]+}", s.handleListPosts).Methods(http.MethodGet)
	api.HandleFunc("/posts/union/{id:[0-9]+}", s.handleCreatePost).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id:[0-9]+}", s.handleGetPost).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id:[0-9]+}/comments", s.handleListComments).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id:[0-9]+}/comments", s.handleCreateComment).Methods(http.MethodPost)
	api.HandleFunc("/posts/comments/{id:[0-9]+}", s.handleUpdateComment).Methods(http.MethodPut)
	api.HandleFunc("/posts/comments/{id:[0-9]+}", s.handleDeleteComment).Methods(http.MethodDelete)

	collection(api, "/feedbacks/", s.handleCreateFeedback, http.MethodPost)
	api.HandleFunc("/feedbacks/post/{id:[0-9]+}", s.handleCreatePostFeedback).Methods(http.MethodPost)
	api.HandleFunc("/feedbacks/post/{id:[0-9]+}", s.handleListFeedback).Methods(http.MethodGet)
	api.HandleFunc("/feedbacks/{id:[0-9]+}", s.handleGetFeedback).Methods(http.MethodGet)

	collection(api, "/events/", s.handleListEvents, http.MethodGet)
	collection(api, "/events/", s.handleCreateEvent, http.MethodPost)
	api.HandleFunc("/events/{id:[0-9]+}", s.handleGetEvent).Methods(http.MethodGet)
	api.HandleFunc("/events/{id:[0-9]+}", s.handleUpdateEvent).Methods(http.MethodPut)
	api.HandleFunc("/events/{id:[0-9]+}", s.handleDeleteEvent).Methods(http.MethodDelete)
	api.HandleFunc("/events/{id:[0-9]+}/rsvp", s.handleRSVP).Methods(http.MethodPost)
	api.HandleFunc("/events/{id:[0-9]+}/rsvp", s.handleCancelRSVP).Methods(http.MethodDelete)
	api.HandleFunc("/events/{id:[0-9]+}/attendees", s.handleAttendees).Methods(http.MethodGet)

	collection(api, "/polls/", s.handleListPolls, http.MethodGet)
	collection(api, "/polls/", s.handleCreatePoll, http.MethodPost)
	api.HandleFunc("/polls/{id:[0-9]+}/vote", s.handleVote).Methods(http.MethodPost)
	api.HandleFunc("/polls/{id:[0-9]+}/results", s.handlePollResults).Methods(http.MethodGet)

	api.HandleFunc("/chatbot/ask", s.handleAsk).Methods(http.MethodPost)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	return r
}

// collection registers a collection root both with and without its
// trailing slash.
func collection(r *mux.Router, path string, h http.HandlerFunc, method string) {
	r.HandleFunc(path, h).Methods(method)
	r.HandleFunc(strings.TrimSuffix(path, "/"), h).Methods(method)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info.Printf("%s %s %d %s rid=%s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond), r.Header.Get("X-Request-ID"))
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionalAuth(r *http.Request) *model.User {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil
	}
	verified, err := s.auth.Authenticate(r.Context(), authHeader)
	if err != nil {
		return nil
	}
	return &verified.User
}

func (s *Server) requireAuth(w http.ResponseWriter, r *http.Request) (model.User, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return model.User{}, false
	}
	verified, err := s.auth.Authenticate(r.Context(), authHeader)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidToken) {
			s.internalError(w, r, err)
			return model.User{}, false
		}
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return model.User{}, false
	}
	return verified.User, true
}

// requireOrganizer admits organizers and admins.
func (s *Server) requireOrganizer(w http.ResponseWriter, r *http.Request) (model.User, bool) {
	user, ok := s.requireAuth(w, r)
	if !ok {
		return model.User{}, false
	}
	if !user.Role.CanOrganize() {
		writeDetail(w, http.StatusForbidden, "Insufficient permissions")
		return model.User{}, false
	}
	return user, true
}

type validationIssue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]any{"detail": detail})
}

// writeValidation mirrors the list-shaped detail of a 422 response.
func writeValidation(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []validationIssue{{Loc: []string{"body", field}, Msg: msg, Type: "value_error"}},
	})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	log.Error.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
}

func readJSON(body io.ReadCloser, dest any) error {
	defer body.Close()
	return json.NewDecoder(io.LimitReader(body, 1<<20)).Decode(dest)
}

// decodeBody reads a JSON request body, answering 422 when it is malformed.
func decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := readJSON(r.Body, dest); err != nil {
		writeValidation(w, "body", "Invalid JSON body")
		return false
	}
	return true
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func parseIntDefault(value string, def int) int {
	if value == "" {
		return def
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return def
}

func pageParams(r *http.Request, defLimit int) (skip, limit int) {
	q := r.URL.Query()
	return parseIntDefault(q.Get("skip"), 0), parseIntDefault(q.Get("limit"), defLimit)
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// lookup runs fn and answers 404 with detail when the row is missing.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request, detail string, fn func(ctx context.Context) error) bool {
	if err := fn(r.Context()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, detail)
			return false
		}
		s.internalError(w, r, err)
		return false
	}
	return true
}
