package httpapp

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/bunchup/bunchup/internal/auth"
	"github.com/bunchup/bunchup/internal/model"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in model.Registration
	if !decodeBody(w, r, &in) {
		return
	}
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		writeValidation(w, "username", "Username is required")
		return
	}
	if in.Password == "" {
		writeValidation(w, "password", "Password is required")
		return
	}
	if in.Role != "" && !in.Role.Valid() {
		writeValidation(w, "role", "Role must be one of admin, organizer, member")
		return
	}

	user, err := s.auth.Register(r.Context(), in.Username, in.Password, in.Role)
	if err != nil {
		if errors.Is(err, auth.ErrUsernameTaken) {
			writeDetail(w, http.StatusBadRequest, "Username already taken")
			return
		}
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleToken is the OAuth2 password grant: a form-encoded body with
// username and password.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeValidation(w, "username", "Invalid form body")
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if username == "" {
		writeValidation(w, "username", "field required")
		return
	}
	if password == "" {
		writeValidation(w, "password", "field required")
		return
	}

	key := strings.ToLower(strings.TrimSpace(username))
	if ok, wait := s.logins.Allow(key); !ok {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		writeDetail(w, http.StatusTooManyRequests, "Too many login attempts, try again later")
		return
	}

	token, err := s.auth.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
			return
		}
		s.internalError(w, r, err)
		return
	}
	s.logins.Reset(key)
	writeJSON(w, http.StatusOK, token)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}
