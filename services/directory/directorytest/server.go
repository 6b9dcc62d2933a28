// Package directorytest provides an in-memory directory API for tests.
package directorytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/trezcool/schoolhub/core/auth"
)

// OTP is the one-time password accepted by every Server.
const OTP = "1234"

type account struct {
	user     auth.User
	password string
	banned   bool
}

// Server fakes the directory endpoints used by this repository.
type Server struct {
	*httptest.Server

	mutex    sync.Mutex
	schools  []map[string]interface{}
	pending  []map[string]interface{}
	accounts map[string]*account // by email
	otpSent  map[string]bool
	calls    map[string]int
}

func NewServer() *Server {
	s := &Server{
		accounts: make(map[string]*account),
		otpSent:  make(map[string]bool),
		calls:    make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", s.login)
	mux.HandleFunc("POST /auth/register", s.register)
	mux.HandleFunc("GET /auth/me", s.me)
	mux.HandleFunc("POST /auth/send-otp", s.sendOTP)
	mux.HandleFunc("POST /auth/verify-otp", s.verifyOTP)
	mux.HandleFunc("POST /auth/reset-password", s.resetPassword)
	mux.HandleFunc("GET /schools", s.searchSchools)
	mux.HandleFunc("GET /schools/mine", s.mySchools)
	mux.HandleFunc("GET /schools/{slug}", s.getSchool)
	mux.HandleFunc("GET /schools/{id}/similar", s.similarSchools)
	mux.HandleFunc("GET /admin/schools/pending", s.pendingSchools)

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mutex.Lock()
		s.calls[r.Method+" "+r.URL.Path]++
		s.mutex.Unlock()
		mux.ServeHTTP(w, r)
	}))
	return s
}

// AddSchool publishes a school. It must carry "_id" and "slug".
func (s *Server) AddSchool(attrs map[string]interface{}) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.schools = append(s.schools, attrs)
}

// AddPendingSchool queues a school for approval.
func (s *Server) AddPendingSchool(attrs map[string]interface{}) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.pending = append(s.pending, attrs)
}

// AddUser creates an account.
func (s *Server) AddUser(usr auth.User, password string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.accounts[usr.Email] = &account{user: usr, password: password}
}

// Ban bans the account of email.
func (s *Server) Ban(email string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if acc, ok := s.accounts[email]; ok {
		acc.banned = true
	}
}

// Calls returns how many times "METHOD /path" was requested.
func (s *Server) Calls(route string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.calls[route]
}

// TokenFor returns the token the server issues to usr.
func TokenFor(usr auth.User) string {
	return "token-" + usr.ID
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func fail(w http.ResponseWriter, code int, msg string, extra ...map[string]interface{}) {
	body := map[string]interface{}{"success": false, "error": msg}
	for _, e := range extra {
		for k, v := range e {
			body[k] = v
		}
	}
	writeJSON(w, code, body)
}

func (s *Server) currentUser(r *http.Request) (auth.User, bool) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, acc := range s.accounts {
		if token != "" && TokenFor(acc.user) == token {
			return acc.user, true
		}
	}
	return auth.User{}, false
}

func decode(r *http.Request) map[string]string {
	body := make(map[string]string)
	_ = json.NewDecoder(r.Body).Decode(&body)
	return body
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	body := decode(r)
	s.mutex.Lock()
	acc, ok := s.accounts[body["email"]]
	s.mutex.Unlock()

	switch {
	case !ok || acc.password != body["password"]:
		fail(w, http.StatusUnauthorized, "Invalid credentials")
	case acc.banned:
		fail(w, http.StatusForbidden, "Your account has been banned", map[string]interface{}{"banned": true})
	default:
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "token": TokenFor(acc.user), "user": acc.user})
	}
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	body := decode(r)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.accounts[body["email"]]; exists {
		fail(w, http.StatusBadRequest, "User already exists", map[string]interface{}{"field": "email"})
		return
	}
	role := body["role"]
	if role == "" {
		role = auth.RoleUser
	}
	usr := auth.User{
		ID:    "u" + strconv.Itoa(len(s.accounts)+1),
		Name:  body["name"],
		Email: body["email"],
		Role:  role,
		City:  body["city"],
	}
	s.accounts[usr.Email] = &account{user: usr, password: body["password"]}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "token": TokenFor(usr), "user": usr})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	usr, ok := s.currentUser(r)
	if !ok {
		fail(w, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": usr})
}

func (s *Server) sendOTP(w http.ResponseWriter, r *http.Request) {
	body := decode(r)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.accounts[body["email"]]; !ok {
		fail(w, http.StatusNotFound, "There is no user with that email")
		return
	}
	s.otpSent[body["email"]] = true
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "OTP sent to your email"})
}

func (s *Server) checkOTP(email, otp string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.otpSent[email] && otp == OTP
}

func (s *Server) verifyOTP(w http.ResponseWriter, r *http.Request) {
	body := decode(r)
	if !s.checkOTP(body["email"], body["otp"]) {
		fail(w, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "OTP verified"})
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	body := decode(r)
	if !s.checkOTP(body["email"], body["otp"]) {
		fail(w, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	acc := s.accounts[body["email"]]
	acc.password = body["password"]
	delete(s.otpSent, body["email"])
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "token": TokenFor(acc.user), "user": acc.user})
}

func (s *Server) searchSchools(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.mutex.Lock()
	found := make([]map[string]interface{}, 0, len(s.schools))
	for _, sch := range s.schools {
		if city := q.Get("city"); city != "" && !strings.EqualFold(city, toString(sch["city"])) {
			continue
		}
		if board := q.Get("board"); board != "" && board != toString(sch["board"]) {
			continue
		}
		if term := q.Get("q"); term != "" && !strings.Contains(strings.ToLower(toString(sch["name"])), strings.ToLower(term)) {
			continue
		}
		found = append(found, sch)
	}
	s.mutex.Unlock()

	count := len(found)
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 && limit < len(found) {
		found = found[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "count": count, "data": found})
}

func (s *Server) find(key, value string) (map[string]interface{}, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, sch := range s.schools {
		if toString(sch[key]) == value {
			return sch, true
		}
	}
	return nil, false
}

func (s *Server) getSchool(w http.ResponseWriter, r *http.Request) {
	sch, ok := s.find("slug", r.PathValue("slug"))
	if !ok {
		fail(w, http.StatusNotFound, "School not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": sch})
}

func (s *Server) similarSchools(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.find("_id", r.PathValue("id"))
	if !ok {
		fail(w, http.StatusNotFound, "School not found")
		return
	}
	s.mutex.Lock()
	similar := make([]map[string]interface{}, 0)
	for _, sch := range s.schools {
		if toString(sch["_id"]) != toString(ref["_id"]) && toString(sch["city"]) == toString(ref["city"]) {
			similar = append(similar, sch)
		}
	}
	s.mutex.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": similar})
}

func (s *Server) mySchools(w http.ResponseWriter, r *http.Request) {
	usr, ok := s.currentUser(r)
	if !ok {
		fail(w, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	if !usr.IsSchoolAdmin() {
		fail(w, http.StatusForbidden, "User role is not authorized to access this route")
		return
	}
	s.mutex.Lock()
	mine := make([]map[string]interface{}, 0)
	for _, sch := range s.schools {
		if toString(sch["admin"]) == usr.ID {
			mine = append(mine, sch)
		}
	}
	s.mutex.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": mine})
}

func (s *Server) pendingSchools(w http.ResponseWriter, r *http.Request) {
	usr, ok := s.currentUser(r)
	if !ok {
		fail(w, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	if !usr.IsSuperAdmin() {
		fail(w, http.StatusForbidden, "User role is not authorized to access this route")
		return
	}
	s.mutex.Lock()
	pending := append([]map[string]interface{}{}, s.pending...)
	s.mutex.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": pending})
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}
