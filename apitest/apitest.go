// Package apitest runs an in-memory rendition of the audit platform API for
// integration tests. It speaks the same contract as the real backend — JWT
// bearer tokens, bcrypt-checked passwords, the /v1 job collections — while
// giving tests direct control over job progression.
//
// The client under test still treats tokens as opaque; only this package
// mints and parses them.
package apitest

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
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kestrelsec/auditkit/jobs"
)

// User seeds one account. Password is plaintext here; the server stores a
// bcrypt hash and verifies submitted passwords against it.
type User struct {
	ID             string
	Email          string
	Password       string
	DisplayName    string
	Role           string
	Permissions    []string
	OrganizationID string

	// SecondFactor, when non-empty, is the code the user must submit.
	SecondFactor string
	// RecoveryCodes are single-use alternatives to the second factor.
	RecoveryCodes []string
}

type account struct {
	user          User
	passwordHash  []byte
	recoveryCodes map[string]struct{}
}

type jobRecord struct {
	job      jobs.Job
	artifact []byte
}

// Server is the in-memory backend. Zero-value is not usable; construct with
// NewServer and Close when done.
type Server struct {
	URL string

	srv      *httptest.Server
	secret   []byte
	tokenTTL time.Duration

	mu       sync.Mutex
	accounts map[string]*account
	revoked  map[string]struct{}
	jobStore map[string]*jobRecord
}

// NewServer starts the stub backend. Token validity defaults to 24h.
func NewServer() *Server {
	s := &Server{
		secret:   []byte(uuid.NewString()),
		tokenTTL: 24 * time.Hour,
		accounts: make(map[string]*account),
		revoked:  make(map[string]struct{}),
		jobStore: make(map[string]*jobRecord),
	}

	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)
		r.Get("/auth/me", s.handleMe)

		r.Route("/imports", func(r chi.Router) {
			r.Post("/", s.handleSubmitImport)
			r.Get("/", s.listJobs(jobs.KindImport))
			r.Get("/{id}", s.handleGetJob)
			r.Delete("/{id}", s.handleDeleteJob)
		})
		r.Route("/exports", func(r chi.Router) {
			r.Post("/", s.handleSubmitExport)
			r.Get("/", s.listJobs(jobs.KindExport))
			r.Get("/{id}", s.handleGetJob)
			r.Delete("/{id}", s.handleDeleteJob)
			r.Get("/{id}/download", s.handleDownload)
		})
	})

	s.srv = httptest.NewServer(r)
	s.URL = s.srv.URL
	return s
}

// Close shuts the server down.
func (s *Server) Close() { s.srv.Close() }

// SetTokenTTL overrides the validity window of newly minted tokens.
func (s *Server) SetTokenTTL(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenTTL = d
}

// AddUser registers an account, hashing its password.
func (s *Server) AddUser(u User) {
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("apitest: hash password: %v", err))
	}
	codes := make(map[string]struct{}, len(u.RecoveryCodes))
	for _, c := range u.RecoveryCodes {
		codes[c] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[strings.ToLower(u.Email)] = &account{
		user:          u,
		passwordHash:  hash,
		recoveryCodes: codes,
	}
}

// RevokeAllTokens invalidates every outstanding token, so the next
// authenticated request gets a 401.
func (s *Server) RevokeAllTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = []byte(uuid.NewString())
}

// SetJobState drives a job's progression. No-op for unknown ids.
func (s *Server) SetJobState(id string, status jobs.Status, processed, total, successCount, errorCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.jobStore[id]; ok {
		rec.job.Status = status
		rec.job.Processed = processed
		rec.job.Total = total
		rec.job.SuccessCount = successCount
		rec.job.ErrorCount = errorCount
	}
}

// CompleteExport finishes an export job with a downloadable artifact.
func (s *Server) CompleteExport(id, filename, format string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.jobStore[id]; ok {
		rec.job.Status = jobs.StatusCompleted
		rec.job.Artifact = &jobs.Artifact{
			Filename: filename,
			Size:     int64(len(data)),
			Format:   format,
		}
		rec.artifact = data
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type principalPayload struct {
	ID             string   `json:"id"`
	DisplayName    string   `json:"display_name"`
	Email          string   `json:"email"`
	Role           string   `json:"role"`
	Permissions    []string `json:"permissions"`
	OrganizationID string   `json:"organization_id"`
}

func principalOf(u User) principalPayload {
	return principalPayload{
		ID:             u.ID,
		DisplayName:    u.DisplayName,
		Email:          u.Email,
		Role:           u.Role,
		Permissions:    u.Permissions,
		OrganizationID: u.OrganizationID,
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var challenge struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		SecondFactor string `json:"second_factor"`
		RecoveryCode string `json:"recovery_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&challenge); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[strings.ToLower(challenge.Email)]
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(challenge.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if acct.user.SecondFactor != "" {
		switch {
		case challenge.RecoveryCode != "":
			if _, ok := acct.recoveryCodes[challenge.RecoveryCode]; !ok {
				writeError(w, http.StatusUnauthorized, "invalid recovery code")
				return
			}
			delete(acct.recoveryCodes, challenge.RecoveryCode)
		case challenge.SecondFactor == "":
			writeError(w, http.StatusUnauthorized, "second factor required")
			return
		case challenge.SecondFactor != acct.user.SecondFactor:
			writeError(w, http.StatusUnauthorized, "invalid second-factor code")
			return
		}
	}

	now := time.Now().UTC()
	expires := now.Add(s.tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": acct.user.ID,
		"iat": now.Unix(),
		"exp": expires.Unix(),
		"jti": uuid.NewString(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token signing failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      signed,
		"issued_at":  now,
		"expires_at": expires,
		"principal":  principalOf(acct.user),
	})
}

// authenticate resolves the bearer token to a user. Caller must hold no lock.
func (s *Server) authenticate(r *http.Request) (*User, bool) {
	auth := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return nil, false
	}

	s.mu.Lock()
	secret := s.secret
	s.mu.Unlock()

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}
	jti, _ := claims["jti"].(string)
	sub, _ := claims["sub"].(string)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, revoked := s.revoked[jti]; revoked {
		return nil, false
	}
	for _, acct := range s.accounts {
		if acct.user.ID == sub {
			u := acct.user
			return &u, true
		}
	}
	return nil, false
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := s.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	writeJSON(w, http.StatusOK, principalOf(*u))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	if raw, ok := strings.CutPrefix(auth, "Bearer "); ok {
		s.mu.Lock()
		secret := s.secret
		s.mu.Unlock()
		if token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return secret, nil }); err == nil {
			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				if jti, _ := claims["jti"].(string); jti != "" {
					s.mu.Lock()
					s.revoked[jti] = struct{}{}
					s.mu.Unlock()
				}
			}
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

var supportedFormats = map[string]bool{"csv": true, "json": true}

func (s *Server) handleSubmitImport(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(r); !ok {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "malformed multipart request")
		return
	}
	format := r.FormValue("format")
	if !supportedFormats[format] {
		writeError(w, http.StatusUnprocessableEntity, "unsupported file format: "+format)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	file.Close()

	job := jobs.Job{
		ID:        uuid.NewString(),
		Kind:      jobs.KindImport,
		Domain:    r.FormValue("domain"),
		Format:    format,
		Status:    jobs.StatusQueued,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobStore[job.ID] = &jobRecord{job: job}
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) handleSubmitExport(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(r); !ok {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	var req struct {
		Name   string `json:"name"`
		Domain string `json:"domain"`
		Format string `json:"format"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if !supportedFormats[req.Format] {
		writeError(w, http.StatusUnprocessableEntity, "unsupported file format: "+req.Format)
		return
	}

	job := jobs.Job{
		ID:        uuid.NewString(),
		Kind:      jobs.KindExport,
		Domain:    req.Domain,
		Format:    req.Format,
		Status:    jobs.StatusQueued,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobStore[job.ID] = &jobRecord{job: job}
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) listJobs(kind jobs.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.authenticate(r); !ok {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		s.mu.Lock()
		out := make([]jobs.Job, 0, len(s.jobStore))
		for _, rec := range s.jobStore {
			if rec.job.Kind == kind {
				out = append(out, rec.job)
			}
		}
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(r); !ok {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	s.mu.Lock()
	rec, ok := s.jobStore[chi.URLParam(r, "id")]
	var job jobs.Job
	if ok {
		job = rec.job
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(r); !ok {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobStore[id]
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if rec.job.Status == jobs.StatusProcessing {
		writeError(w, http.StatusConflict, "job is processing")
		return
	}
	delete(s.jobStore, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(r); !ok {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	rec, ok := s.jobStore[id]
	var data []byte
	var filename string
	if ok && rec.job.Status == jobs.StatusCompleted && rec.job.Artifact != nil {
		data = rec.artifact
		filename = rec.job.Artifact.Filename
	}
	s.mu.Unlock()

	if filename == "" {
		writeError(w, http.StatusNotFound, "no artifact available")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}
