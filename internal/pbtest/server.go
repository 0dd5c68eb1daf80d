// Package pbtest runs an in-memory PocketBase look-alike for tests. It
// implements the subset of the HTTP API pbinit talks to, including the
// validation errors PocketBase returns for duplicate names and missing
// relation targets.
package pbtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/Rana718/pbinit/internal/types"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const AdminToken = "pbtest-admin-token"

type Collection struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Type   string            `json:"type"`
	Schema []types.FieldSpec `json:"schema"`
}

// Fault makes matching requests fail. Drop closes the connection without a
// response, which clients observe as a transport error.
type Fault struct {
	Method        string
	PathContains  string
	QueryContains string
	Status        int
	Message       string
	Drop          bool
	Times         int // 0 means every matching request
	hits          int
}

type Request struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Status int
}

type Server struct {
	*httptest.Server

	AdminEmail    string
	AdminPassword string
	// Superusers mimics PocketBase >= 0.23: the admins endpoint is gone and
	// auth is served by the _superusers collection instead.
	Superusers bool
	// RequireAdmin rejects collection endpoints without the admin token.
	RequireAdmin bool

	mu          sync.Mutex
	collections []*Collection
	records     map[string][]map[string]any
	faults      []*Fault
	requests    []Request
}

func NewServer() *Server {
	s := &Server{records: map[string][]map[string]any{}}

	r := chi.NewRouter()
	r.Use(s.middleware)
	r.Get("/api/health", s.health)
	r.Post("/api/admins/auth-with-password", s.authAdmin(false))
	r.Post("/api/collections/_superusers/auth-with-password", s.authAdmin(true))
	r.Get("/api/collections", s.listCollections)
	r.Post("/api/collections", s.createCollection)
	r.Patch("/api/collections/{collection}", s.updateCollection)
	r.Get("/api/collections/{collection}/records", s.listRecords)
	r.Post("/api/collections/{collection}/records", s.createRecord)
	r.Patch("/api/collections/{collection}/records/{id}", s.updateRecord)

	s.Server = httptest.NewServer(r)
	return s
}

// AddFault registers a failure injected before routing.
func (s *Server) AddFault(f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, &f)
}

func (s *Server) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = nil
}

// AddCollection seeds a collection directly, bypassing validation.
func (s *Server) AddCollection(def types.CollectionDefinition) *Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &Collection{ID: newID(), Name: def.Name, Type: string(def.Kind), Schema: def.Fields}
	s.collections = append(s.collections, c)
	return c
}

// AddRecord seeds a record directly and returns its id.
func (s *Server) AddRecord(collection string, fields map[string]any) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := copyMap(fields)
	if _, ok := rec["id"]; !ok {
		rec["id"] = newID()
	}
	s.records[collection] = append(s.records[collection], rec)
	return rec["id"].(string)
}

func (s *Server) Collection(name string) *Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.findCollection(name); c != nil {
		cp := *c
		cp.Schema = append([]types.FieldSpec(nil), c.Schema...)
		return &cp
	}
	return nil
}

func (s *Server) CollectionNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.collections))
	for _, c := range s.collections {
		names = append(names, c.Name)
	}
	return names
}

func (s *Server) Records(collection string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.records[collection]))
	for _, r := range s.records[collection] {
		out = append(out, copyMap(r))
	}
	return out
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Mutations counts accepted POST and PATCH requests, excluding auth.
// Rejected writes such as duplicate creates change nothing and are skipped.
func (s *Server) Mutations() int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method != http.MethodPost && r.Method != http.MethodPatch {
			continue
		}
		if strings.HasSuffix(r.Path, "auth-with-password") {
			continue
		}
		if r.Status >= 200 && r.Status < 300 {
			n++
		}
	}
	return n
}

func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// statusRecorder captures the status code a handler writes.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	if rec.status == 0 {
		rec.status = code
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	return rec.ResponseWriter.Write(b)
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		idx := len(s.requests)
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
		})
		fault := s.matchFault(r)
		s.mu.Unlock()

		if fault != nil && fault.Drop {
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					conn.Close()
					return
				}
			}
		}

		rec := &statusRecorder{ResponseWriter: w}
		if fault != nil {
			writeError(rec, fault.Status, fault.Message, nil)
		} else {
			next.ServeHTTP(rec, r)
		}
		s.recordStatus(idx, rec.status)
	})
}

// recordStatus stores the response code unless ResetRequests ran meanwhile.
func (s *Server) recordStatus(idx, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < len(s.requests) {
		s.requests[idx].Status = status
	}
}

func (s *Server) matchFault(r *http.Request) *Fault {
	for _, f := range s.faults {
		if f.Method != "" && f.Method != r.Method {
			continue
		}
		if f.PathContains != "" && !strings.Contains(r.URL.Path, f.PathContains) {
			continue
		}
		if f.QueryContains != "" {
			q, _ := url.QueryUnescape(r.URL.RawQuery)
			if !strings.Contains(q, f.QueryContains) {
				continue
			}
		}
		if f.Times > 0 && f.hits >= f.Times {
			continue
		}
		f.hits++
		if f.Status == 0 {
			f.Status = http.StatusInternalServerError
		}
		if f.Message == "" {
			f.Message = "Something went wrong while processing your request."
		}
		return f
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"code": 200, "message": "API is healthy.", "data": map[string]any{}})
}

func (s *Server) authAdmin(superusers bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if superusers != s.Superusers {
			writeError(w, http.StatusNotFound, "The requested resource wasn't found.", nil)
			return
		}
		var body struct {
			Identity string `json:"identity"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if s.AdminEmail == "" || body.Identity != s.AdminEmail || body.Password != s.AdminPassword {
			writeError(w, http.StatusBadRequest, "Failed to authenticate.", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"token": AdminToken, "admin": map[string]any{"email": s.AdminEmail}})
	}
}

func (s *Server) authorized(w http.ResponseWriter, r *http.Request) bool {
	if !s.RequireAdmin {
		return true
	}
	if strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ") == AdminToken {
		return true
	}
	writeError(w, http.StatusUnauthorized, "The request requires admin authorization token to be set.", nil)
	return false
}

func (s *Server) listCollections(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	page, perPage := pagination(r)

	s.mu.Lock()
	items := make([]Collection, 0, len(s.collections))
	for _, c := range s.collections {
		items = append(items, *c)
	}
	s.mu.Unlock()

	total := len(items)
	start := min((page-1)*perPage, total)
	end := min(start+perPage, total)
	totalPages := (total + perPage - 1) / perPage

	writeJSON(w, http.StatusOK, map[string]any{
		"page": page, "perPage": perPage, "totalItems": total, "totalPages": totalPages,
		"items": items[start:end],
	})
}

func (s *Server) createCollection(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	var def types.CollectionDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to load the submitted data due to invalid formatting.", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if def.Name == "" {
		writeError(w, http.StatusBadRequest, "Failed to create collection.", map[string]any{
			"name": fieldErr("validation_required", "Cannot be blank."),
		})
		return
	}
	if s.findCollection(def.Name) != nil {
		writeError(w, http.StatusBadRequest, "Failed to create collection.", map[string]any{
			"name": fieldErr("validation_collection_name_exists", "Collection name must be unique (case insensitive)."),
		})
		return
	}
	if data := s.validateSchema(def.Fields); data != nil {
		writeError(w, http.StatusBadRequest, "Failed to create collection.", data)
		return
	}

	c := &Collection{ID: newID(), Name: def.Name, Type: string(def.Kind), Schema: def.Fields}
	if c.Type == "" {
		c.Type = string(types.KindBase)
	}
	s.collections = append(s.collections, c)
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) updateCollection(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	var def types.CollectionDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to load the submitted data due to invalid formatting.", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.findCollection(chi.URLParam(r, "collection"))
	if c == nil {
		writeError(w, http.StatusNotFound, "The requested resource wasn't found.", nil)
		return
	}
	if data := s.validateSchema(def.Fields); data != nil {
		writeError(w, http.StatusBadRequest, "Failed to update collection.", data)
		return
	}
	if def.Fields != nil {
		c.Schema = def.Fields
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) validateSchema(fields []types.FieldSpec) map[string]any {
	seen := map[string]bool{}
	errs := map[string]any{}
	for i, f := range fields {
		key := strconv.Itoa(i)
		if seen[strings.ToLower(f.Name)] {
			errs[key] = map[string]any{"name": fieldErr("validation_duplicated_field_name", "Duplicated or invalid schema field name.")}
			continue
		}
		seen[strings.ToLower(f.Name)] = true
		if f.Type == types.FieldRelation && s.findCollection(f.Options.CollectionID) == nil {
			errs[key] = map[string]any{"options": map[string]any{
				"collectionId": fieldErr("validation_missing_rel_collection", "The relation collection doesn't exist."),
			}}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return map[string]any{"schema": errs}
}

var filterPattern = regexp.MustCompile(`^\s*(\w+)\s*=\s*"((?:[^"\\]|\\.)*)"\s*$`)

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findCollection(name) == nil {
		writeError(w, http.StatusNotFound, "Missing collection context.", nil)
		return
	}

	var items []map[string]any
	filter := r.URL.Query().Get("filter")
	m := filterPattern.FindStringSubmatch(filter)
	if filter != "" && m == nil {
		writeError(w, http.StatusBadRequest, "Invalid filter parameters.", nil)
		return
	}
	for _, rec := range s.records[name] {
		if m != nil && fmt.Sprint(rec[m[1]]) != unescapeFilter(m[2]) {
			continue
		}
		items = append(items, publicRecord(rec))
	}
	if items == nil {
		items = []map[string]any{}
	}

	page, perPage := pagination(r)
	total := len(items)
	start := min((page-1)*perPage, total)
	end := min(start+perPage, total)

	writeJSON(w, http.StatusOK, map[string]any{
		"page": page, "perPage": perPage, "totalItems": total, "totalPages": (total + perPage - 1) / perPage,
		"items": items[start:end],
	})
}

func (s *Server) createRecord(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to load the submitted data due to invalid formatting.", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.findCollection(name)
	if c == nil {
		writeError(w, http.StatusNotFound, "Missing collection context.", nil)
		return
	}

	if c.Type == string(types.KindAuth) {
		email, _ := body["email"].(string)
		pass, _ := body["password"].(string)
		confirm, _ := body["passwordConfirm"].(string)
		data := map[string]any{}
		if email == "" {
			data["email"] = fieldErr("validation_required", "Cannot be blank.")
		}
		for _, rec := range s.records[c.Name] {
			if strings.EqualFold(fmt.Sprint(rec["email"]), email) {
				data["email"] = fieldErr("validation_not_unique", "The email is invalid or already in use.")
			}
		}
		if pass == "" || pass != confirm {
			data["passwordConfirm"] = fieldErr("validation_values_mismatch", "Values don't match.")
		}
		if len(data) > 0 {
			writeError(w, http.StatusBadRequest, "Failed to create record.", data)
			return
		}
	}

	rec := copyMap(body)
	rec["id"] = newID()
	rec["collectionName"] = c.Name
	s.records[c.Name] = append(s.records[c.Name], rec)
	writeJSON(w, http.StatusOK, publicRecord(rec))
}

func (s *Server) updateRecord(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to load the submitted data due to invalid formatting.", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records[name] {
		if rec["id"] == id {
			for k, v := range body {
				rec[k] = v
			}
			writeJSON(w, http.StatusOK, publicRecord(rec))
			return
		}
	}
	writeError(w, http.StatusNotFound, "The requested resource wasn't found.", nil)
}

// findCollection matches by id or case-insensitive name. Callers hold mu.
func (s *Server) findCollection(idOrName string) *Collection {
	for _, c := range s.collections {
		if c.ID == idOrName || strings.EqualFold(c.Name, idOrName) {
			return c
		}
	}
	return nil
}

func publicRecord(rec map[string]any) map[string]any {
	out := copyMap(rec)
	delete(out, "password")
	delete(out, "passwordConfirm")
	return out
}

func pagination(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("perPage"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 30
	}
	return page, perPage
}

func unescapeFilter(s string) string {
	return strings.NewReplacer(`\"`, `"`, `\\`, `\`).Replace(s)
}

func fieldErr(code, msg string) map[string]any {
	return map[string]any{"code": code, "message": msg}
}

func copyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:15]
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	writeJSON(w, status, map[string]any{"code": status, "message": msg, "data": data})
}
