// Package paypaltest provides an in-memory PayPal invoicing API for tests.
package paypaltest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

const (
	ClientID      = "client-id"
	ClientSecret  = "client-secret"
	AccessToken   = "access-token-1"
	InvoiceNumber = "0042"
	InvoiceID     = "INV2-2PRL-ADU6-FJQW-2KHQ"
)

// Failure forced answer of an endpoint.
type Failure struct {
	StatusCode int
	Body       string
}

// Server stub of the PayPal API. Invoices start in DRAFT and become SENT
// after a send call.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	calls         []string
	created       [][]byte
	sent          [][]byte
	statuses      map[string]string
	tokenBody     string
	createBody    string
	getBody       string
	failures      map[string]Failure
	nextInvoiceID string
}

func NewServer() *Server {
	s := &Server{
		statuses: make(map[string]string),
		failures: make(map[string]Failure),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/oauth2/token", s.token)
	mux.HandleFunc("POST /v2/invoicing/generate-next-invoice-number", s.authorized(s.nextNumber))
	mux.HandleFunc("POST /v2/invoicing/invoices", s.authorized(s.create))
	mux.HandleFunc("POST /v2/invoicing/invoices/{id}/send", s.authorized(s.send))
	mux.HandleFunc("GET /v2/invoicing/invoices/{id}", s.authorized(s.get))
	s.Server = httptest.NewServer(s.record(mux))
	return s
}

// Calls made to the server as "METHOD /path".
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// CallsTo number of calls whose path starts with prefix.
func (s *Server) CallsTo(method, prefix string) int {
	var n int
	for _, c := range s.Calls() {
		if strings.HasPrefix(c, method+" "+prefix) {
			n++
		}
	}
	return n
}

// Created bodies of create invoice requests.
func (s *Server) Created() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.created...)
}

// Sent bodies of send requests.
func (s *Server) Sent() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.sent...)
}

// SetTokenBody replaces the token endpoint answer.
func (s *Server) SetTokenBody(body string) {
	s.mu.Lock()
	s.tokenBody = body
	s.mu.Unlock()
}

// SetCreateBody replaces the create endpoint answer.
func (s *Server) SetCreateBody(body string) {
	s.mu.Lock()
	s.createBody = body
	s.mu.Unlock()
}

// SetGetBody replaces the get invoice endpoint answer.
func (s *Server) SetGetBody(body string) {
	s.mu.Lock()
	s.getBody = body
	s.mu.Unlock()
}

// SetInvoiceID id assigned to the next created invoice.
func (s *Server) SetInvoiceID(id string) {
	s.mu.Lock()
	s.nextInvoiceID = id
	s.mu.Unlock()
}

// SetStatus sets the status of an invoice, e.g. PAID.
func (s *Server) SetStatus(id, status string) {
	s.mu.Lock()
	s.statuses[id] = status
	s.mu.Unlock()
}

// Fail forces the answer of the endpoint: token, next_number, create, send
// or get.
func (s *Server) Fail(endpoint string, f Failure) {
	s.mu.Lock()
	s.failures[endpoint] = f
	s.mu.Unlock()
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, r.Method+" "+r.URL.Path)
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) failed(w http.ResponseWriter, endpoint string) bool {
	s.mu.Lock()
	f, ok := s.failures[endpoint]
	s.mu.Unlock()
	if !ok {
		return false
	}
	writeJSON(w, f.StatusCode, f.Body)
	return true
}

func (s *Server) authorized(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+AccessToken {
			writeJSON(w, http.StatusUnauthorized, `{"error":"invalid_token","error_description":"Token signature verification failed"}`)
			return
		}
		h(w, r)
	}
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, "token") {
		return
	}
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte(ClientID+":"+ClientSecret))
	if r.Header.Get("Authorization") != want {
		writeJSON(w, http.StatusUnauthorized, `{"error":"invalid_client","error_description":"Client Authentication failed"}`)
		return
	}
	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
		writeJSON(w, http.StatusBadRequest, `{"error":"unsupported_grant_type"}`)
		return
	}
	s.mu.Lock()
	body := s.tokenBody
	s.mu.Unlock()
	if body == "" {
		body = fmt.Sprintf(`{"scope":"https://uri.paypal.com/services/invoicing","access_token":%q,"token_type":"Bearer","app_id":"APP-80W284485P519543T","expires_in":32400}`, AccessToken)
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) nextNumber(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, "next_number") {
		return
	}
	writeJSON(w, http.StatusOK, fmt.Sprintf(`{"invoice_number":%q}`, InvoiceNumber))
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	b, _ := ioutil.ReadAll(r.Body)
	s.mu.Lock()
	s.created = append(s.created, b)
	s.mu.Unlock()
	if s.failed(w, "create") {
		return
	}
	s.mu.Lock()
	id := s.nextInvoiceID
	if id == "" {
		id = InvoiceID
	}
	s.statuses[id] = "DRAFT"
	body := s.createBody
	s.mu.Unlock()
	if body == "" {
		body = fmt.Sprintf(`{"rel":"self","href":%q,"method":"GET"}`, s.URL+"/v2/invoicing/invoices/"+id)
	}
	writeJSON(w, http.StatusCreated, body)
}

func (s *Server) send(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b, _ := ioutil.ReadAll(r.Body)
	s.mu.Lock()
	s.sent = append(s.sent, b)
	_, ok := s.statuses[id]
	s.mu.Unlock()
	if s.failed(w, "send") {
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, `{"name":"RESOURCE_NOT_FOUND"}`)
		return
	}
	var req struct {
		SendToInvoicer bool `json:"send_to_invoicer"`
	}
	if err := json.Unmarshal(b, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, `{"name":"INVALID_REQUEST"}`)
		return
	}
	s.mu.Lock()
	s.statuses[id] = "SENT"
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, fmt.Sprintf(`{"rel":"payer-view","href":%q,"method":"GET"}`, PayLink(id)))
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if s.failed(w, "get") {
		return
	}
	s.mu.Lock()
	status, ok := s.statuses[id]
	body := s.getBody
	s.mu.Unlock()
	if body != "" {
		writeJSON(w, http.StatusOK, body)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, `{"name":"RESOURCE_NOT_FOUND"}`)
		return
	}
	writeJSON(w, http.StatusOK, fmt.Sprintf(
		`{"id":%q,"status":%q,"detail":{"invoice_number":"#%s","currency_code":"GBP","metadata":{"recipient_view_url":%q}}}`,
		id, status, InvoiceNumber, PayLink(id),
	))
}

// PayLink recipient view url the server reports for the invoice.
func PayLink(id string) string {
	return "https://www.sandbox.paypal.com/invoice/p/#" + id
}

func writeJSON(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write([]byte(body))
}
