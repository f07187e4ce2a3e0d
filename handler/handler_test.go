package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	crm "github.com/pgalanos/crm-api"
	"github.com/pgalanos/crm-api/auth"
	"github.com/pgalanos/crm-api/handler"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// state is a shared in-memory backing store for the fake services. It keeps
// the same ownership semantics as the postgres implementations: single-record
// operations are scoped to the owner, and deleting a customer detaches its
// leads.
type state struct {
	mu        sync.Mutex
	nextID    int64
	customers map[int64]crm.Customer
	leads     map[int64]crm.Lead
	users     map[string]crm.User
}

func newState() *state {
	return &state{
		customers: make(map[int64]crm.Customer),
		leads:     make(map[int64]crm.Lead),
		users:     make(map[string]crm.User),
	}
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

type fakeCustomers struct{ s *state }

func (f fakeCustomers) List(_ context.Context, userID int64) ([]crm.Customer, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	customers := []crm.Customer{}
	for _, c := range f.s.customers {
		if c.UserID != userID {
			continue
		}
		c.Leads = []crm.CustomerLead{}
		for _, l := range f.s.leads {
			if l.UserID == userID && l.CustomerID != nil && *l.CustomerID == c.ID {
				c.Leads = append(c.Leads, crm.CustomerLead{
					ID:           l.ID,
					Name:         l.Name,
					Status:       l.Status,
					CreatedAt:    l.CreatedAt,
					FollowUpDate: l.FollowUpDate,
					Notes:        l.Notes,
				})
			}
		}
		customers = append(customers, c)
	}
	return customers, nil
}

func (f fakeCustomers) Create(_ context.Context, userID int64, in crm.CustomerInput) (crm.Customer, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	c := crm.Customer{
		ID:        f.s.id(),
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Company:   in.Company,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		Leads:     []crm.CustomerLead{},
	}
	f.s.customers[c.ID] = c
	return c, nil
}

func (f fakeCustomers) Update(_ context.Context, userID, id int64, in crm.CustomerInput) (crm.Customer, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	c, ok := f.s.customers[id]
	if !ok || c.UserID != userID {
		return crm.Customer{}, crm.ErrCustomerNotFound
	}
	c.Name = in.Name
	c.Email = in.Email
	c.Phone = in.Phone
	c.Company = in.Company
	f.s.customers[id] = c
	return c, nil
}

func (f fakeCustomers) Delete(_ context.Context, userID, id int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	c, ok := f.s.customers[id]
	if !ok || c.UserID != userID {
		return crm.ErrCustomerNotFound
	}
	for lid, l := range f.s.leads {
		if l.CustomerID != nil && *l.CustomerID == id {
			l.CustomerID = nil
			l.Customer = nil
			f.s.leads[lid] = l
		}
	}
	delete(f.s.customers, id)
	return nil
}

type fakeLeads struct{ s *state }

func (f fakeLeads) List(_ context.Context, userID int64) ([]crm.Lead, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	leads := []crm.Lead{}
	for _, l := range f.s.leads {
		if l.UserID != userID {
			continue
		}
		l.Customer = nil
		if l.CustomerID != nil {
			if c, ok := f.s.customers[*l.CustomerID]; ok {
				l.Customer = &crm.LeadCustomer{ID: c.ID, Name: c.Name}
			}
		}
		leads = append(leads, l)
	}
	return leads, nil
}

func (f fakeLeads) Count(_ context.Context, userID int64) (int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	count := 0
	for _, l := range f.s.leads {
		if l.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f fakeLeads) customerOwnedBy(customerID, userID int64) error {
	c, ok := f.s.customers[customerID]
	if !ok || c.UserID != userID {
		return crm.ErrCustomerNotFound
	}
	return nil
}

func (f fakeLeads) Create(_ context.Context, userID int64, nl crm.NewLead) (crm.Lead, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if nl.CustomerID != nil {
		if err := f.customerOwnedBy(*nl.CustomerID, userID); err != nil {
			return crm.Lead{}, err
		}
	}

	now := time.Now().UTC()
	l := crm.Lead{
		ID:           f.s.id(),
		Name:         nl.Name,
		Email:        nl.Email,
		Phone:        nl.Phone,
		Status:       nl.Status,
		UserID:       userID,
		CustomerID:   nl.CustomerID,
		FollowUpDate: nl.FollowUpDate,
		Notes:        nl.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.s.leads[l.ID] = l
	return l, nil
}

func (f fakeLeads) Update(_ context.Context, userID, id int64, ul crm.UpdateLead) (crm.Lead, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if ul.CustomerID != nil {
		if err := f.customerOwnedBy(*ul.CustomerID, userID); err != nil {
			return crm.Lead{}, err
		}
	}

	l, ok := f.s.leads[id]
	if !ok || l.UserID != userID {
		return crm.Lead{}, crm.ErrLeadNotFound
	}

	l.Name = ul.Name
	l.Email = ul.Email
	l.Phone = ul.Phone
	if ul.Status != nil {
		l.Status = *ul.Status
	}
	l.CustomerID = ul.CustomerID
	l.Customer = nil
	l.FollowUpDate = ul.FollowUpDate
	l.Notes = ul.Notes
	l.UpdatedAt = time.Now().UTC()
	f.s.leads[id] = l
	return l, nil
}

func (f fakeLeads) Delete(_ context.Context, userID, id int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	l, ok := f.s.leads[id]
	if !ok || l.UserID != userID {
		return crm.ErrLeadNotFound
	}
	delete(f.s.leads, id)
	return nil
}

type fakeUsers struct{ s *state }

func (f fakeUsers) Create(_ context.Context, nu crm.NewUser) (crm.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if _, ok := f.s.users[nu.Email]; ok {
		return crm.User{}, crm.ErrEmailTaken
	}
	u := crm.User{
		ID:           f.s.id(),
		Name:         nu.Name,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	f.s.users[u.Email] = u
	return u, nil
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (crm.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	u, ok := f.s.users[email]
	if !ok {
		return crm.User{}, crm.ErrUserNotFound
	}
	return u, nil
}

// testAPI runs the full router against the in-memory fakes.
type testAPI struct {
	server *httptest.Server
	tokens *auth.Authenticator
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	st := newState()
	tokens := auth.New("test-secret", time.Hour)
	log := zap.NewNop().Sugar()

	router := handler.NewRouter(
		tokens,
		log,
		handler.NewAuthHandler(fakeUsers{st}, tokens, log),
		handler.NewCustomerHandler(fakeCustomers{st}, log),
		handler.NewLeadHandler(fakeLeads{st}, log),
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testAPI{server: server, tokens: tokens}
}

// token returns a valid bearer token for the given user id.
func (a *testAPI) token(t *testing.T, userID int64) string {
	t.Helper()
	token, err := a.tokens.Issue(userID)
	require.NoError(t, err)
	return token
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]json.RawMessage) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := a.server.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	fields := map[string]json.RawMessage{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &fields), "body: %s", raw)
	}

	return res.StatusCode, fields
}

func unmarshalField(t *testing.T, fields map[string]json.RawMessage, key string, into interface{}) {
	t.Helper()
	raw, ok := fields[key]
	require.True(t, ok, "missing field %q", key)
	require.NoError(t, json.Unmarshal(raw, into))
}

func customerPath(id int64) string {
	return "/api/customers/" + strconv.FormatInt(id, 10)
}

func leadPath(id int64) string {
	return "/api/leads/" + strconv.FormatInt(id, 10)
}

func errorMessage(t *testing.T, fields map[string]json.RawMessage) string {
	t.Helper()
	var msg string
	unmarshalField(t, fields, "error", &msg)
	return msg
}
