package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tetherhq/tether/internal/store"
)

// testServer builds a server over an in-memory store with two login
// accounts, alice and bob, both with password "pw".
func testServer(t *testing.T) (*Server, *store.DB) {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	for _, name := range []string{"alice", "bob"} {
		if _, err := db.CreateUser(name, "pw"); err != nil {
			t.Fatalf("CreateUser(%s): %v", name, err)
		}
	}

	return New(db, zap.NewNop(), "test", time.Hour), db
}

func login(t *testing.T, srv *Server, username string) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":"pw"}`, username)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status = %d, body: %s", username, w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Token == "" {
		t.Fatal("login returned no token")
	}
	return resp.Token
}

func do(t *testing.T, srv *Server, method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v; body: %s", err, w.Body.String())
	}
}

func TestHealthNoAuth(t *testing.T) {
	srv, _ := testServer(t)

	w := do(t, srv, "GET", "/api/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp map[string]any
	decode(t, w, &resp)
	if resp["status"] != "ok" {
		t.Errorf("status = %v", resp["status"])
	}
}

func TestUnauthenticatedRejected(t *testing.T) {
	srv, _ := testServer(t)

	for _, path := range []string{
		"/api/people", "/api/conversations", "/api/contact-attempts",
		"/api/relationships", "/api/dashboard", "/api/birthdays",
	} {
		w := do(t, srv, "GET", path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s: status = %d, want 401", path, w.Code)
		}
	}

	// A garbage token is just as unauthenticated.
	w := do(t, srv, "GET", "/api/people", "not-a-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", w.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	srv, _ := testServer(t)

	body := `{"username":"alice","password":"nope"}`
	w := do(t, srv, "POST", "/api/auth/login", "", strings.NewReader(body))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestLoginSetsCookie(t *testing.T) {
	srv, _ := testServer(t)

	body := `{"username":"alice","password":"pw"}`
	w := do(t, srv, "POST", "/api/auth/login", "", strings.NewReader(body))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected session cookie")
	}

	// The cookie authenticates on its own.
	req := httptest.NewRequest("GET", "/api/auth/user", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("cookie auth: status = %d, want 200", w.Code)
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	srv, _ := testServer(t)
	token := login(t, srv, "alice")

	w := do(t, srv, "POST", "/api/auth/logout", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: status = %d", w.Code)
	}

	w = do(t, srv, "GET", "/api/people", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("after logout: status = %d, want 401", w.Code)
	}
}

func TestCurrentUser(t *testing.T) {
	srv, _ := testServer(t)
	token := login(t, srv, "alice")

	w := do(t, srv, "GET", "/api/auth/user", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var u store.User
	decode(t, w, &u)
	if u.Username != "alice" {
		t.Errorf("username = %q, want alice", u.Username)
	}
}

func TestPersonCRUD(t *testing.T) {
	srv, _ := testServer(t)
	token := login(t, srv, "alice")

	body := `{"name":"Ada Lovelace","birthday_month":3,"birthday_day":22,"location":"London"}`
	w := do(t, srv, "POST", "/api/people", token, strings.NewReader(body))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body: %s", w.Code, w.Body.String())
	}
	var created store.Person
	decode(t, w, &created)
	if created.ID == "" {
		t.Fatal("created person has no id")
	}

	w = do(t, srv, "GET", "/api/people/"+created.ID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: status = %d", w.Code)
	}
	var view personView
	decode(t, w, &view)
	if view.BirthdayDisplay != "March 22" {
		t.Errorf("birthday_display = %q, want March 22", view.BirthdayDisplay)
	}
	if view.Age != nil {
		t.Errorf("age = %v, want absent with unknown year", view.Age)
	}

	update := `{"name":"Ada Lovelace","birthday_month":3,"birthday_day":22,"company":"Analytical Engines"}`
	w = do(t, srv, "PUT", "/api/people/"+created.ID, token, strings.NewReader(update))
	if w.Code != http.StatusOK {
		t.Fatalf("update: status = %d, body: %s", w.Code, w.Body.String())
	}

	w = do(t, srv, "GET", "/api/people", token, nil)
	var people []personView
	decode(t, w, &people)
	if len(people) != 1 || people[0].Company != "Analytical Engines" {
		t.Errorf("list = %+v", people)
	}

	w = do(t, srv, "DELETE", "/api/people/"+created.ID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", w.Code)
	}
	w = do(t, srv, "GET", "/api/people/"+created.ID, token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want 404", w.Code)
	}
}

func TestPersonValidationError(t *testing.T) {
	srv, _ := testServer(t)
	token := login(t, srv, "alice")

	w := do(t, srv, "POST", "/api/people", token, strings.NewReader(`{"name":""}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp map[string]string
	decode(t, w, &resp)
	if resp["field"] != "name" {
		t.Errorf("field = %q, want name", resp["field"])
	}
}

func createPerson(t *testing.T, srv *Server, token, name string) string {
	t.Helper()
	w := do(t, srv, "POST", "/api/people", token, strings.NewReader(fmt.Sprintf(`{"name":%q}`, name)))
	if w.Code != http.StatusCreated {
		t.Fatalf("create person: status = %d, body: %s", w.Code, w.Body.String())
	}
	var p store.Person
	decode(t, w, &p)
	return p.ID
}

func TestPrivateConversationHiddenFromOthers(t *testing.T) {
	srv, _ := testServer(t)
	alice := login(t, srv, "alice")
	bob := login(t, srv, "bob")

	pid := createPerson(t, srv, alice, "Ada")

	body := fmt.Sprintf(`{"participants":[%q],"date":"2024-03-01","type":"phone","private":true}`, pid)
	w := do(t, srv, "POST", "/api/conversations", alice, strings.NewReader(body))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body: %s", w.Code, w.Body.String())
	}
	var created store.Conversation
	decode(t, w, &created)

	// The creator sees it.
	w = do(t, srv, "GET", "/api/conversations/"+created.ID, alice, nil)
	if w.Code != http.StatusOK {
		t.Errorf("creator get: status = %d, want 200", w.Code)
	}
	w = do(t, srv, "GET", "/api/conversations", alice, nil)
	var list []convView
	decode(t, w, &list)
	if len(list) != 1 {
		t.Errorf("creator list = %d records, want 1", len(list))
	}

	// Anyone else gets not-found, and an empty list.
	w = do(t, srv, "GET", "/api/conversations/"+created.ID, bob, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("other get: status = %d, want 404", w.Code)
	}
	w = do(t, srv, "GET", "/api/conversations", bob, nil)
	list = nil
	decode(t, w, &list)
	if len(list) != 0 {
		t.Errorf("other list = %d records, want 0", len(list))
	}

	// Update and delete leak nothing either.
	w = do(t, srv, "PUT", "/api/conversations/"+created.ID, bob, strings.NewReader(body))
	if w.Code != http.StatusNotFound {
		t.Errorf("other update: status = %d, want 404", w.Code)
	}
	w = do(t, srv, "DELETE", "/api/conversations/"+created.ID, bob, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("other delete: status = %d, want 404", w.Code)
	}
}

func TestPrivateAttemptHiddenFromOthers(t *testing.T) {
	srv, _ := testServer(t)
	alice := login(t, srv, "alice")
	bob := login(t, srv, "bob")

	pid := createPerson(t, srv, alice, "Ada")

	body := fmt.Sprintf(`{"person":%q,"date":"2024-03-01","type":"text","private":true}`, pid)
	w := do(t, srv, "POST", "/api/contact-attempts", alice, strings.NewReader(body))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body: %s", w.Code, w.Body.String())
	}
	var created store.ContactAttempt
	decode(t, w, &created)

	w = do(t, srv, "GET", "/api/contact-attempts/"+created.ID, bob, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("other get: status = %d, want 404", w.Code)
	}
	w = do(t, srv, "GET", "/api/contact-attempts/"+created.ID, alice, nil)
	if w.Code != http.StatusOK {
		t.Errorf("creator get: status = %d, want 200", w.Code)
	}
}

func TestRelationshipReversePairRejected(t *testing.T) {
	srv, _ := testServer(t)
	token := login(t, srv, "alice")

	p1 := createPerson(t, srv, token, "Ada")
	p2 := createPerson(t, srv, token, "Bob")

	body := fmt.Sprintf(`{"person1":%q,"person2":%q,"relationship_type":"friend"}`, p1, p2)
	w := do(t, srv, "POST", "/api/relationships", token, strings.NewReader(body))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body: %s", w.Code, w.Body.String())
	}

	reverse := fmt.Sprintf(`{"person1":%q,"person2":%q,"relationship_type":"colleague"}`, p2, p1)
	w = do(t, srv, "POST", "/api/relationships", token, strings.NewReader(reverse))
	if w.Code != http.StatusBadRequest {
		t.Errorf("reverse pair: status = %d, want 400; body: %s", w.Code, w.Body.String())
	}
}

func TestRelationshipNames(t *testing.T) {
	srv, _ := testServer(t)
	token := login(t, srv, "alice")

	p1 := createPerson(t, srv, token, "Ada")
	p2 := createPerson(t, srv, token, "Bob")

	body := fmt.Sprintf(`{"person1":%q,"person2":%q,"relationship_type":"colleague"}`, p1, p2)
	w := do(t, srv, "POST", "/api/relationships", token, strings.NewReader(body))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", w.Code)
	}

	w = do(t, srv, "GET", "/api/relationships", token, nil)
	var list []relView
	decode(t, w, &list)
	if len(list) != 1 {
		t.Fatalf("list = %d records, want 1", len(list))
	}
	names := map[string]bool{list[0].Person1Name: true, list[0].Person2Name: true}
	if !names["Ada"] || !names["Bob"] {
		t.Errorf("names = %+v", list[0])
	}
}

func TestDashboardEndpoint(t *testing.T) {
	srv, _ := testServer(t)
	token := login(t, srv, "alice")

	pid := createPerson(t, srv, token, "Ada")
	today := time.Now().Format(store.DateLayout)
	body := fmt.Sprintf(`{"participants":[%q],"date":%q,"type":"video"}`, pid, today)
	w := do(t, srv, "POST", "/api/conversations", token, strings.NewReader(body))
	if w.Code != http.StatusCreated {
		t.Fatalf("create conversation: status = %d", w.Code)
	}

	w = do(t, srv, "GET", "/api/dashboard", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		RecentConversations []json.RawMessage `json:"recent_conversations"`
		MonthlyActivity     []json.RawMessage `json:"monthly_activity"`
		ActivityOverview    struct {
			Conversations7d int `json:"conversations_7d"`
		} `json:"activity_overview"`
	}
	decode(t, w, &resp)
	if len(resp.RecentConversations) != 1 {
		t.Errorf("recent_conversations = %d, want 1", len(resp.RecentConversations))
	}
	if len(resp.MonthlyActivity) != 12 {
		t.Errorf("monthly_activity = %d entries, want 12", len(resp.MonthlyActivity))
	}
	if resp.ActivityOverview.Conversations7d != 1 {
		t.Errorf("conversations_7d = %d, want 1", resp.ActivityOverview.Conversations7d)
	}
}

func TestBirthdaysEndpoint(t *testing.T) {
	srv, _ := testServer(t)
	token := login(t, srv, "alice")

	tomorrow := time.Now().AddDate(0, 0, 1)
	body := fmt.Sprintf(`{"name":"Ada","birthday_month":%d,"birthday_day":%d}`,
		int(tomorrow.Month()), tomorrow.Day())
	w := do(t, srv, "POST", "/api/people", token, strings.NewReader(body))
	if w.Code != http.StatusCreated {
		t.Fatalf("create person: status = %d, body: %s", w.Code, w.Body.String())
	}

	w = do(t, srv, "GET", "/api/birthdays", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Days      int               `json:"days"`
		Birthdays []json.RawMessage `json:"birthdays"`
	}
	decode(t, w, &resp)
	if resp.Days != 365 {
		t.Errorf("days = %d, want default 365", resp.Days)
	}
	if len(resp.Birthdays) != 1 {
		t.Errorf("birthdays = %d, want 1", len(resp.Birthdays))
	}

	w = do(t, srv, "GET", "/api/birthdays?days=0", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("days=0: status = %d", w.Code)
	}

	w = do(t, srv, "GET", "/api/birthdays?days=soon", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad days: status = %d, want 400", w.Code)
	}
}

func TestSuggestions(t *testing.T) {
	srv, _ := testServer(t)
	token := login(t, srv, "alice")

	w := do(t, srv, "POST", "/api/people", token,
		strings.NewReader(`{"name":"Ada","location":"London","company":"Acme"}`))
	if w.Code != http.StatusCreated {
		t.Fatalf("create person: status = %d", w.Code)
	}

	w = do(t, srv, "GET", "/api/suggestions/locations", token, nil)
	var resp map[string][]string
	decode(t, w, &resp)
	if len(resp["suggestions"]) != 1 || resp["suggestions"][0] != "London" {
		t.Errorf("locations = %v", resp["suggestions"])
	}

	w = do(t, srv, "GET", "/api/suggestions/companies", token, nil)
	resp = nil
	decode(t, w, &resp)
	if len(resp["suggestions"]) != 1 || resp["suggestions"][0] != "Acme" {
		t.Errorf("companies = %v", resp["suggestions"])
	}
}

func TestUnknownIDIs404(t *testing.T) {
	srv, _ := testServer(t)
	token := login(t, srv, "alice")

	for _, path := range []string{
		"/api/people/ghost", "/api/conversations/ghost",
		"/api/contact-attempts/ghost", "/api/relationships/ghost",
	} {
		w := do(t, srv, "GET", path, token, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("GET %s: status = %d, want 404", path, w.Code)
		}
	}
}
