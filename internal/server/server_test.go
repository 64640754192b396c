package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"larder/internal/database"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(db, Config{SessionTTL: 24 * time.Hour}, nil, logger)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		db.Close()
	})
	return ts
}

// do issues a JSON request against the test server and decodes the response
// body into a generic map.
func do(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var decoded map[string]any
	if len(raw) > 0 {
		// List endpoints return arrays; wrap those for uniform access.
		if raw[0] == '[' {
			var arr []any
			if err := json.Unmarshal(raw, &arr); err != nil {
				t.Fatalf("decode %s %s: %v (%s)", method, path, err, raw)
			}
			decoded = map[string]any{"list": arr}
		} else if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, raw)
		}
	}
	return resp.StatusCode, decoded
}

func register(t *testing.T, ts *httptest.Server, email, name string) string {
	t.Helper()
	status, body := do(t, ts, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    email,
		"name":     name,
		"password": "hunter2hunter2",
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s: status = %d, body %v", email, status, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("register %s: no token in %v", email, body)
	}
	return token
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)

	token := register(t, ts, "alice@example.com", "Alice")

	// Duplicate email is a conflict.
	status, _ := do(t, ts, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "alice@example.com", "name": "Alice Again", "password": "hunter2hunter2",
	})
	if status != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", status)
	}

	// Wrong password yields a uniform 401.
	status, body := do(t, ts, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	})
	if status != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", status)
	}
	if body["error"] != "Invalid credentials" {
		t.Errorf("bad login error = %v", body["error"])
	}

	status, body = do(t, ts, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "hunter2hunter2",
	})
	if status != http.StatusOK {
		t.Fatalf("login status = %d, body %v", status, body)
	}

	status, body = do(t, ts, http.MethodGet, "/auth/user", token, nil)
	if status != http.StatusOK {
		t.Fatalf("me status = %d", status)
	}
	user, _ := body["user"].(map[string]any)
	if user["email"] != "alice@example.com" {
		t.Errorf("me = %v", body)
	}

	if status, _ := do(t, ts, http.MethodPost, "/auth/logout", token, nil); status != http.StatusOK {
		t.Errorf("logout status = %d", status)
	}
	if status, _ := do(t, ts, http.MethodGet, "/auth/user", token, nil); status != http.StatusUnauthorized {
		t.Errorf("me after logout status = %d, want 401", status)
	}
}

func TestShareAcceptFlow(t *testing.T) {
	ts := newTestServer(t)

	aliceToken := register(t, ts, "alice@example.com", "Alice")
	bobToken := register(t, ts, "bob@example.com", "Bob")

	status, body := do(t, ts, http.MethodPost, "/grocery-lists", aliceToken, map[string]string{"name": "Groceries"})
	if status != http.StatusCreated {
		t.Fatalf("create list: status = %d, body %v", status, body)
	}
	listID := int64(body["id"].(float64))

	itemsPath := fmt.Sprintf("/grocery-lists/%d/items", listID)
	if status, body = do(t, ts, http.MethodPost, itemsPath, aliceToken, map[string]string{"name": "Milk"}); status != http.StatusCreated {
		t.Fatalf("add item: status = %d, body %v", status, body)
	}

	status, body = do(t, ts, http.MethodPost, fmt.Sprintf("/grocery-lists/%d/share", listID), aliceToken,
		map[string]string{"email": "bob@example.com"})
	if status != http.StatusCreated {
		t.Fatalf("share: status = %d, body %v", status, body)
	}
	shareID := int64(body["id"].(float64))

	status, body = do(t, ts, http.MethodGet, "/grocery-lists/shared/pending", bobToken, nil)
	if status != http.StatusOK {
		t.Fatalf("pending: status = %d", status)
	}
	if pending, _ := body["list"].([]any); len(pending) != 1 {
		t.Fatalf("pending count = %d, want 1 (%v)", len(pending), body)
	}

	status, body = do(t, ts, http.MethodPut, fmt.Sprintf("/grocery-lists/shared/%d", shareID), bobToken,
		map[string]string{"status": "accepted"})
	if status != http.StatusOK {
		t.Fatalf("accept: status = %d, body %v", status, body)
	}

	// The accepted list's items landed in Bob's master catalog.
	status, body = do(t, ts, http.MethodGet, "/master-list/items", bobToken, nil)
	if status != http.StatusOK {
		t.Fatalf("bob's master items: status = %d", status)
	}
	items, _ := body["list"].([]any)
	found := false
	for _, it := range items {
		if m, ok := it.(map[string]any); ok && m["name"] == "Milk" {
			found = true
		}
	}
	if !found {
		t.Errorf("bob's catalog missing Milk: %v", items)
	}

	// Bob can now read and add to the shared list.
	if status, _ = do(t, ts, http.MethodGet, itemsPath, bobToken, nil); status != http.StatusOK {
		t.Errorf("bob reads shared list: status = %d", status)
	}
	if status, _ = do(t, ts, http.MethodPost, itemsPath, bobToken, map[string]string{"name": "Eggs"}); status != http.StatusCreated {
		t.Errorf("bob adds to shared list: status = %d", status)
	}
}
