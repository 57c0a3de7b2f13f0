package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erazemk/inventar/internal/auth"
	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/inventory"
	"github.com/erazemk/inventar/internal/model"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	database := db.NewTestDB(t)
	svc := inventory.NewService(database, nil, nil)
	server := httptest.NewServer(NewRouter(svc, testJWTSecret, nil))
	t.Cleanup(server.Close)
	return server
}

func tokenFor(t *testing.T, subject, role string) string {
	t.Helper()
	token, err := auth.GenerateToken(testJWTSecret, subject, role, 0)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}
	return token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do sends the request and decodes the JSON response into out when out is
// non-nil. It returns the status code.
func do(t *testing.T, method, url, token string, body, out any) int {
	t.Helper()
	req, err := authRequest(method, url, token, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s response: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func createItem(t *testing.T, server *httptest.Server, token string) model.Item {
	t.Helper()
	var item model.Item
	status := do(t, "POST", server.URL+"/api/items", token, map[string]any{
		"category":   "tools",
		"name":       "Cordless drill",
		"attributes": map[string]any{"brand": "Bosch"},
	}, &item)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	return item
}

func TestHealth(t *testing.T) {
	server := setupTestServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestItemsAPIFlow(t *testing.T) {
	server := setupTestServer(t)
	token := tokenFor(t, "ana", model.RoleMember)

	item := createItem(t, server, token)
	if item.Status != model.StatusStorage {
		t.Fatalf("expected new item in storage, got %q", item.Status)
	}

	var page model.ItemPage
	if status := do(t, "GET", server.URL+"/api/items?category=tools&q=drill", token, nil, &page); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if page.Total != 1 || len(page.Items) != 1 {
		t.Errorf("expected 1 item, got total=%d len=%d", page.Total, len(page.Items))
	}

	var updated model.Item
	status := do(t, "PATCH", server.URL+"/api/items/"+item.ID, token, map[string]any{"name": "Hammer drill"}, &updated)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if updated.Name != "Hammer drill" {
		t.Errorf("expected updated name, got %q", updated.Name)
	}

	if status := do(t, "DELETE", server.URL+"/api/items/"+item.ID, token, nil, nil); status != http.StatusNoContent {
		t.Errorf("expected 204, got %d", status)
	}
	if status := do(t, "DELETE", server.URL+"/api/items/"+item.ID, token, nil, nil); status != http.StatusNotFound {
		t.Errorf("expected 404 deleting twice, got %d", status)
	}
	if status := do(t, "GET", server.URL+"/api/items/"+item.ID, token, nil, nil); status != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", status)
	}
}

func TestItemsAPIRejectsBadInput(t *testing.T) {
	server := setupTestServer(t)
	token := tokenFor(t, "ana", model.RoleMember)
	item := createItem(t, server, token)

	if status := do(t, "GET", server.URL+"/api/items?limit=ten", token, nil, nil); status != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", status)
	}

	status := do(t, "PATCH", server.URL+"/api/items/"+item.ID, token, map[string]any{"status": "in_use"}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for status patch, got %d", status)
	}

	var body errorBody
	status = do(t, "POST", server.URL+"/api/items", token, map[string]any{"category": "clothing", "name": "Coat"}, &body)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for missing size, got %d", status)
	}
	if body.Kind != "validation_failed" {
		t.Errorf("expected validation_failed kind, got %q", body.Kind)
	}
}

func TestTransitionAndUsageFlow(t *testing.T) {
	server := setupTestServer(t)
	token := tokenFor(t, "ana", model.RoleMember)
	item := createItem(t, server, token)
	base := server.URL + "/api/items/" + item.ID

	var res transitionResponse
	status := do(t, "POST", base+"/transition", token, map[string]any{"status": "in_use", "kind": "loan", "notes": "lent to Bor"}, &res)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !res.Changed || res.Opened == nil || res.Previous != model.StatusStorage {
		t.Fatalf("unexpected transition result: %+v", res)
	}
	if res.Opened.Kind != model.UsageLoan {
		t.Errorf("expected loan period, got %q", res.Opened.Kind)
	}

	var open map[string]*model.UsagePeriod
	if status := do(t, "GET", base+"/usage/open", token, nil, &open); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if open["period"] == nil || open["period"].ID != res.Opened.ID {
		t.Errorf("expected open period %s, got %+v", res.Opened.ID, open["period"])
	}

	var active []model.UsagePeriod
	do(t, "GET", server.URL+"/api/usage/active", token, nil, &active)
	if len(active) != 1 {
		t.Errorf("expected 1 active period, got %d", len(active))
	}

	res = transitionResponse{}
	status = do(t, "POST", base+"/transition", token, map[string]any{"status": "storage"}, &res)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if res.Closed == nil || res.Closed.EndedAt == nil {
		t.Fatalf("expected closed period, got %+v", res.Closed)
	}

	var history []model.UsagePeriod
	do(t, "GET", base+"/usage", token, nil, &history)
	if len(history) != 1 || history[0].Open() {
		t.Errorf("expected one closed period in history, got %+v", history)
	}

	open = nil
	do(t, "GET", base+"/usage/open", token, nil, &open)
	if open["period"] != nil {
		t.Errorf("expected no open period, got %+v", open["period"])
	}
}

func TestTransitionExpectedStatusMismatch(t *testing.T) {
	server := setupTestServer(t)
	token := tokenFor(t, "ana", model.RoleMember)
	item := createItem(t, server, token)

	var body errorBody
	status := do(t, "POST", server.URL+"/api/items/"+item.ID+"/transition", token, map[string]any{
		"status":          "in_use",
		"expected_status": "maintenance",
	}, &body)
	if status != http.StatusConflict {
		t.Errorf("expected 409, got %d", status)
	}
	if body.Kind != "conflict_already_open" {
		t.Errorf("expected conflict kind, got %q", body.Kind)
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	server := setupTestServer(t)

	resp, err := http.Get(server.URL + "/api/items")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}

	if status := do(t, "GET", server.URL+"/api/items", "garbage", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("expected 401 for invalid token, got %d", status)
	}
}

func TestRoleBasedAccess(t *testing.T) {
	server := setupTestServer(t)
	guest := tokenFor(t, "gost", model.RoleGuest)
	member := tokenFor(t, "ana", model.RoleMember)
	admin := tokenFor(t, "root", model.RoleAdmin)

	// Guests can read but not write.
	if status := do(t, "GET", server.URL+"/api/items", guest, nil, nil); status != http.StatusOK {
		t.Errorf("expected 200 for guest list, got %d", status)
	}
	status := do(t, "POST", server.URL+"/api/items", guest, map[string]any{"category": "other", "name": "Test"}, nil)
	if status != http.StatusForbidden {
		t.Errorf("expected 403 for guest creating item, got %d", status)
	}

	// Audit and corrections are admin only.
	if status := do(t, "GET", server.URL+"/api/audit", member, nil, nil); status != http.StatusForbidden {
		t.Errorf("expected 403 for member audit, got %d", status)
	}
	var audit struct {
		Healthy  bool                 `json:"healthy"`
		Findings []model.AuditFinding `json:"findings"`
	}
	if status := do(t, "GET", server.URL+"/api/audit", admin, nil, &audit); status != http.StatusOK {
		t.Fatalf("expected 200 for admin audit, got %d", status)
	}
	if !audit.Healthy || len(audit.Findings) != 0 {
		t.Errorf("expected healthy audit, got %+v", audit)
	}
	if status := do(t, "PATCH", server.URL+"/api/usage/nope", member, map[string]any{"notes": "x"}, nil); status != http.StatusForbidden {
		t.Errorf("expected 403 for member correction, got %d", status)
	}
}

func TestCorrectUsagePeriod(t *testing.T) {
	server := setupTestServer(t)
	member := tokenFor(t, "ana", model.RoleMember)
	admin := tokenFor(t, "root", model.RoleAdmin)
	item := createItem(t, server, member)
	base := server.URL + "/api/items/" + item.ID

	var res transitionResponse
	do(t, "POST", base+"/transition", member, map[string]any{"status": "in_use"}, &res)
	do(t, "POST", base+"/transition", member, map[string]any{"status": "storage"}, nil)
	if res.Opened == nil {
		t.Fatal("expected an opened period")
	}

	var corrected map[string]*model.UsagePeriod
	status := do(t, "PATCH", server.URL+"/api/usage/"+res.Opened.ID, admin, map[string]any{"notes": "returned late"}, &corrected)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if corrected["after"] == nil || corrected["after"].Notes != "returned late" {
		t.Errorf("expected corrected notes, got %+v", corrected["after"])
	}

	// Reopening a period while the item is in storage would break the
	// status/period invariant.
	status = do(t, "PATCH", server.URL+"/api/usage/"+res.Opened.ID, admin, map[string]any{"clear_end": true}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 reopening period of stored item, got %d", status)
	}

	if status := do(t, "PATCH", server.URL+"/api/usage/missing", admin, map[string]any{"notes": "x"}, nil); status != http.StatusNotFound {
		t.Errorf("expected 404 for unknown period, got %d", status)
	}
}
