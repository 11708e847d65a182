package httpapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/camt-dii/gatekeeper/internal/gatekeeper/access"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/audit"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/service"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/store/memory"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/token"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/types"
	"github.com/camt-dii/gatekeeper/internal/httpapi"
)

// newTestServer wires up the full dependency graph using the in-memory card
// store and returns an httptest.Server whose URL can be hit with a plain
// http.Client.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	trail := audit.NewTrail(nil)
	t.Cleanup(trail.Close)

	st := memory.NewCardStore()
	tokens := token.NewService("test-secret", time.Hour)
	floors := access.NewFloorService(trail,
		access.LowPolicy{},
		access.NewMediumPolicy(),
		access.NewHighPolicy(access.NewUsageLog()),
	)

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger: log.New(io.Discard, "", 0),
		Addr:   ":0",
		Guard:  service.NewGuard(st, tokens, floors, trail),
		Cards:  service.NewCardManager(st, trail),
		Tokens: tokens,
		Audit:  trail,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body []byte) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// createCard provisions a card over the API and returns its facade id.
func createCard(t *testing.T, ts *httptest.Server, body string) string {
	t.Helper()
	resp := postJSON(t, ts.URL+"/v1/cards", []byte(body))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create card: expected 201, got %d", resp.StatusCode)
	}
	var cr types.CreateCardResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cr.FacadeID == "" {
		t.Fatal("empty facade id")
	}
	return cr.FacadeID
}

// issueToken fetches a token for the facade id.
func issueToken(t *testing.T, ts *httptest.Server, facadeID string) string {
	t.Helper()
	resp := postJSON(t, ts.URL+"/v1/tokens", []byte(`{"facade_id":"`+facadeID+`"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("issue token: expected 200, got %d", resp.StatusCode)
	}
	var tr types.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return tr.Token
}

func TestCreateTokenAccessFlow(t *testing.T) {
	ts := newTestServer(t)

	facade := createCard(t, ts, `{
		"serial_number": "0042",
		"issuer_id": "ACME",
		"permission": {"floors": ["LOW", "MEDIUM"], "rooms": ["101"]}
	}`)
	tok := issueToken(t, ts, facade)

	// A Monday mid-morning passes every default policy.
	body, _ := json.Marshal(types.AccessRequest{
		FacadeID:    facade,
		Floor:       "LOW",
		Room:        "101",
		Token:       tok,
		RequestedAt: "2026-06-01T10:00:00Z",
	})
	resp := postJSON(t, ts.URL+"/v1/access_request", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var ar types.AccessResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !ar.Granted || ar.Reason != "granted" {
		t.Errorf("expected grant, got %v/%q", ar.Granted, ar.Reason)
	}
	if ar.Floor != "LOW" {
		t.Errorf("floor = %q", ar.Floor)
	}
}

func TestAccessRequest_InvalidFloor_400(t *testing.T) {
	ts := newTestServer(t)

	body := []byte(`{"facade_id":"f","floor":"BASEMENT","token":"t"}`)
	resp := postJSON(t, ts.URL+"/v1/access_request", body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAccessRequest_InvalidTimestamp_400(t *testing.T) {
	ts := newTestServer(t)

	body := []byte(`{"facade_id":"f","floor":"LOW","token":"t","requested_at":"yesterday"}`)
	resp := postJSON(t, ts.URL+"/v1/access_request", body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAccessRequest_UnknownFacade_DeniedNot404(t *testing.T) {
	ts := newTestServer(t)

	// An unknown credential is a deny decision, not a routing error: the
	// door module still gets a well-formed response to act on.
	body := []byte(`{"facade_id":"never-issued","floor":"LOW","token":"t"}`)
	resp := postJSON(t, ts.URL+"/v1/access_request", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var ar types.AccessResponse
	json.NewDecoder(resp.Body).Decode(&ar)
	if ar.Granted || ar.Reason != "unknown_card" {
		t.Errorf("got %v/%q", ar.Granted, ar.Reason)
	}
}

func TestAccessRequest_InvalidJSON_400(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/access_request", []byte(`not json`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateCard_InvalidPermission_400(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/cards", []byte(`{
		"serial_number": "0042",
		"issuer_id": "ACME",
		"permission": {"floors": ["ATTIC"]}
	}`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateCard_MissingIdentifier_400(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/cards", []byte(`{
		"serial_number": "",
		"issuer_id": "ACME",
		"permission": {"floors": ["LOW"]}
	}`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestRevoke_ThenAccessDenied(t *testing.T) {
	ts := newTestServer(t)

	facade := createCard(t, ts, `{
		"serial_number": "0042",
		"issuer_id": "ACME",
		"permission": {"floors": ["LOW"]}
	}`)
	tok := issueToken(t, ts, facade)

	resp := postJSON(t, ts.URL+"/v1/cards/revoke", []byte(`{"facade_id":"`+facade+`","actor":"admin"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("revoke: expected 200, got %d", resp.StatusCode)
	}

	body, _ := json.Marshal(types.AccessRequest{
		FacadeID: facade, Floor: "LOW", Token: tok,
		RequestedAt: "2026-06-01T10:00:00Z",
	})
	resp = postJSON(t, ts.URL+"/v1/access_request", body)

	var ar types.AccessResponse
	json.NewDecoder(resp.Body).Decode(&ar)
	if ar.Granted || ar.Reason != "card_revoked" {
		t.Errorf("got %v/%q", ar.Granted, ar.Reason)
	}
}

func TestRevoke_UnknownFacade_404(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/cards/revoke", []byte(`{"facade_id":"nope"}`))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestModifyPermissions_ChangesDecision(t *testing.T) {
	ts := newTestServer(t)

	facade := createCard(t, ts, `{
		"serial_number": "0042",
		"issuer_id": "ACME",
		"permission": {"floors": ["LOW"]}
	}`)
	tok := issueToken(t, ts, facade)

	request := func() types.AccessResponse {
		body, _ := json.Marshal(types.AccessRequest{
			FacadeID: facade, Floor: "MEDIUM", Token: tok,
			RequestedAt: "2026-06-01T10:00:00Z",
		})
		resp := postJSON(t, ts.URL+"/v1/access_request", body)
		var ar types.AccessResponse
		json.NewDecoder(resp.Body).Decode(&ar)
		return ar
	}

	if ar := request(); ar.Granted {
		t.Fatal("MEDIUM granted before the permission change")
	}

	resp := postJSON(t, ts.URL+"/v1/cards/permissions", []byte(`{
		"facade_id": "`+facade+`",
		"actor": "admin",
		"permission": {"floors": ["LOW", "MEDIUM"]}
	}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("modify: expected 200, got %d", resp.StatusCode)
	}

	if ar := request(); !ar.Granted {
		t.Error("MEDIUM still denied after the permission change")
	}
}

func TestHistory_ByCardUsesFacadeID(t *testing.T) {
	ts := newTestServer(t)

	facade := createCard(t, ts, `{
		"serial_number": "0042",
		"issuer_id": "ACME",
		"permission": {"floors": ["LOW"]}
	}`)
	tok := issueToken(t, ts, facade)

	body, _ := json.Marshal(types.AccessRequest{
		FacadeID: facade, Floor: "LOW", Token: tok,
		RequestedAt: "2026-06-01T10:00:00Z",
	})
	postJSON(t, ts.URL+"/v1/access_request", body)

	resp, err := http.Get(ts.URL + "/v1/history?card_id=" + url.QueryEscape(facade))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var hr types.HistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(hr.Records) == 0 {
		t.Fatal("no history records")
	}
	for _, rec := range hr.Records {
		// The real card id never appears on the wire.
		if rec.CardID != facade {
			t.Errorf("record card_id = %q, want the facade id", rec.CardID)
		}
	}
}

func TestHistory_ByLocation(t *testing.T) {
	ts := newTestServer(t)

	facade := createCard(t, ts, `{
		"serial_number": "0042",
		"issuer_id": "ACME",
		"permission": {"floors": ["LOW"]}
	}`)
	tok := issueToken(t, ts, facade)

	body, _ := json.Marshal(types.AccessRequest{
		FacadeID: facade, Floor: "LOW", Token: tok,
		RequestedAt: "2026-06-01T10:00:00Z",
	})
	postJSON(t, ts.URL+"/v1/access_request", body)

	q := url.Values{}
	q.Set("location", "Floor: LOW")
	q.Set("start", "2026-06-01T00:00:00Z")
	q.Set("end", "2026-06-02T00:00:00Z")

	resp, err := http.Get(ts.URL + "/v1/history?" + q.Encode())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var hr types.HistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// The floor check and the final decision each log an attempt at this
	// location.
	if len(hr.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(hr.Records))
	}
	for _, rec := range hr.Records {
		if rec.Location != "Floor: LOW" {
			t.Errorf("location = %q", rec.Location)
		}
	}
}

func TestHistory_MissingQuery_400(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/history")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestTokens_UnknownFacade_404(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/tokens", []byte(`{"facade_id":"nope"}`))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
