package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hushchat/hushchat/backend/ratelimit"
	"github.com/hushchat/hushchat/backend/security"
	"github.com/hushchat/hushchat/backend/session"
	"github.com/hushchat/hushchat/backend/storage/memory"
)

type testEnv struct {
	srv   *httptest.Server
	store *memory.Store
}

func newEnv(t *testing.T, rateLimit int, failureDelay time.Duration) *testEnv {
	t.Helper()

	store := memory.NewStore()
	sessions := session.NewManager(
		[]byte("0123456789abcdef0123456789abcdef"),
		[]byte("fedcba9876543210fedcba9876543210"),
		true)
	recorder := security.NewRecorder(nil)
	limiter := ratelimit.New(time.Minute, 1000)

	r := NewRouter(RouterConfig{
		Rooms:          NewRoomHandler(store, sessions, recorder, failureDelay),
		Messages:       NewMessageHandler(store, sessions, recorder, time.Minute),
		Auth:           NewAuthHandler(store, sessions, recorder, failureDelay),
		Limiter:        limiter,
		RateLimit:      rateLimit,
		Recorder:       recorder,
		AllowedOrigins: []string{"http://localhost:3000"},
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, store: store}
}

func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, c *http.Client, url string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := c.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()

	var payload map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	return resp.StatusCode, payload
}

func getJSON(t *testing.T, c *http.Client, url string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := c.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()

	var payload map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	return resp.StatusCode, payload
}

func createRoom(t *testing.T, c *http.Client, env *testEnv, name, password, userName string) string {
	t.Helper()
	status, payload := postJSON(t, c, env.srv.URL+"/rooms/create", map[string]string{
		"name": name, "password": password, "userName": userName,
	})
	if status != http.StatusCreated {
		t.Fatalf("create room: status %d, payload %v", status, payload)
	}
	roomID, _ := payload["roomId"].(string)
	if roomID == "" {
		t.Fatalf("create room: no roomId in %v", payload)
	}
	return roomID
}

func TestCreateAndJoinRoom(t *testing.T) {
	env := newEnv(t, 100, 50*time.Millisecond)

	alice := newBrowser(t)
	roomID := createRoom(t, alice, env, "Test Room", "password123", "alice")

	bob := newBrowser(t)

	// Wrong password: 401 after the introduced delay.
	start := time.Now()
	status, _ := postJSON(t, bob, env.srv.URL+"/rooms/join", map[string]string{
		"roomId": roomID, "password": "wrongpass", "userName": "bob",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("wrong password: status %d", status)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("wrong password answered in %s, no failure delay", elapsed)
	}

	status, payload := postJSON(t, bob, env.srv.URL+"/rooms/join", map[string]string{
		"roomId": roomID, "password": "password123", "userName": "bob",
	})
	if status != http.StatusOK {
		t.Fatalf("join: status %d, payload %v", status, payload)
	}
	if payload["name"] != "Test Room" || payload["userName"] != "bob" {
		t.Fatalf("join payload: %v", payload)
	}

	// Joining granted room access.
	status, _ = getJSON(t, bob, env.srv.URL+"/messages/"+roomID)
	if status != http.StatusOK {
		t.Fatalf("messages after join: status %d", status)
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	env := newEnv(t, 100, time.Millisecond)

	status, _ := postJSON(t, newBrowser(t), env.srv.URL+"/rooms/join", map[string]string{
		"roomId": "no-such-room", "password": "password123", "userName": "bob",
	})
	if status != http.StatusNotFound {
		t.Fatalf("unknown room: status %d", status)
	}
}

func TestCreateRoomValidation(t *testing.T) {
	env := newEnv(t, 100, time.Millisecond)
	c := newBrowser(t)

	status, _ := postJSON(t, c, env.srv.URL+"/rooms/create", map[string]string{
		"name": "", "password": "password123",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("empty name: status %d", status)
	}

	status, _ = postJSON(t, c, env.srv.URL+"/rooms/create", map[string]string{
		"name": "Room", "password": "abc",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("short password: status %d", status)
	}
}

func TestSendMessageRequiresRoomAuth(t *testing.T) {
	env := newEnv(t, 100, time.Millisecond)

	alice := newBrowser(t)
	roomID := createRoom(t, alice, env, "Room", "password123", "alice")

	stranger := newBrowser(t)
	status, _ := postJSON(t, stranger, env.srv.URL+"/messages/send", map[string]interface{}{
		"roomId": roomID, "text": "hi",
	})
	if status != http.StatusForbidden {
		t.Fatalf("unauthenticated send: status %d", status)
	}

	status, _ = getJSON(t, stranger, env.srv.URL+"/messages/"+roomID)
	if status != http.StatusForbidden {
		t.Fatalf("unauthenticated list: status %d", status)
	}
}

func TestSendMessageSanitizesPlaintext(t *testing.T) {
	env := newEnv(t, 100, time.Millisecond)

	alice := newBrowser(t)
	roomID := createRoom(t, alice, env, "Room", "password123", "alice")

	status, _ := postJSON(t, alice, env.srv.URL+"/messages/send", map[string]interface{}{
		"roomId": roomID, "text": `hello <script>alert(1)</script> world`,
	})
	if status != http.StatusOK {
		t.Fatalf("send: status %d", status)
	}

	msgs, err := env.store.ListMessages(roomID, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 stored message, got %d", len(msgs))
	}
	if strings.Contains(msgs[0].Text, "<script") || strings.Contains(msgs[0].Text, "alert(1)") {
		t.Fatalf("executable markup stored: %q", msgs[0].Text)
	}
}

func TestSendEncryptedMessageStoredVerbatim(t *testing.T) {
	env := newEnv(t, 100, time.Millisecond)

	alice := newBrowser(t)
	roomID := createRoom(t, alice, env, "Room", "password123", "alice")

	// Missing IV is a validation error.
	status, _ := postJSON(t, alice, env.srv.URL+"/messages/send", map[string]interface{}{
		"roomId": roomID, "text": "b64cipher", "encrypted": true,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("encrypted without IV: status %d", status)
	}

	status, _ = postJSON(t, alice, env.srv.URL+"/messages/send", map[string]interface{}{
		"roomId": roomID, "text": "<script>not sanitized</script>", "encrypted": true, "iv": "AAAAAAAAAAAAAAAA",
	})
	if status != http.StatusOK {
		t.Fatalf("encrypted send: status %d", status)
	}

	msgs, _ := env.store.ListMessages(roomID, 10)
	if len(msgs) != 1 || !msgs[0].Encrypted {
		t.Fatalf("encrypted message not stored: %+v", msgs)
	}
	// Ciphertext is opaque; the sanitizer must not touch it.
	if msgs[0].Text != "<script>not sanitized</script>" {
		t.Fatalf("ciphertext altered: %q", msgs[0].Text)
	}
}

func TestAuthRoomCSRF(t *testing.T) {
	env := newEnv(t, 100, time.Millisecond)

	alice := newBrowser(t)
	roomID := createRoom(t, alice, env, "Room", "password123", "alice")

	// A logged-out browser gets 401, not 403.
	status, _ := postJSON(t, newBrowser(t), env.srv.URL+"/auth/room", map[string]string{
		"roomId": roomID, "password": "password123", "csrfToken": "whatever",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("anonymous auth/room: status %d", status)
	}

	bob := newBrowser(t)
	status, sess := postJSON(t, bob, env.srv.URL+"/auth/session", map[string]string{"userName": "bob"})
	if status != http.StatusCreated {
		t.Fatalf("create session: status %d", status)
	}
	token, _ := sess["csrfToken"].(string)
	if token == "" {
		t.Fatalf("no CSRF token issued: %v", sess)
	}

	// Wrong CSRF token: 403, distinguishable from wrong password.
	status, _ = postJSON(t, bob, env.srv.URL+"/auth/room", map[string]string{
		"roomId": roomID, "password": "password123", "csrfToken": "forged",
	})
	if status != http.StatusForbidden {
		t.Fatalf("forged CSRF: status %d", status)
	}

	// Wrong password with a valid token: 401.
	status, _ = postJSON(t, bob, env.srv.URL+"/auth/room", map[string]string{
		"roomId": roomID, "password": "wrongpass", "csrfToken": token,
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("wrong password: status %d", status)
	}

	status, payload := postJSON(t, bob, env.srv.URL+"/auth/room", map[string]string{
		"roomId": roomID, "password": "password123", "csrfToken": token,
	})
	if status != http.StatusOK || payload["authenticated"] != true {
		t.Fatalf("auth/room: status %d, payload %v", status, payload)
	}

	status, _ = getJSON(t, bob, env.srv.URL+"/messages/"+roomID)
	if status != http.StatusOK {
		t.Fatalf("messages after auth/room: status %d", status)
	}
}

func TestSessionLifecycle(t *testing.T) {
	env := newEnv(t, 100, time.Millisecond)
	c := newBrowser(t)

	status, sess := getJSON(t, c, env.srv.URL+"/auth/session")
	if status != http.StatusOK || sess["isLoggedIn"] != false {
		t.Fatalf("fresh session: status %d, payload %v", status, sess)
	}

	status, sess = postJSON(t, c, env.srv.URL+"/auth/session", map[string]string{"userName": "alice"})
	if status != http.StatusCreated || sess["isLoggedIn"] != true || sess["userName"] != "alice" {
		t.Fatalf("identify: status %d, payload %v", status, sess)
	}
	userID, _ := sess["userId"].(string)

	// Introspection reflects the persisted state.
	_, sess = getJSON(t, c, env.srv.URL+"/auth/session")
	if sess["userId"] != userID {
		t.Fatalf("session not persisted: %v", sess)
	}

	req, _ := http.NewRequest(http.MethodDelete, env.srv.URL+"/auth/session", nil)
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("delete session: %v", err)
	}
	resp.Body.Close()

	_, sess = getJSON(t, c, env.srv.URL+"/auth/session")
	if sess["isLoggedIn"] != false {
		t.Fatalf("session survived delete: %v", sess)
	}
}

func TestRateLimit(t *testing.T) {
	env := newEnv(t, 2, time.Millisecond)
	c := newBrowser(t)

	for i := 0; i < 2; i++ {
		status, _ := postJSON(t, c, env.srv.URL+"/rooms/create", map[string]string{
			"name": "Room", "password": "password123",
		})
		if status != http.StatusCreated {
			t.Fatalf("request %d: status %d", i+1, status)
		}
	}

	status, payload := postJSON(t, c, env.srv.URL+"/rooms/create", map[string]string{
		"name": "Room", "password": "password123",
	})
	if status != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", status)
	}
	if payload["error"] == "" {
		t.Fatalf("429 without error payload: %v", payload)
	}
}

func TestStreamDeliversBacklog(t *testing.T) {
	env := newEnv(t, 100, time.Millisecond)

	alice := newBrowser(t)
	roomID := createRoom(t, alice, env, "Room", "password123", "alice")

	status, _ := postJSON(t, alice, env.srv.URL+"/messages/send", map[string]interface{}{
		"roomId": roomID, "text": "first message",
	})
	if status != http.StatusOK {
		t.Fatalf("send: status %d", status)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, env.srv.URL+"/messages/"+roomID+"/stream", nil)
	resp, err := alice.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: %q", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			if !strings.Contains(line, "first message") {
				t.Fatalf("backlog event missing message: %q", line)
			}
			return
		}
	}
	t.Fatalf("stream ended without a data event: %v", scanner.Err())
}
