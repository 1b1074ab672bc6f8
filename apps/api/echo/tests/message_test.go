package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/lazoapp/lazo/core/message"
	"github.com/lazoapp/lazo/core/relationship"
	"github.com/lazoapp/lazo/core/user"
	testutil "github.com/lazoapp/lazo/tests"
)

func Test_messageApi(t *testing.T) {
	resetDB(t)

	entrepreneur := testutil.CreateUser(t, usrRepo, "Espoir", "espoir", "espoir@test.cd", "", []string{user.RoleEntrepreneur}, true)
	ally := testutil.CreateUser(t, usrRepo, "Aline", "aline1", "aline@test.cd", "", []string{user.RoleAlly}, true)
	outsider := testutil.CreateUser(t, usrRepo, "Blaise", "blaise", "blaise@test.cd", "", []string{user.RoleAlly}, true)
	admin := testutil.CreateUser(t, usrRepo, "Root", "master", "root@test.cd", "", []string{user.RoleAdmin}, true)
	rel := testutil.CreateRelationship(t, relRepo, entrepreneur.ID, ally.ID, "", relationship.StatusActive)

	base := "/v1/relationships/" + rel.ID + "/messages"
	send := func(t *testing.T, token, body string, wantCode int) {
		t.Helper()
		data := marchallObj(t, message.NewMessage{Body: body})
		req, rec := newAuthRequest(http.MethodPost, base, token, data)
		app.ServeHTTP(rec, req)
		if rec.Code != wantCode {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, wantCode, rec.Body.String())
		}
	}

	t.Run("auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, base)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("body is required", func(t *testing.T) {
		send(t, getToken(t, ally), "", http.StatusBadRequest)
	})

	t.Run("outsiders cannot post", func(t *testing.T) {
		send(t, getToken(t, outsider), "hi", http.StatusForbidden)
	})

	t.Run("admins read but never post", func(t *testing.T) {
		send(t, getToken(t, admin), "hi", http.StatusForbidden)
	})

	t.Run("participants chat", func(t *testing.T) {
		send(t, getToken(t, ally), "hi", http.StatusCreated)
		send(t, getToken(t, ally), "are you there?", http.StatusCreated)
		send(t, getToken(t, entrepreneur), "yes!", http.StatusCreated)
	})

	list := func(t *testing.T, token string) []message.Message {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, base, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var msgs []message.Message
		if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		return msgs
	}
	unread := func(t *testing.T, token string) int {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, base+"/unread-count", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var respData struct {
			Unread int `json:"unread"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		return respData.Unread
	}

	t.Run("admins may list the conversation", func(t *testing.T) {
		if msgs := list(t, getToken(t, admin)); len(msgs) != 3 {
			t.Errorf("failed! len = %d; want 3", len(msgs))
		}
	})

	t.Run("outsiders may not", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, base, getToken(t, outsider))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: message.ErrNotParticipant.Error()}),
		}, rec)
	})

	t.Run("unread counts exclude own messages", func(t *testing.T) {
		if n := unread(t, getToken(t, entrepreneur)); n != 2 {
			t.Errorf("failed! unread = %d; want 2", n)
		}
		if n := unread(t, getToken(t, ally)); n != 1 {
			t.Errorf("failed! unread = %d; want 1", n)
		}
	})

	t.Run("mark read", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, base+"/read", getToken(t, entrepreneur))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, map[string]int{"marked_read": 2})}, rec)

		if n := unread(t, getToken(t, entrepreneur)); n != 0 {
			t.Errorf("failed! unread = %d; want 0", n)
		}
		// the ally's own unread count is untouched
		if n := unread(t, getToken(t, ally)); n != 1 {
			t.Errorf("failed! unread = %d; want 1", n)
		}
	})

	t.Run("admins cannot mark read", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, base+"/read", getToken(t, admin))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusForbidden)
		}
	})
}

func Test_messageApi_endedRelationship(t *testing.T) {
	resetDB(t)

	entrepreneur := testutil.CreateUser(t, usrRepo, "Espoir", "espoir", "espoir@test.cd", "", []string{user.RoleEntrepreneur}, true)
	ally := testutil.CreateUser(t, usrRepo, "Aline", "aline1", "aline@test.cd", "", []string{user.RoleAlly}, true)
	rel := testutil.CreateRelationship(t, relRepo, entrepreneur.ID, ally.ID, "", relationship.StatusEnded)

	data := marchallObj(t, message.NewMessage{Body: "too late"})
	req, rec := newAuthRequest(http.MethodPost, "/v1/relationships/"+rel.ID+"/messages", getToken(t, ally), data)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, httpErr{Error: message.ErrRelationshipEnded.Error()}),
	}, rec)
}
