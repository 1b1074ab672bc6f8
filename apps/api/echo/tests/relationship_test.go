package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/lazoapp/lazo/core/relationship"
	"github.com/lazoapp/lazo/core/user"
	testutil "github.com/lazoapp/lazo/tests"
)

func Test_relationshipApi_create(t *testing.T) {
	resetDB(t)

	entrepreneur := testutil.CreateUser(t, usrRepo, "Espoir", "espoir", "espoir@test.cd", "", []string{user.RoleEntrepreneur}, true)
	ally := testutil.CreateUser(t, usrRepo, "Aline", "aline1", "aline@test.cd", "", []string{user.RoleAlly}, true)
	admin := testutil.CreateUser(t, usrRepo, "Root", "master", "root@test.cd", "", []string{user.RoleAdmin}, true)
	adminToken := getToken(t, admin)

	newRel := func(entID, allyID string) []byte {
		return marchallObj(t, relationship.NewRelationship{EntrepreneurID: entID, AllyID: allyID, Goal: "Grow the business"})
	}
	reqMsg := "this field is required"

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", token: getToken(t, ally), body: newRel(entrepreneur.ID, ally.ID),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "required fields", token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"entrepreneur_id": reqMsg, "ally_id": reqMsg, "goal": reqMsg}),
		},
		{
			name: "unknown entrepreneur", token: adminToken, body: newRel("lol", ally.ID),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"entrepreneur_id": user.ErrNotFound.Error()}),
		},
		{
			name: "roles are checked", token: adminToken, body: newRel(ally.ID, entrepreneur.ID),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"entrepreneur_id": "user does not hold the entrepreneur role"}),
		},
		{name: "pairing succeeds", token: adminToken, body: newRel(entrepreneur.ID, ally.ID), wantCode: http.StatusCreated},
		{
			name: "open pair cannot repeat", token: adminToken, body: newRel(entrepreneur.ID, ally.ID),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: relationship.ErrPairExists.Error()}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/relationships"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var respData relationship.Relationship
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Status != relationship.StatusPending {
					t.Errorf("failed! Status = %q; want %q", respData.Status, relationship.StatusPending)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_relationshipApi_query(t *testing.T) {
	resetDB(t)

	entrepreneur := testutil.CreateUser(t, usrRepo, "Espoir", "espoir", "espoir@test.cd", "", []string{user.RoleEntrepreneur}, true)
	ally := testutil.CreateUser(t, usrRepo, "Aline", "aline1", "aline@test.cd", "", []string{user.RoleAlly}, true)
	client := testutil.CreateUser(t, usrRepo, "Corp", "corpco", "corp@test.cd", "", []string{user.RoleClient}, true)
	admin := testutil.CreateUser(t, usrRepo, "Root", "master", "root@test.cd", "", []string{user.RoleAdmin}, true)
	otherEnt := testutil.CreateUser(t, usrRepo, "Neema", "neema1", "neema@test.cd", "", []string{user.RoleEntrepreneur}, true)
	otherAlly := testutil.CreateUser(t, usrRepo, "Blaise", "blaise", "blaise@test.cd", "", []string{user.RoleAlly}, true)

	sponsored := testutil.CreateRelationship(t, relRepo, entrepreneur.ID, ally.ID, client.ID, relationship.StatusActive)
	other := testutil.CreateRelationship(t, relRepo, otherEnt.ID, otherAlly.ID, "", relationship.StatusActive)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/relationships", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admins see everything", path: "/v1/relationships", token: getToken(t, admin),
			wantData: marchallList(t, other, sponsored),
		},
		{
			name: "Clients see sponsored relationships only", path: "/v1/relationships", token: getToken(t, client),
			wantData: marchallList(t, sponsored),
		},
		{
			name: "Allies see their own relationships only", path: "/v1/relationships", token: getToken(t, ally),
			wantData: marchallList(t, sponsored),
		},
		{
			name: "Entrepreneurs see their own relationships only", path: "/v1/relationships", token: getToken(t, otherEnt),
			wantData: marchallList(t, other),
		},
		{
			name: "status filter", path: "/v1/relationships?status=" + relationship.StatusEnded, token: getToken(t, admin),
			wantData: marchallList(t, []interface{}{}...),
		},
		{
			name: "Participants retrieve details", path: "/v1/relationships/" + sponsored.ID, token: getToken(t, entrepreneur),
			wantData: marchallObj(t, sponsored),
		},
		{
			name: "Outsiders get a 404", path: "/v1/relationships/" + other.ID, token: getToken(t, client),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_relationshipApi_transitions(t *testing.T) {
	resetDB(t)

	entrepreneur := testutil.CreateUser(t, usrRepo, "Espoir", "espoir", "espoir@test.cd", "", []string{user.RoleEntrepreneur}, true)
	ally := testutil.CreateUser(t, usrRepo, "Aline", "aline1", "aline@test.cd", "", []string{user.RoleAlly}, true)
	admin := testutil.CreateUser(t, usrRepo, "Root", "master", "root@test.cd", "", []string{user.RoleAdmin}, true)
	adminToken := getToken(t, admin)

	rel := testutil.CreateRelationship(t, relRepo, entrepreneur.ID, ally.ID, "", relationship.StatusPending)

	do := func(t *testing.T, action, token string, wantCode int) relationship.Relationship {
		t.Helper()
		req, rec := newAuthRequest(http.MethodPost, "/v1/relationships/"+rel.ID+"/"+action, token)
		app.ServeHTTP(rec, req)
		if rec.Code != wantCode {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, wantCode, rec.Body.String())
		}
		var respData relationship.Relationship
		if rec.Code == http.StatusOK {
			if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
				t.Fatalf("json.Unmarshal() failed! err %v", err)
			}
		}
		return respData
	}

	t.Run("Admin required", func(t *testing.T) {
		do(t, "activate", getToken(t, ally), http.StatusForbidden)
	})

	t.Run("pending cannot pause", func(t *testing.T) {
		do(t, "pause", adminToken, http.StatusBadRequest)
	})

	t.Run("activate stamps StartedAt", func(t *testing.T) {
		got := do(t, "activate", adminToken, http.StatusOK)
		if got.Status != relationship.StatusActive {
			t.Errorf("failed! Status = %q; want %q", got.Status, relationship.StatusActive)
		}
		if got.StartedAt.IsZero() {
			t.Error("failed! StartedAt not set")
		}
	})

	t.Run("pause and resume", func(t *testing.T) {
		got := do(t, "pause", adminToken, http.StatusOK)
		if got.Status != relationship.StatusPaused {
			t.Errorf("failed! Status = %q; want %q", got.Status, relationship.StatusPaused)
		}
		got = do(t, "activate", adminToken, http.StatusOK)
		if got.Status != relationship.StatusActive {
			t.Errorf("failed! Status = %q; want %q", got.Status, relationship.StatusActive)
		}
	})

	t.Run("end is terminal", func(t *testing.T) {
		got := do(t, "end", adminToken, http.StatusOK)
		if got.Status != relationship.StatusEnded {
			t.Errorf("failed! Status = %q; want %q", got.Status, relationship.StatusEnded)
		}
		if got.EndedAt.IsZero() {
			t.Error("failed! EndedAt not set")
		}
		do(t, "activate", adminToken, http.StatusBadRequest)
	})
}

func Test_relationshipApi_hours(t *testing.T) {
	resetDB(t)

	entrepreneur := testutil.CreateUser(t, usrRepo, "Espoir", "espoir", "espoir@test.cd", "", []string{user.RoleEntrepreneur}, true)
	ally := testutil.CreateUser(t, usrRepo, "Aline", "aline1", "aline@test.cd", "", []string{user.RoleAlly}, true)
	admin := testutil.CreateUser(t, usrRepo, "Root", "master", "root@test.cd", "", []string{user.RoleAdmin}, true)

	rel := testutil.CreateRelationship(t, relRepo, entrepreneur.ID, ally.ID, "", relationship.StatusActive)
	logBody := marchallObj(t, relationship.NewHourEntry{Date: time.Now().UTC(), Hours: 1.5, Note: "pitch practice"})

	var entry relationship.HourEntry
	t.Run("only the ally logs hours", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/relationships/"+rel.ID+"/hours", getToken(t, entrepreneur), logBody)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: relationship.ErrNotParticipant.Error()}),
		}, rec)

		req, rec = newAuthRequest(http.MethodPost, "/v1/relationships/"+rel.ID+"/hours", getToken(t, ally), logBody)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &entry); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if entry.Confirmed {
			t.Error("failed! new entry must start unconfirmed")
		}
	})

	t.Run("allies cannot confirm their own hours", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/relationships/hours/"+entry.ID+"/confirm", getToken(t, ally))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: relationship.ErrOwnEntry.Error()}),
		}, rec)
	})

	t.Run("the entrepreneur confirms", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/relationships/hours/"+entry.ID+"/confirm", getToken(t, entrepreneur))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var respData relationship.HourEntry
		if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if !respData.Confirmed || respData.ConfirmedAt.IsZero() {
			t.Error("failed! entry not confirmed")
		}
	})

	t.Run("double confirmation is rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/relationships/hours/"+entry.ID+"/confirm", getToken(t, entrepreneur))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("participants and admins list entries", func(t *testing.T) {
		for _, usr := range []struct {
			name  string
			token string
		}{
			{"ally", getToken(t, ally)},
			{"admin", getToken(t, admin)},
		} {
			req, rec := newAuthRequest(http.MethodGet, "/v1/relationships/"+rel.ID+"/hours", usr.token)
			app.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("%s: failed! code = %v; wantCode %v; body %s", usr.name, rec.Code, http.StatusOK, rec.Body.String())
			}
			var respData []relationship.HourEntry
			if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
				t.Fatalf("%s: json.Unmarshal() failed! err %v", usr.name, err)
			}
			if len(respData) != 1 {
				t.Errorf("%s: failed! len = %d; want 1", usr.name, len(respData))
			}
		}
	})
}
