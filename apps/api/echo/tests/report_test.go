package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/lazoapp/lazo/core/relationship"
	"github.com/lazoapp/lazo/core/report"
	"github.com/lazoapp/lazo/core/user"
	testutil "github.com/lazoapp/lazo/tests"
)

type reportFixture struct {
	entrepreneur user.User
	ally         user.User
	client       user.User
	admin        user.User
	sponsored    relationship.Relationship
	other        relationship.Relationship
}

func setupReportData(t *testing.T) reportFixture {
	t.Helper()
	resetDB(t)

	f := reportFixture{
		entrepreneur: testutil.CreateUser(t, usrRepo, "Espoir", "espoir", "espoir@test.cd", "", []string{user.RoleEntrepreneur}, true),
		ally:         testutil.CreateUser(t, usrRepo, "Aline", "aline1", "aline@test.cd", "", []string{user.RoleAlly}, true),
		client:       testutil.CreateUser(t, usrRepo, "Corp", "corpco", "corp@test.cd", "", []string{user.RoleClient}, true),
		admin:        testutil.CreateUser(t, usrRepo, "Root", "master", "root@test.cd", "", []string{user.RoleAdmin}, true),
	}
	otherEnt := testutil.CreateUser(t, usrRepo, "Neema", "neema1", "neema@test.cd", "", []string{user.RoleEntrepreneur}, true)
	otherAlly := testutil.CreateUser(t, usrRepo, "Blaise", "blaise", "blaise@test.cd", "", []string{user.RoleAlly}, true)

	f.sponsored = testutil.CreateRelationship(t, relRepo, f.entrepreneur.ID, f.ally.ID, f.client.ID, relationship.StatusActive)
	f.other = testutil.CreateRelationship(t, relRepo, otherEnt.ID, otherAlly.ID, "", relationship.StatusActive)

	ctx := context.Background()
	now := time.Now().UTC()
	for _, e := range []relationship.HourEntry{
		{RelationshipID: f.sponsored.ID, AllyID: f.ally.ID, Date: now, Hours: 2, Confirmed: true, ConfirmedAt: now, CreatedAt: now},
		{RelationshipID: f.sponsored.ID, AllyID: f.ally.ID, Date: now, Hours: 1, CreatedAt: now},
	} {
		if _, err := relRepo.CreateHourEntry(ctx, e); err != nil {
			t.Fatalf("CreateHourEntry() failed: %v", err)
		}
	}
	return f
}

func Test_reportApi_impact(t *testing.T) {
	f := setupReportData(t)

	impacts := func(t *testing.T, token, path string) []report.Impact {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, path, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var out []report.Impact
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		return out
	}

	t.Run("auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/reports/impact")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("admins see everything", func(t *testing.T) {
		if out := impacts(t, getToken(t, f.admin), "/v1/reports/impact"); len(out) != 2 {
			t.Errorf("failed! len = %d; want 2", len(out))
		}
	})

	t.Run("clients see sponsored relationships only", func(t *testing.T) {
		out := impacts(t, getToken(t, f.client), "/v1/reports/impact")
		if len(out) != 1 {
			t.Fatalf("failed! len = %d; want 1", len(out))
		}
		imp := out[0]
		if imp.RelationshipID != f.sponsored.ID {
			t.Errorf("failed! RelationshipID = %q; want %q", imp.RelationshipID, f.sponsored.ID)
		}
		if imp.ConfirmedHours != 2.0 || imp.PendingHours != 1.0 {
			t.Errorf("failed! hours = %v/%v; want 2/1", imp.ConfirmedHours, imp.PendingHours)
		}
	})

	t.Run("clients cannot peek at other clients", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/reports/impact?client_id=someone-else", getToken(t, f.client))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: report.ErrForbidden.Error()}),
		}, rec)
	})

	t.Run("allies are scoped to their own relationships", func(t *testing.T) {
		out := impacts(t, getToken(t, f.ally), "/v1/reports/impact")
		if len(out) != 1 || out[0].RelationshipID != f.sponsored.ID {
			t.Errorf("failed! out = %+v", out)
		}
	})
}

func Test_reportApi_summary(t *testing.T) {
	f := setupReportData(t)

	req, rec := newAuthRequest(http.MethodGet, "/v1/reports/summary", getToken(t, f.admin))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var summary report.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if summary.Relationships != 2 || summary.ActiveRelationships != 2 {
		t.Errorf("failed! relationships = %d/%d; want 2/2", summary.Relationships, summary.ActiveRelationships)
	}
	if summary.ConfirmedHours != 2.0 {
		t.Errorf("failed! ConfirmedHours = %v; want 2", summary.ConfirmedHours)
	}
	if summary.GeneratedAt.IsZero() {
		t.Error("failed! GeneratedAt not set")
	}
}

func Test_reportApi_export(t *testing.T) {
	f := setupReportData(t)

	req, rec := newAuthRequest(http.MethodGet, "/v1/reports/export", getToken(t, f.admin))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet") {
		t.Errorf("failed! Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "impact-report-") {
		t.Errorf("failed! Content-Disposition = %q", cd)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("excelize.OpenReader(): %v", err)
	}
	defer func() { _ = wb.Close() }()

	rows, err := wb.GetRows("Relationships")
	if err != nil {
		t.Fatalf("GetRows(): %v", err)
	}
	if len(rows) != 3 { // header + 2 relationships
		t.Errorf("failed! len(rows) = %d; want 3", len(rows))
	}

	t.Run("non-admins export their own scope only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/reports/export", getToken(t, f.entrepreneur))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		wb, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		if err != nil {
			t.Fatalf("excelize.OpenReader(): %v", err)
		}
		defer func() { _ = wb.Close() }()

		rows, err := wb.GetRows("Relationships")
		if err != nil {
			t.Fatalf("GetRows(): %v", err)
		}
		if len(rows) != 2 { // header + own relationship
			t.Errorf("failed! len(rows) = %d; want 2", len(rows))
		}
	})
}
