package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/lazoapp/lazo/core"
	"github.com/lazoapp/lazo/core/relationship"
	"github.com/lazoapp/lazo/core/user"
)

// NopLogger discards all logs.
type NopLogger struct{}

var _ core.Logger = (*NopLogger)(nil)

func (NopLogger) Enable(bool)                        {}
func (NopLogger) Debug(string, ...interface{})       {}
func (NopLogger) Info(string, ...interface{})        {}
func (NopLogger) Warn(string, ...interface{})        {}
func (NopLogger) Error(string, ...interface{})       {}
func (NopLogger) Fatal(msg string, _ ...interface{}) { panic(msg) }

// NewTestConfig returns a Config suitable for tests and sets the global core.Conf.
func NewTestConfig() *core.Config {
	conf := &core.Config{
		Env:      "TEST",
		Build:    "test",
		TestMode: true,
		AppName:  "Lazo",

		SecretKey:                 ":>v6KKdlp&H88=0L9n(B(^O1&R=d1The",
		FrontendBaseURL:           "http://localhost:3000",
		WorkDir:                   core.Getwd(),
		FromEmail:                 "noreply@test.cd",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,

		Server: core.ServerConfig{
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        7 * 24 * time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		FileStorage: core.FileStorageConfig{
			Backend:       "local",
			MaxUploadSize: 20 << 20,
		},
	}
	core.Conf = conf
	return conf
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateRelationship(
	t *testing.T,
	repo relationship.Repository,
	entrepreneurID, allyID, clientID, status string,
) relationship.Relationship {
	t.Helper()

	now := time.Now().UTC()
	rel := relationship.Relationship{
		EntrepreneurID: entrepreneurID,
		AllyID:         allyID,
		ClientID:       clientID,
		Goal:           "Grow the business",
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if status == relationship.StatusActive || status == relationship.StatusPaused || status == relationship.StatusEnded {
		rel.StartedAt = now
	}
	if status == relationship.StatusEnded {
		rel.EndedAt = now
	}
	rel, err := repo.CreateRelationship(context.Background(), rel)
	if err != nil {
		t.Fatalf("CreateRelationship() failed: %v", err)
	}
	return rel
}
