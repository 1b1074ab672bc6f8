package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/lazoapp/lazo/apps/api/echo"
	"github.com/lazoapp/lazo/core"
	"github.com/lazoapp/lazo/core/document"
	"github.com/lazoapp/lazo/core/meeting"
	"github.com/lazoapp/lazo/core/message"
	"github.com/lazoapp/lazo/core/relationship"
	"github.com/lazoapp/lazo/core/report"
	"github.com/lazoapp/lazo/core/task"
	"github.com/lazoapp/lazo/core/user"
	calendarsvc "github.com/lazoapp/lazo/services/calendar"
	emailsvc "github.com/lazoapp/lazo/services/email"
	inmemdb "github.com/lazoapp/lazo/storage/database/inmem"
	"github.com/lazoapp/lazo/storage/files"
	testutil "github.com/lazoapp/lazo/tests"
)

var (
	db  *inmemdb.DB
	app *echoapi.Server

	usrRepo user.Repository
	relRepo relationship.Repository

	usrSvc user.Service
	relSvc relationship.Service
	calSvc *calendarsvc.DummyService

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errPermDenied   = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

func TestMain(m *testing.M) {
	conf := testutil.NewTestConfig()

	// set up DB & repos
	db = inmemdb.NewDB()
	usrRepo = inmemdb.NewUserRepository(db)
	relRepo = inmemdb.NewRelationshipRepository(db)

	// set up services
	logger := testutil.NopLogger{}
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	calSvc = calendarsvc.NewDummyService()
	storage := files.NewMemStorage()

	usrSvc = user.NewService(usrRepo, mailSvc, conf)
	relSvc = relationship.NewService(relRepo, usrSvc)
	meetingSvc := meeting.NewService(inmemdb.NewMeetingRepository(db), relSvc, usrSvc, calSvc, mailSvc, logger)
	taskSvc := task.NewService(inmemdb.NewTaskRepository(db), relSvc)
	docSvc := document.NewService(inmemdb.NewDocumentRepository(db), storage, relSvc, conf, logger)
	msgSvc := message.NewService(inmemdb.NewMessageRepository(db), relSvc)
	reportSvc := report.NewService(inmemdb.NewReportRepository(db))

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	task.InitValidators(validate, translator)

	core.ParseEmailTemplates(logger)
	user.LoadCommonPasswords(logger)

	// set up server
	app = echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:            conf,
			Logger:          logger,
			UserSvc:         usrSvc,
			RelationshipSvc: relSvc,
			MeetingSvc:      meetingSvc,
			TaskSvc:         taskSvc,
			DocumentSvc:     docSvc,
			MessageSvc:      msgSvc,
			ReportSvc:       reportSvc,
			Validate:        validate,
			Translator:      translator,
		},
	)

	os.Exit(m.Run())
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func resetDB(t *testing.T) {
	t.Helper()
	db.Reset()
	emailsvc.ClearSentMessages()
	calSvc.Events = make(map[string]core.CalendarEvent)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := echoapi.GetUserClaims(usr)
	token, err := echoapi.GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return false, nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
