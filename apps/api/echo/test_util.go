package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/mafunzo/core"
	"github.com/trezcool/mafunzo/core/user"
	"github.com/trezcool/mafunzo/core/video"
	"github.com/trezcool/mafunzo/core/watch"
	emailsvc "github.com/trezcool/mafunzo/services/email"
	inmemdb "github.com/trezcool/mafunzo/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

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
	wantData []byte // nil: skip the body check
	extra    interface{}
}

type testEnv struct {
	srv      Server
	conf     *core.Config
	usrRepo  user.Repository
	usrSvc   user.Service
	vidSvc   video.Service
	watchSvc watch.Service
	sessions *watch.SessionManager
}

func testConf() *core.Config {
	return &core.Config{
		Env:                       "TEST",
		TestMode:                  true,
		AppName:                   "Mafunzo",
		SecretKey:                 "secret",
		FrontendBaseURL:           "http://localhost:3000",
		DefaultFromName:           "Mafunzo",
		DefaultFromAddr:           "noreply@localhost",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			Host:                      "localhost",
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Playback: core.PlaybackConfig{
			PersistInterval:    2 * time.Second,
			SessionIdleTimeout: time.Hour,
		},
	}
}

type testLogger struct{}

func (testLogger) Debug(msg string, args ...interface{}) {}
func (testLogger) Info(msg string, args ...interface{})  {}
func (testLogger) Warn(msg string, args ...interface{})  {}
func (testLogger) Error(msg string, args ...interface{}) {}
func (testLogger) Fatal(msg string, args ...interface{}) {}

func initServer(t *testing.T) *testEnv {
	conf := testConf()
	core.InitValidators()
	user.InitValidators()
	user.Init(conf)

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("initServer() failed: %v", err)
	}
	usrRepo := inmemdb.NewUserRepository(db)
	watchRepo := inmemdb.NewWatchEventRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewServiceMock(usrRepo, mailSvc, conf)
	vidSvc := video.NewService(inmemdb.NewVideoRepository(db))
	watchSvc := watch.NewService(watchRepo)
	logger := testLogger{}
	sessions := watch.NewSessionManager(watchRepo, logger, conf, watch.RecorderHooks{})

	srv := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		UserSvc:        usrSvc,
		VideoSvc:       vidSvc,
		WatchSvc:       watchSvc,
		Sessions:       sessions,
		DisableReqLogs: true,
	})
	return &testEnv{
		srv:      srv,
		conf:     conf,
		usrRepo:  usrRepo,
		usrSvc:   usrSvc,
		vidSvc:   vidSvc,
		watchSvc: watchSvc,
		sessions: sessions,
	}
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
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func createUser(t *testing.T, repo user.Repository, name, uname, email, pwd string, roles []string, isActive bool) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func createVideo(t *testing.T, svc video.Service, title, category string) video.Video {
	t.Helper()
	vid, err := svc.Create(context.Background(), video.NewVideo{
		Title:    title,
		Category: category,
		MediaURL: "http://media.test/" + title + ".mp4",
	})
	if err != nil {
		t.Fatalf("createVideo() failed: %v", err)
	}
	return vid
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
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
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
