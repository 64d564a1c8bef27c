package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/trezcool/mafunzo/core"
	"github.com/trezcool/mafunzo/core/user"
	"github.com/trezcool/mafunzo/core/video"
	"github.com/trezcool/mafunzo/core/watch"
	"github.com/trezcool/mafunzo/storage/database/inmem"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	logger = log.New(io.Discard, "", 0)

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	usrRepo = inmemdb.NewUserRepository(db)

	// start CLI
	return &commandLine{
		usrRepo:  usrRepo,
		vidSvc:   video.NewService(inmemdb.NewVideoRepository(db)),
		watchSvc: watch.NewService(inmemdb.NewWatchEventRepository(db)),
	}
}

func createUser(t *testing.T, uname, email, pwd string) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Name:      "Test User",
		Username:  uname,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	usr.SetActive(true)
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	usr, err := usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "course", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := createUser(t, "awe", "awe@test.cd", "mdr")

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
				if err != nil {
					t.Fatalf("GetUser() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_suspendUser(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	usr := createUser(t, "moise", "moise@test.cd", "mdr")

	if err := cli.run([]string{"admin", "suspenduser", "-username", usr.Username}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}
	refreshed, _ := usrRepo.GetUser(ctx, user.GetFilter{ID: usr.ID})
	if refreshed.Active() {
		t.Error("user still active after suspension")
	}

	if err := cli.run([]string{"admin", "suspenduser", "-username", usr.Email, "-reinstate"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}
	refreshed, _ = usrRepo.GetUser(ctx, user.GetFilter{ID: usr.ID})
	if !refreshed.Active() {
		t.Error("user still suspended after reinstating")
	}

	if err := cli.run([]string{"admin", "suspenduser", "-username", "ghost"}); err != user.ErrNotFound {
		t.Errorf("cli.run() error = %v, wantErr %v", err, user.ErrNotFound)
	}
}

func Test_commandLine_setOrder(t *testing.T) {
	core.InitValidators()
	cli := setup(t)
	ctx := context.Background()

	if err := cli.run([]string{"admin", "setorder", "-category", "Sales", "v3", "v1", "v2"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}

	orders, err := cli.vidSvc.CategoryOrders(ctx)
	if err != nil {
		t.Fatalf("CategoryOrders() failed: %v", err)
	}
	want := []string{"v3", "v1", "v2"}
	got := orders["Sales"]
	if len(got) != len(want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}

	// missing ids
	if err := cli.run([]string{"admin", "setorder", "-category", "Sales"}); err != errHelp {
		t.Errorf("cli.run() error = %v, wantErr %v", err, errHelp)
	}
}

func Test_commandLine_importHistory(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	docs := []map[string]interface{}{
		{"userId": "u1", "videoId": "v1", "progress": 80, "watchTime": 120},
		{"user_id": "u1", "video_id": "v2", "percent": 45, "isCompleted": true},
	}
	data, err := json.Marshal(docs)
	if err != nil {
		t.Fatalf("marshalling docs failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "export.json")
	if err = os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing export failed: %v", err)
	}

	if err = cli.run([]string{"admin", "importhistory", "-file", path}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}

	evt, err := cli.watchSvc.GetEvent(ctx, "u1", "v2")
	if err != nil {
		t.Fatalf("GetEvent() failed: %v", err)
	}
	if !evt.Completed || evt.Progress != 100 {
		t.Errorf("event = %+v, want completed with progress=100", evt)
	}

	// unreadable file
	if err = cli.run([]string{"admin", "importhistory", "-file", filepath.Join(t.TempDir(), "nope.json")}); err == nil {
		t.Error("expected an error for a missing file")
	}
}
