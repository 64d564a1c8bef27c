package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/mafunzo/core/user"
)

func Test_userApi_login(t *testing.T) {
	env := initServer(t)

	createUser(t, env.usrRepo, "Jina Kazi", "jinakazi", "jina@test.cd", "LimePie!", []string{user.RoleLearner}, true)
	createUser(t, env.usrRepo, "Gone Guy", "goneguy", "gone@test.cd", "LimePie!", []string{user.RoleLearner}, false)

	tests := []httpTest{
		{name: "empty body", body: []byte(`{}`), wantCode: http.StatusBadRequest},
		{name: "unknown user", body: marchallObj(t, LoginRequest{Username: "ghost", Password: "LimePie!"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"})},
		{name: "wrong password", body: marchallObj(t, LoginRequest{Username: "jinakazi", Password: "nope"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"})},
		{name: "deactivated account", body: marchallObj(t, LoginRequest{Username: "goneguy", Password: "LimePie!"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "login with username", body: marchallObj(t, LoginRequest{Username: "jinakazi", Password: "LimePie!"}),
			wantCode: http.StatusOK},
		{name: "login with email", body: marchallObj(t, LoginRequest{Username: "jina@test.cd", Password: "LimePie!"}),
			wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			env.srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var res LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
					t.Fatalf("unmarshalling LoginResponse failed: %v", err)
				}
				if res.Token == "" {
					t.Error("expected a token")
				}
			}
		})
	}
}

func Test_userApi_tokenRefresh(t *testing.T) {
	env := initServer(t)

	usr := createUser(t, env.usrRepo, "Jina Kazi", "jinakazi", "jina@test.cd", "LimePie!", []string{user.RoleLearner}, true)
	gone := createUser(t, env.usrRepo, "Gone Guy", "goneguy", "gone@test.cd", "LimePie!", []string{user.RoleLearner}, false)

	tests := []httpTest{
		{name: "no token", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "deactivated account", token: getToken(t, gone),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "refresh", token: getToken(t, usr), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", tt.token)
			env.srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var res LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
					t.Fatalf("unmarshalling LoginResponse failed: %v", err)
				}
				if res.Token == "" {
					t.Error("expected a token")
				}
			}
		})
	}
}

func Test_userApi_query(t *testing.T) {
	env := initServer(t)

	admin := createUser(t, env.usrRepo, "Admin", "theadmin", "admin@test.cd", "LimePie!", []string{user.RoleAdminOwner}, true)
	learner := createUser(t, env.usrRepo, "Learner", "thelearner", "learner@test.cd", "LimePie!", []string{user.RoleLearner}, true)

	tests := []httpTest{
		{name: "no token", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "learner is forbidden", token: getToken(t, learner),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})},
		{name: "admin lists all users", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallObj(t, []user.User{admin, learner})},
		{name: "search by name", path: "?search=learner", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallObj(t, []user.User{learner})},
		{name: "filter by role", path: "?role=admin:", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallObj(t, []user.User{admin})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/users"+tt.path, tt.token)
			env.srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_detail(t *testing.T) {
	env := initServer(t)

	admin := createUser(t, env.usrRepo, "Admin", "theadmin", "admin@test.cd", "LimePie!", []string{user.RoleAdminOwner}, true)
	learner := createUser(t, env.usrRepo, "Learner", "thelearner", "learner@test.cd", "LimePie!", []string{user.RoleLearner}, true)
	other := createUser(t, env.usrRepo, "Other", "theother", "other@test.cd", "LimePie!", []string{user.RoleLearner}, true)

	tests := []httpTest{
		{name: "own detail", path: "/v1/users/" + learner.ID, token: getToken(t, learner),
			wantCode: http.StatusOK, wantData: marchallObj(t, learner)},
		{name: "someone else's detail is hidden", path: "/v1/users/" + other.ID, token: getToken(t, learner),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
		{name: "admin reads any detail", path: "/v1/users/" + other.ID, token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallObj(t, other)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			env.srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_passwordReset(t *testing.T) {
	env := initServer(t)

	usr := createUser(t, env.usrRepo, "Jina Kazi", "jinakazi", "jina@test.cd", "LimePie!", []string{user.RoleLearner}, true)

	successMsg := "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."

	// the request endpoint never leaks whether the account exists
	for _, email := range []string{usr.Email, "ghost@test.cd"} {
		req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", marchallObj(t, PasswordResetRequest{Email: email}))
		env.srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, SuccessResponse{Success: successMsg})}, rec)
	}

	// confirm with the generated uid + token
	body := marchallObj(t, PasswordResetConfirmRequest{
		UID:             user.EncodeUID(usr),
		Token:           user.MakeToken(usr),
		Password:        "N3wLimePie!",
		PasswordConfirm: "N3wLimePie!",
	})
	req, rec := newRequest(http.MethodPost, "/v1/users/password-reset-confirm", body)
	env.srv.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marchallObj(t, SuccessResponse{Success: "Password has been reset with the new password."}),
	}, rec)

	// old password no longer works; the new one does
	req, rec = newRequest(http.MethodPost, "/v1/users/login", marchallObj(t, LoginRequest{Username: usr.Username, Password: "LimePie!"}))
	env.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("old password still works; code = %v", rec.Code)
	}
	req, rec = newRequest(http.MethodPost, "/v1/users/login", marchallObj(t, LoginRequest{Username: usr.Username, Password: "N3wLimePie!"}))
	env.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("new password rejected; code = %v; body = %s", rec.Code, rec.Body.String())
	}
}
