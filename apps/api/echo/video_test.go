package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/mafunzo/core/user"
	"github.com/trezcool/mafunzo/core/video"
)

func Test_videoApi_adminOnly(t *testing.T) {
	env := initServer(t)

	learner := createUser(t, env.usrRepo, "Learner", "thelearner", "learner@test.cd", "LimePie!", []string{user.RoleLearner}, true)
	plainAdmin := createUser(t, env.usrRepo, "Admin", "theadmin", "admin@test.cd", "LimePie!", []string{user.RoleAdmin}, true)

	tests := []httpTest{
		{name: "no token", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "learner is forbidden", token: getToken(t, learner),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})},
		{name: "plain admin lacks the content role", token: getToken(t, plainAdmin),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/videos", tt.token)
			env.srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_videoApi_crud(t *testing.T) {
	env := initServer(t)

	admin := createUser(t, env.usrRepo, "Content Admin", "contentadmin", "content@test.cd", "LimePie!", []string{user.RoleAdminContent}, true)
	token := getToken(t, admin)

	// create
	body := marchallObj(t, video.NewVideo{
		Title:    "Welcome",
		Category: "Introduction",
		MediaURL: "http://media.test/welcome.mp4",
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/videos", token, body)
	env.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var vid video.Video
	if err := json.Unmarshal(rec.Body.Bytes(), &vid); err != nil {
		t.Fatalf("unmarshalling Video failed: %v", err)
	}
	if vid.ID == "" || vid.Title != "Welcome" {
		t.Errorf("vid = %+v", vid)
	}

	// a missing media url is rejected
	req, rec = newAuthRequest(http.MethodPost, "/v1/videos", token, marchallObj(t, video.NewVideo{Title: "Broken"}))
	env.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("create without media_url: code = %v", rec.Code)
	}

	// retrieve
	req, rec = newAuthRequest(http.MethodGet, "/v1/videos/"+vid.ID, token)
	env.srv.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, vid)}, rec)

	// update
	req, rec = newAuthRequest(http.MethodPut, "/v1/videos/"+vid.ID, token, marchallObj(t, video.UpdateVideo{Title: "Welcome!"}))
	env.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: code = %v; body = %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &vid); err != nil {
		t.Fatalf("unmarshalling Video failed: %v", err)
	}
	if vid.Title != "Welcome!" || vid.Category != "Introduction" {
		t.Errorf("vid = %+v, want updated title with category untouched", vid)
	}

	// unknown id
	req, rec = newAuthRequest(http.MethodGet, "/v1/videos/ghost", token)
	env.srv.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)

	// destroy
	req, rec = newAuthRequest(http.MethodDelete, "/v1/videos/"+vid.ID, token)
	env.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("destroy: code = %v", rec.Code)
	}
	req, rec = newAuthRequest(http.MethodGet, "/v1/videos/"+vid.ID, token)
	env.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("retrieve after destroy: code = %v", rec.Code)
	}

	// bulk destroy without ids is a no-op, not an error
	req, rec = newAuthRequest(http.MethodDelete, "/v1/videos", token)
	env.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("bulk destroy without ids: code = %v", rec.Code)
	}
}

func Test_videoApi_orders(t *testing.T) {
	env := initServer(t)

	admin := createUser(t, env.usrRepo, "Content Admin", "contentadmin", "content@test.cd", "LimePie!", []string{user.RoleAdminContent}, true)
	token := getToken(t, admin)

	v1 := createVideo(t, env.vidSvc, "Pitching", "Sales Overview")
	v2 := createVideo(t, env.vidSvc, "Closing", "Sales Overview")

	// set
	body := marchallObj(t, video.CategoryOrder{Category: "Sales Overview", VideoIDs: []string{v2.ID, v1.ID}})
	req, rec := newAuthRequest(http.MethodPut, "/v1/videos/orders", token, body)
	env.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("setOrder: code = %v; body = %s", rec.Code, rec.Body.String())
	}

	// a blank category is rejected
	req, rec = newAuthRequest(http.MethodPut, "/v1/videos/orders", token, marchallObj(t, video.CategoryOrder{VideoIDs: []string{v1.ID}}))
	env.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("setOrder without category: code = %v", rec.Code)
	}

	// read back
	req, rec = newAuthRequest(http.MethodGet, "/v1/videos/orders", token)
	env.srv.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marchallObj(t, map[string][]string{"Sales Overview": {v2.ID, v1.ID}}),
	}, rec)
}
