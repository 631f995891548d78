package handler

import (
	"net/http"
	"testing"

	"github.com/keramy/formula-backend/internal/pm/entity"
	"github.com/keramy/formula-backend/internal/pm/repository"
	"github.com/keramy/formula-backend/internal/pm/service"
	"github.com/keramy/formula-backend/internal/pm/testutil"
	"gorm.io/gorm"
)

func setupDrawingTest(t *testing.T) (*testutil.TestEnv, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	repos := repository.NewRepositories(db)
	workflow := service.NewDrawingWorkflowService(db, repos, nil, testutil.Logger())
	svc := &service.Services{
		Identity: service.NewIdentityService(repos.User, nil),
		Workflow: workflow,
		BulkSend: service.NewBulkSendService(workflow, repos.Project, repos.Drawing, testutil.Logger()),
	}
	handler := NewDrawingHandler(svc, repos)

	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/scope-items/:itemId/drawing/revisions", handler.UploadRevision)
	api.PUT("/scope-items/:itemId/drawing/revisions/current", handler.ReplaceFile)
	api.POST("/scope-items/:itemId/drawing/send", handler.SendToClient)
	api.POST("/scope-items/:itemId/drawing/response", handler.RecordClientResponse)
	api.POST("/scope-items/:itemId/drawing/override", handler.PMOverride)
	api.POST("/scope-items/:itemId/drawing/not-required", handler.MarkNotRequired)
	api.GET("/scope-items/:itemId/drawing", handler.GetDrawing)
	api.GET("/scope-items/:itemId/drawing/activity", handler.ListActivity)
	api.GET("/projects/:id/drawings", handler.ListProjectDrawings)
	api.POST("/projects/:id/drawings/send-all", handler.BulkSend)

	return &testutil.TestEnv{DB: db, Router: router, T: t}, db
}

func seedWorkflowFixture(t *testing.T, db *gorm.DB) *entity.ScopeItem {
	t.Helper()
	testutil.SeedTestUser(t, db, "pm-001", "Project Manager", entity.RolePM)
	testutil.SeedTestUser(t, db, "client-001", "Client User", entity.RoleClient)
	testutil.SeedTestUser(t, db, "prod-001", "Shop Floor", entity.RoleProduction)
	testutil.SeedProject(t, db, "proj-001", "PRJ-2026-0001", "Hotel Fitout")
	return testutil.SeedScopeItem(t, db, "proj-001", "SI-001", "Reception Desk")
}

func pmToken() string {
	return testutil.GenerateTestToken("pm-001", "Project Manager", "pm@test.com")
}

func clientToken() string {
	return testutil.GenerateTestToken("client-001", "Client User", "client@test.com")
}

func TestDrawingLifecycleHTTP(t *testing.T) {
	env, db := setupDrawingTest(t)
	item := seedWorkflowFixture(t, db)
	base := "/api/v1/scope-items/" + item.ID + "/drawing"

	// 上传首版
	w := testutil.DoRequest(env.Router, "POST", base+"/revisions",
		map[string]interface{}{
			"file_ref":     "minio://drawings/desk-a.pdf",
			"cad_file_ref": "minio://drawings/desk-a.dwg",
		}, pmToken())
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["current_revision"] != "A" {
		t.Errorf("Expected revision A, got %v", data["current_revision"])
	}
	if data["status"] != "uploaded" {
		t.Errorf("Expected uploaded, got %v", data["status"])
	}

	// 发送客户
	w2 := testutil.DoRequest(env.Router, "POST", base+"/send", nil, pmToken())
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	resp2 := testutil.ParseResponse(w2)
	if resp2["data"].(map[string]interface{})["status"] != "sent_to_client" {
		t.Errorf("Expected sent_to_client, got %v", resp2["data"])
	}

	// 客户以client角色批准
	w3 := testutil.DoRequest(env.Router, "POST", base+"/response",
		map[string]interface{}{
			"outcome":  "approved_with_comments",
			"comments": "接受，注意封边",
		}, clientToken())
	if w3.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w3.Code, w3.Body.String())
	}
	resp3 := testutil.ParseResponse(w3)
	data3 := resp3["data"].(map[string]interface{})
	if data3["status"] != "approved_with_comments" {
		t.Errorf("Expected approved_with_comments, got %v", data3["status"])
	}
	if data3["client_comments"] != "接受，注意封边" {
		t.Errorf("Expected comments persisted, got %v", data3["client_comments"])
	}

	// 图纸详情带修订版历史
	w4 := testutil.DoRequest(env.Router, "GET", base, nil, pmToken())
	if w4.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w4.Code, w4.Body.String())
	}
	resp4 := testutil.ParseResponse(w4)
	revisions := resp4["data"].(map[string]interface{})["revisions"].([]interface{})
	if len(revisions) != 1 {
		t.Errorf("Expected 1 revision, got %d", len(revisions))
	}

	// 操作日志
	w5 := testutil.DoRequest(env.Router, "GET", base+"/activity", nil, pmToken())
	if w5.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w5.Code, w5.Body.String())
	}
	resp5 := testutil.ParseResponse(w5)
	data5 := resp5["data"].(map[string]interface{})
	if data5["total"].(float64) != 3 {
		t.Errorf("Expected 3 log entries, got %v", data5["total"])
	}
}

func TestDrawingErrorCodeMapping(t *testing.T) {
	env, db := setupDrawingTest(t)
	item := seedWorkflowFixture(t, db)
	base := "/api/v1/scope-items/" + item.ID + "/drawing"

	// 未上传就发送 → 422 invalid_transition
	w := testutil.DoRequest(env.Router, "POST", base+"/send", nil, pmToken())
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 42200 {
		t.Errorf("Expected code 42200, got %v", resp["code"])
	}

	// 不存在的范围条目 → 404
	w2 := testutil.DoRequest(env.Router, "POST",
		"/api/v1/scope-items/no-such-item/drawing/revisions",
		map[string]interface{}{"file_ref": "f"}, pmToken())
	if w2.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d: %s", w2.Code, w2.Body.String())
	}

	// production角色上传 → 403
	prodToken := testutil.GenerateTestToken("prod-001", "Shop Floor", "prod@test.com")
	w3 := testutil.DoRequest(env.Router, "POST", base+"/revisions",
		map[string]interface{}{"file_ref": "f"}, prodToken)
	if w3.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d: %s", w3.Code, w3.Body.String())
	}

	// 缺少file_ref → 400
	w4 := testutil.DoRequest(env.Router, "POST", base+"/revisions",
		map[string]interface{}{}, pmToken())
	if w4.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d: %s", w4.Code, w4.Body.String())
	}

	// 无token → 401
	w5 := testutil.DoRequest(env.Router, "POST", base+"/send", nil, "")
	if w5.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d: %s", w5.Code, w5.Body.String())
	}
}

func TestDrawingConfirmationRequiredHTTP(t *testing.T) {
	env, db := setupDrawingTest(t)
	item := seedWorkflowFixture(t, db)
	base := "/api/v1/scope-items/" + item.ID + "/drawing"

	testutil.DoRequest(env.Router, "POST", base+"/revisions",
		map[string]interface{}{"file_ref": "f1"}, pmToken())
	testutil.DoRequest(env.Router, "POST", base+"/send", nil, pmToken())
	testutil.DoRequest(env.Router, "POST", base+"/response",
		map[string]interface{}{"outcome": "approved"}, clientToken())

	// 覆盖已批准且未确认 → 422, 42201
	w := testutil.DoRequest(env.Router, "POST", base+"/revisions",
		map[string]interface{}{"file_ref": "f2"}, pmToken())
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 42201 {
		t.Errorf("Expected code 42201, got %v", resp["code"])
	}

	// 带confirmed重试 → 成功，字母推进到B
	w2 := testutil.DoRequest(env.Router, "POST", base+"/revisions",
		map[string]interface{}{"file_ref": "f2", "confirmed": true}, pmToken())
	if w2.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w2.Code, w2.Body.String())
	}
	resp2 := testutil.ParseResponse(w2)
	if resp2["data"].(map[string]interface{})["current_revision"] != "B" {
		t.Errorf("Expected revision B, got %v", resp2["data"])
	}
}

func TestDrawingPMOverrideHTTP(t *testing.T) {
	env, db := setupDrawingTest(t)
	item := seedWorkflowFixture(t, db)
	base := "/api/v1/scope-items/" + item.ID + "/drawing"

	testutil.DoRequest(env.Router, "POST", base+"/revisions",
		map[string]interface{}{"file_ref": "f1"}, pmToken())
	testutil.DoRequest(env.Router, "POST", base+"/send", nil, pmToken())

	// 原因为空 → 400
	w := testutil.DoRequest(env.Router, "POST", base+"/override",
		map[string]interface{}{}, pmToken())
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty reason, got %d", w.Code)
	}

	w2 := testutil.DoRequest(env.Router, "POST", base+"/override",
		map[string]interface{}{"reason": "客户口头确认"}, pmToken())
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	resp := testutil.ParseResponse(w2)
	data := resp["data"].(map[string]interface{})
	if data["status"] != "approved" {
		t.Errorf("Expected approved, got %v", data["status"])
	}
	if data["pm_override"] != true {
		t.Errorf("Expected pm_override flag, got %v", data["pm_override"])
	}
}

func TestDrawingNotRequiredHTTP(t *testing.T) {
	env, db := setupDrawingTest(t)
	item := seedWorkflowFixture(t, db)
	base := "/api/v1/scope-items/" + item.ID + "/drawing"

	w := testutil.DoRequest(env.Router, "POST", base+"/not-required",
		map[string]interface{}{"reason": "标准成品件"}, pmToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["data"].(map[string]interface{})["status"] != "not_required" {
		t.Errorf("Expected not_required, got %v", resp["data"])
	}

	// 终态后上传 → 422
	w2 := testutil.DoRequest(env.Router, "POST", base+"/revisions",
		map[string]interface{}{"file_ref": "f"}, pmToken())
	if w2.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d: %s", w2.Code, w2.Body.String())
	}
}

func TestProjectDrawingsBoardHTTP(t *testing.T) {
	env, db := setupDrawingTest(t)
	seedWorkflowFixture(t, db)
	item2 := testutil.SeedScopeItem(t, db, "proj-001", "SI-002", "Wall Paneling")

	testutil.DoRequest(env.Router, "POST",
		"/api/v1/scope-items/"+item2.ID+"/drawing/revisions",
		map[string]interface{}{"file_ref": "f1"}, pmToken())

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/projects/proj-001/drawings", nil, pmToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	items := resp["data"].(map[string]interface{})["items"].([]interface{})
	if len(items) != 2 {
		t.Errorf("Expected 2 scope items, got %d", len(items))
	}
}

func TestBulkSendHTTP(t *testing.T) {
	env, db := setupDrawingTest(t)
	item := seedWorkflowFixture(t, db)
	item2 := testutil.SeedScopeItem(t, db, "proj-001", "SI-002", "Wall Paneling")

	// 第一张上传并发送，第二张仅上传
	w0 := testutil.DoRequest(env.Router, "POST",
		"/api/v1/scope-items/"+item.ID+"/drawing/revisions",
		map[string]interface{}{"file_ref": "f1"}, pmToken())
	id1 := testutil.ParseResponse(w0)["data"].(map[string]interface{})["id"].(string)
	testutil.DoRequest(env.Router, "POST",
		"/api/v1/scope-items/"+item.ID+"/drawing/send", nil, pmToken())

	w1 := testutil.DoRequest(env.Router, "POST",
		"/api/v1/scope-items/"+item2.ID+"/drawing/revisions",
		map[string]interface{}{"file_ref": "f2"}, pmToken())
	id2 := testutil.ParseResponse(w1)["data"].(map[string]interface{})["id"].(string)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/projects/proj-001/drawings/send-all",
		map[string]interface{}{"drawing_ids": []string{id1, id2}}, pmToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["sent_count"].(float64) != 1 {
		t.Errorf("Expected 1 sent, got %v", data["sent_count"])
	}
	failures := data["failures"].([]interface{})
	if len(failures) != 1 {
		t.Errorf("Expected 1 failure, got %d", len(failures))
	}
}
