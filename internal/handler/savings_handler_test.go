package handler

import (
	"net/http"
	"strconv"
	"testing"
)

func createProject(t *testing.T, env *testEnv, body string) SavingsProjectResponse {
	t.Helper()
	c, rec := newContext(http.MethodPost, "/api/v1/savings", body)
	err := env.handlers.Savings.CreateProject(c)
	expectStatus(t, err, rec, http.StatusCreated)
	var resp SavingsProjectResponse
	decode(t, rec, &resp)
	return resp
}

func addDeposit(t *testing.T, env *testEnv, projectID string, body string) SavingsTransactionResponse {
	t.Helper()
	c, rec := newContext(http.MethodPost, "/api/v1/savings/"+projectID+"/transactions", body)
	err := env.handlers.Savings.AddTransaction(withParams(c, "id", projectID))
	expectStatus(t, err, rec, http.StatusCreated)
	var resp SavingsTransactionResponse
	decode(t, rec, &resp)
	return resp
}

func TestCreateProject_Success(t *testing.T) {
	env := newTestEnv(false)

	resp := createProject(t, env, `{"title":"New bike","targetAmount":"1200","startDate":"2026-01-01","deadline":"2026-12-31","frequency":"monthly"}`)

	if resp.CurrentAmount != "0.00" {
		t.Errorf("Expected current amount 0.00, got %s", resp.CurrentAmount)
	}
	if resp.Progress != "0.0000" {
		t.Errorf("Expected progress 0.0000, got %s", resp.Progress)
	}
	if resp.StartDate != "2026-01-01" || resp.Deadline != "2026-12-31" {
		t.Errorf("Unexpected dates: %s - %s", resp.StartDate, resp.Deadline)
	}
	if resp.Completed {
		t.Error("Expected new project not to be completed")
	}
}

func TestCreateProject_CustomFrequencyRejected(t *testing.T) {
	env := newTestEnv(false)

	c, rec := newContext(http.MethodPost, "/api/v1/savings", `{"title":"Trip","targetAmount":"500","startDate":"2026-01-01","deadline":"2026-06-30","frequency":"custom"}`)
	err := env.handlers.Savings.CreateProject(c)
	expectStatus(t, err, rec, http.StatusBadRequest)

	var problem ProblemDetails
	decode(t, rec, &problem)
	if len(problem.Errors) != 1 || problem.Errors[0].Field != "frequency" {
		t.Errorf("Expected frequency error, got %+v", problem.Errors)
	}
}

func TestCreateProject_DeadlineBeforeStart(t *testing.T) {
	env := newTestEnv(false)

	c, rec := newContext(http.MethodPost, "/api/v1/savings", `{"title":"Trip","targetAmount":"500","startDate":"2026-06-30","deadline":"2026-01-01","frequency":"weekly"}`)
	err := env.handlers.Savings.CreateProject(c)
	expectStatus(t, err, rec, http.StatusBadRequest)
}

func TestSavingsTransactions_Progress(t *testing.T) {
	env := newTestEnv(false)
	project := createProject(t, env, `{"title":"Laptop","targetAmount":"1000","startDate":"2026-01-01","deadline":"2026-12-31","frequency":"monthly"}`)
	id := strconv.Itoa(int(project.ID))

	addDeposit(t, env, id, `{"amount":"300","date":"2026-03-01"}`)
	first := addDeposit(t, env, id, `{"amount":"150","date":"2026-02-01","note":"  birthday money  "}`)

	if first.Note == nil || *first.Note != "birthday money" {
		t.Errorf("Expected trimmed note, got %v", first.Note)
	}

	c, rec := newContext(http.MethodGet, "/api/v1/savings/"+id+"/progress", "")
	err := env.handlers.Savings.GetProgress(withParams(c, "id", id))
	expectStatus(t, err, rec, http.StatusOK)

	var progress SavingsProgressResponse
	decode(t, rec, &progress)
	if progress.Progress != "0.4500" {
		t.Errorf("Expected progress 0.4500, got %s", progress.Progress)
	}

	c, rec = newContext(http.MethodGet, "/api/v1/savings/"+id+"/transactions", "")
	err = env.handlers.Savings.ListTransactions(withParams(c, "id", id))
	expectStatus(t, err, rec, http.StatusOK)

	var txs []SavingsTransactionResponse
	decode(t, rec, &txs)
	if len(txs) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(txs))
	}
	if txs[0].ID != first.ID {
		t.Errorf("Expected transactions ordered by date, got %+v", txs)
	}

	txID := strconv.Itoa(int(first.ID))
	c, rec = newContext(http.MethodDelete, "/api/v1/savings/transactions/"+txID, "")
	err = env.handlers.Savings.RemoveTransaction(withParams(c, "id", txID))
	expectStatus(t, err, rec, http.StatusNoContent)

	c, rec = newContext(http.MethodGet, "/api/v1/savings/"+id, "")
	err = env.handlers.Savings.GetProject(withParams(c, "id", id))
	expectStatus(t, err, rec, http.StatusOK)

	var resp SavingsProjectResponse
	decode(t, rec, &resp)
	if resp.CurrentAmount != "300.00" {
		t.Errorf("Expected current amount 300.00 after removal, got %s", resp.CurrentAmount)
	}
}

func TestSavingsProgress_ClampedWhenCompleted(t *testing.T) {
	env := newTestEnv(false)
	project := createProject(t, env, `{"title":"Phone","targetAmount":"100","startDate":"2026-01-01","deadline":"2026-12-31","frequency":"weekly"}`)
	id := strconv.Itoa(int(project.ID))

	addDeposit(t, env, id, `{"amount":"150","date":"2026-02-01"}`)

	c, rec := newContext(http.MethodGet, "/api/v1/savings/"+id, "")
	err := env.handlers.Savings.GetProject(withParams(c, "id", id))
	expectStatus(t, err, rec, http.StatusOK)

	var resp SavingsProjectResponse
	decode(t, rec, &resp)
	if resp.Progress != "1.0000" || !resp.Completed {
		t.Errorf("Expected completed project with progress 1.0000, got %+v", resp)
	}
}

func TestAddTransaction_Invalid(t *testing.T) {
	env := newTestEnv(false)
	project := createProject(t, env, `{"title":"Laptop","targetAmount":"1000","startDate":"2026-01-01","deadline":"2026-12-31","frequency":"monthly"}`)
	id := strconv.Itoa(int(project.ID))

	c, rec := newContext(http.MethodPost, "/api/v1/savings/"+id+"/transactions", `{"amount":"0","date":"2026-02-01"}`)
	err := env.handlers.Savings.AddTransaction(withParams(c, "id", id))
	expectStatus(t, err, rec, http.StatusBadRequest)

	c, rec = newContext(http.MethodPost, "/api/v1/savings/99/transactions", `{"amount":"10","date":"2026-02-01"}`)
	err = env.handlers.Savings.AddTransaction(withParams(c, "id", "99"))
	expectStatus(t, err, rec, http.StatusNotFound)
}

func TestListTransactions_ProjectNotFound(t *testing.T) {
	env := newTestEnv(false)

	c, rec := newContext(http.MethodGet, "/api/v1/savings/7/transactions", "")
	err := env.handlers.Savings.ListTransactions(withParams(c, "id", "7"))
	expectStatus(t, err, rec, http.StatusNotFound)
}

func TestUpdateAndDeleteProject(t *testing.T) {
	env := newTestEnv(false)
	project := createProject(t, env, `{"title":"Laptop","targetAmount":"1000","startDate":"2026-01-01","deadline":"2026-12-31","frequency":"monthly"}`)
	id := strconv.Itoa(int(project.ID))
	addDeposit(t, env, id, `{"amount":"250","date":"2026-02-01"}`)

	c, rec := newContext(http.MethodPut, "/api/v1/savings/"+id, `{"title":"Gaming laptop","targetAmount":"2000","startDate":"2026-01-01","deadline":"2027-06-30","frequency":"weekly"}`)
	err := env.handlers.Savings.UpdateProject(withParams(c, "id", id))
	expectStatus(t, err, rec, http.StatusOK)

	var updated SavingsProjectResponse
	decode(t, rec, &updated)
	if updated.Title != "Gaming laptop" || updated.TargetAmount != "2000.00" {
		t.Errorf("Unexpected updated project: %+v", updated)
	}
	if updated.CurrentAmount != "250.00" {
		t.Errorf("Expected current amount to be kept, got %s", updated.CurrentAmount)
	}

	c, rec = newContext(http.MethodDelete, "/api/v1/savings/"+id, "")
	err = env.handlers.Savings.DeleteProject(withParams(c, "id", id))
	expectStatus(t, err, rec, http.StatusNoContent)

	c, rec = newContext(http.MethodGet, "/api/v1/savings", "")
	err = env.handlers.Savings.ListProjects(c)
	expectStatus(t, err, rec, http.StatusOK)

	var projects []SavingsProjectResponse
	decode(t, rec, &projects)
	if len(projects) != 0 {
		t.Errorf("Expected no projects after delete, got %d", len(projects))
	}
}
