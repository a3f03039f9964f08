package fixture

import (
	"encoding/json"
	"reflect"
	"strconv"
	"sync"

	"github.com/stretchr/testify/require"

	"github.com/ccastromar/qa-forge-fintech/internal/config"
	"github.com/ccastromar/qa-forge-fintech/internal/fintech"
	"github.com/ccastromar/qa-forge-fintech/internal/logx"
	"github.com/ccastromar/qa-forge-fintech/internal/report"
)

// MissingAccountID is used when a registration response carries no accountId.
const MissingAccountID = "MOCK_ID_FAIL"

const defaultPassword = "secure_pass"

type UserData struct {
	Name     string `json:"name"`
	TaxID    string `json:"taxId"`
	Password string `json:"password"`
}

type User struct {
	AccountID string `json:"accountId"`
	UserData
}

// UniqueUserData derives name and CPF from the current Unix time so repeated
// runs do not collide.
func UniqueUserData(c Clock) UserData {
	ts := strconv.FormatInt(c.Now().Unix(), 10)
	return UserData{
		Name:     "Tester " + lastN(ts, 4),
		TaxID:    "111.111.111-" + lastN(ts, 2),
		Password: defaultPassword,
	}
}

// lastN returns the last n bytes of s, or s when it is shorter.
func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// RegisteredUser registers fresh user data with the success scenario and
// returns the account it got. The status code is not checked: a response
// without accountId yields MissingAccountID and the calling case fails on
// its own assertions.
func RegisteredUser(t T, env *Env) User {
	t.Helper()
	data := UniqueUserData(env.Clock)

	var out fintech.RegistrationResponse
	env.Step("Register test user", func() {
		resp, err := env.Client.Register(env.Ctx, data.Name, data.TaxID, data.Password, config.ScenarioRegisterSuccess)
		require.NoError(t, err)
		_, raw, err := fintech.ReadJSON(resp)
		report.AttachJSON(env.Reporter, "Response - Cadastro Usuário", raw)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &out))
	})

	accountID := out.AccountID
	if accountID == "" {
		accountID = MissingAccountID
	}
	return User{AccountID: accountID, UserData: data}
}

// NewCleanupRegistry returns a function collecting account ids. The API has no
// deletion endpoint, so at teardown the ids are attached to the report and a
// skipped-cleanup warning is logged.
func NewCleanupRegistry(t T, env *Env) func(accountID string) {
	t.Helper()
	var (
		mu  sync.Mutex
		ids []string
	)

	t.Cleanup(func() {
		mu.Lock()
		defer mu.Unlock()
		if len(ids) == 0 {
			return
		}
		env.Step("Cleanup test data", func() {
			report.AttachJSON(env.Reporter, "Usuários para Limpeza", ids)
		})
		logx.Warn("Fixture", "%s: cleanup skipped for accounts %v (no delete endpoint)", t.Name(), ids)
	})

	return func(accountID string) {
		mu.Lock()
		ids = append(ids, accountID)
		mu.Unlock()
	}
}

// TestUser registers a user, schedules it for cleanup and returns it.
func TestUser(t T, env *Env) User {
	t.Helper()
	user := RegisteredUser(t, env)
	register := NewCleanupRegistry(t, env)
	register(user.AccountID)

	env.Step("Configure test user", func() {
		report.AttachJSON(env.Reporter, "Dados do Usuário de Teste", user)
	})
	return user
}

// AttachPayloads attaches the request payload and response data, when present.
// Nil and empty values are skipped.
func AttachPayloads(r report.Reporter, request, response any, endpoint, method string) {
	if !isEmpty(request) {
		report.AttachJSON(r, "Request Payload - "+method+" "+endpoint, request)
	}
	if !isEmpty(response) {
		report.AttachJSON(r, "Response Data - "+method+" "+endpoint, response)
	}
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.String:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
