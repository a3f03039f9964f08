// Package suite holds the API cases. Each case asserts through testify's
// require against a fixture.T, so the same code runs under go test and under
// the fintech-smoke runner.
package suite

import (
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccastromar/qa-forge-fintech/internal/config"
	"github.com/ccastromar/qa-forge-fintech/internal/fintech"
	"github.com/ccastromar/qa-forge-fintech/internal/fixture"
	"github.com/ccastromar/qa-forge-fintech/internal/report"
)

const (
	featureBalance      = "Consulta de Saldo"
	featureRegistration = "Cadastro de Usuário"
	featureTransfer     = "Transferência"
)

// Markers the mock responses are expected to contain.
const (
	DuplicateTaxIDMarker      = "CPF já cadastrado"
	TransactionIDMarker       = "T-QA"
	InsufficientBalanceCode   = "ERR-SALDO-001"
	AccountNotFoundMarker     = "não encontrada"
	DestinationMissingMarker  = "destino não existe"
	NonExistentAccountID      = "00000"
	DuplicateTaxID            = "111.111.111-11"
	DefaultDestinationAccount = "45678"
)

type Case struct {
	Name    string
	Feature string
	Story   string
	Run     func(t fixture.T, env *fixture.Env)
}

func (c Case) Labels() []report.Label {
	return []report.Label{report.Suite("fintech-api"), report.Feature(c.Feature), report.Story(c.Story)}
}

// Cases lists every case in execution order.
var Cases = []Case{
	{"test_01_balance_of_registered_user", featureBalance, "Consulta de saldo de usuário cadastrado", BalanceOfRegisteredUser},
	{"test_02_registration_with_duplicate_cpf_fails", featureRegistration, "Validação de CPF duplicado", RegistrationWithDuplicateTaxIDFails},
	{"test_03_transfer_succeeds", featureTransfer, "Transferência com sucesso", TransferSucceeds},
	{"test_04_transfer_with_insufficient_balance_fails", featureTransfer, "Transferência com saldo insuficiente", TransferWithInsufficientBalanceFails},
	{"test_05_balance_of_unknown_account", featureBalance, "Consulta de conta inexistente", BalanceOfUnknownAccount},
	{"test_06_transfer_to_unknown_destination_fails", featureTransfer, "Transferência para conta destino inexistente", TransferToUnknownDestinationFails},
	{"test_07_same_scenario_is_idempotent", featureTransfer, "Respostas idênticas por cenário", SameScenarioIsIdempotent},
}

// readBody decodes resp and fails the case when the body is not a JSON object.
func readBody(t fixture.T, resp *http.Response) map[string]any {
	t.Helper()
	data, raw, err := fintech.ReadJSON(resp)
	require.NoError(t, err, "response body is not JSON: %s", raw)
	return data
}

func requireFields(t fixture.T, data map[string]any, fields ...string) {
	t.Helper()
	for _, f := range fields {
		require.Contains(t, data, f, "field %q missing from response %v", f, data)
	}
}

func requireString(t fixture.T, data map[string]any, field string) string {
	t.Helper()
	s, ok := data[field].(string)
	require.True(t, ok, "%s must be a string, got %T", field, data[field])
	return s
}

// BalanceOfRegisteredUser checks that the fixture account can be queried.
func BalanceOfRegisteredUser(t fixture.T, env *fixture.Env) {
	user := fixture.TestUser(t, env)

	var accountID string
	env.Step("Arrange - Preparar dados do teste", func() {
		accountID = user.AccountID
		report.AttachText(env.Reporter, "Conta ID", accountID)
	})

	var (
		status int
		data   map[string]any
	)
	env.Step("Act - Consultar saldo da conta", func() {
		resp, err := env.Client.GetBalance(env.Ctx, accountID, config.ScenarioBalanceFound)
		require.NoError(t, err)
		status = resp.StatusCode
		data = readBody(t, resp)
		fixture.AttachPayloads(env.Reporter, map[string]any{"accountId": accountID}, data, "/balance", http.MethodGet)
	})

	env.Step("Assert - Validar resposta de sucesso", func() {
		require.Equal(t, http.StatusOK, status, "expected status 200, got %d", status)
		requireFields(t, data, "accountId", "balance")

		require.Equal(t, accountID, data["accountId"])
		balance, ok := data["balance"].(float64)
		require.True(t, ok, "balance must be numeric, got %T", data["balance"])
		require.GreaterOrEqual(t, balance, 0.0)
	})
}

// RegistrationWithDuplicateTaxIDFails checks the duplicate CPF business rule.
func RegistrationWithDuplicateTaxIDFails(t fixture.T, env *fixture.Env) {
	var req fintech.RegistrationRequest
	env.Step("Arrange - Preparar dados de cadastro com CPF duplicado", func() {
		req = fintech.RegistrationRequest{Name: "Duplicado", TaxID: DuplicateTaxID, Password: "dupsenha"}
		report.AttachJSON(env.Reporter, "Dados de Cadastro", req)
	})

	var (
		status int
		data   map[string]any
	)
	env.Step("Act - Tentar cadastrar usuário com CPF duplicado", func() {
		resp, err := env.Client.Register(env.Ctx, req.Name, req.TaxID, req.Password, config.ScenarioRegisterDuplicateCPF)
		require.NoError(t, err)
		status = resp.StatusCode
		data = readBody(t, resp)
		fixture.AttachPayloads(env.Reporter, req, data, fintech.PathRegistration, http.MethodPost)
	})

	env.Step("Assert - Validar erro de CPF duplicado", func() {
		require.Equal(t, http.StatusConflict, status, "expected status 409, got %d", status)
		requireFields(t, data, "status", "message")

		require.Equal(t, fintech.StatusBusinessFailure, data["status"])
		msg := requireString(t, data, "message")
		require.Contains(t, msg, DuplicateTaxIDMarker)
	})
}

// TransferSucceeds is the main transfer happy path.
func TransferSucceeds(t fixture.T, env *fixture.Env) {
	user := fixture.TestUser(t, env)

	var req fintech.TransferRequest
	env.Step("Arrange - Preparar dados da transferência", func() {
		req = fintech.TransferRequest{SourceAccountID: user.AccountID, DestinationAccountID: DefaultDestinationAccount, Amount: 100.00}
		report.AttachJSON(env.Reporter, "Dados da Transferência", req)
	})

	var (
		status int
		data   map[string]any
	)
	env.Step("Act - Realizar transferência", func() {
		resp, err := env.Client.Transfer(env.Ctx, req.SourceAccountID, req.DestinationAccountID, req.Amount, config.ScenarioTransferSuccess)
		require.NoError(t, err)
		status = resp.StatusCode
		data = readBody(t, resp)
		fixture.AttachPayloads(env.Reporter, req, data, fintech.PathTransfer, http.MethodPost)
	})

	env.Step("Assert - Validar sucesso da transferência", func() {
		require.Equal(t, http.StatusOK, status, "expected status 200, got %d", status)
		requireFields(t, data, "status", "transactionId")

		require.Equal(t, fintech.StatusSuccess, data["status"])
		txID := requireString(t, data, "transactionId")
		require.NotEmpty(t, txID)
		require.Contains(t, txID, TransactionIDMarker)
	})
}

// TransferWithInsufficientBalanceFails checks the insufficient balance rule.
func TransferWithInsufficientBalanceFails(t fixture.T, env *fixture.Env) {
	var req fintech.TransferRequest
	env.Step("Arrange - Preparar dados de transferência com valor alto", func() {
		req = fintech.TransferRequest{SourceAccountID: "999", DestinationAccountID: "888", Amount: 10000.00}
		report.AttachJSON(env.Reporter, "Dados da Transferência", req)
	})

	var (
		status int
		data   map[string]any
	)
	env.Step("Act - Tentar transferência com saldo insuficiente", func() {
		resp, err := env.Client.Transfer(env.Ctx, req.SourceAccountID, req.DestinationAccountID, req.Amount, config.ScenarioTransferInsufficient)
		require.NoError(t, err)
		status = resp.StatusCode
		data = readBody(t, resp)
		fixture.AttachPayloads(env.Reporter, req, data, fintech.PathTransfer, http.MethodPost)
	})

	env.Step("Assert - Validar erro de saldo insuficiente", func() {
		require.Equal(t, http.StatusBadRequest, status, "expected status 400, got %d", status)
		requireFields(t, data, "status", "errorCode")

		require.Equal(t, fintech.StatusBusinessFailure, data["status"])
		require.Equal(t, InsufficientBalanceCode, requireString(t, data, "errorCode"))

		// message is optional on this scenario
		if _, ok := data["message"]; ok {
			msg, isString := data["message"].(string)
			assert.True(t, isString, "message must be a string, got %T", data["message"])
			assert.NotEmpty(t, msg)
		}
	})
}

// BalanceOfUnknownAccount expects 404 for an account that does not exist.
func BalanceOfUnknownAccount(t fixture.T, env *fixture.Env) {
	accountID := NonExistentAccountID
	env.Step("Arrange - Preparar conta inexistente", func() {
		report.AttachText(env.Reporter, "Conta ID Inexistente", accountID)
	})

	var (
		status int
		data   map[string]any
	)
	env.Step("Act - Consultar saldo de conta inexistente", func() {
		resp, err := env.Client.GetBalance(env.Ctx, accountID, config.ScenarioBalanceNotFound)
		require.NoError(t, err)
		status = resp.StatusCode
		data = readBody(t, resp)
		fixture.AttachPayloads(env.Reporter, map[string]any{"accountId": accountID}, data, "/balance", http.MethodGet)
	})

	env.Step("Assert - Validar erro 404", func() {
		require.Equal(t, http.StatusNotFound, status, "expected status 404, got %d", status)
		require.Equal(t, fintech.StatusError, data["status"])
		require.Contains(t, requireString(t, data, "message"), AccountNotFoundMarker)
	})
}

// TransferToUnknownDestinationFails expects 404 when the destination is not
// registered.
func TransferToUnknownDestinationFails(t fixture.T, env *fixture.Env) {
	user := fixture.TestUser(t, env)

	var req fintech.TransferRequest
	env.Step("Arrange - Preparar dados da transferência com destino inexistente", func() {
		req = fintech.TransferRequest{SourceAccountID: user.AccountID, DestinationAccountID: NonExistentAccountID, Amount: 50.00}
		report.AttachJSON(env.Reporter, "Dados da Transferência", req)
	})

	var (
		status int
		data   map[string]any
	)
	env.Step("Act - Tentar transferência para conta destino inexistente", func() {
		resp, err := env.Client.Transfer(env.Ctx, req.SourceAccountID, req.DestinationAccountID, req.Amount, config.ScenarioTransferUnknownTarget)
		require.NoError(t, err)
		status = resp.StatusCode
		data = readBody(t, resp)
		fixture.AttachPayloads(env.Reporter, req, data, fintech.PathTransfer, http.MethodPost)
	})

	env.Step("Assert - Validar erro 404", func() {
		require.Equal(t, http.StatusNotFound, status, "expected status 404, got %d", status)
		require.Equal(t, fintech.StatusError, data["status"])
		require.Contains(t, requireString(t, data, "message"), DestinationMissingMarker)
	})
}

// SameScenarioIsIdempotent sends one scenario-tagged request twice and
// expects byte-identical answers.
func SameScenarioIsIdempotent(t fixture.T, env *fixture.Env) {
	send := func() (int, []byte) {
		resp, err := env.Client.Transfer(env.Ctx, "999", "888", 10000.00, config.ScenarioTransferInsufficient)
		require.NoError(t, err)
		_, raw, err := fintech.ReadJSON(resp)
		require.NoError(t, err)
		return resp.StatusCode, raw
	}

	var (
		s1, s2 int
		b1, b2 []byte
	)
	env.Step("Act - Enviar o mesmo cenário duas vezes", func() {
		s1, b1 = send()
		s2, b2 = send()
		report.AttachJSON(env.Reporter, "Primeira resposta", b1)
	})

	env.Step("Assert - Respostas idênticas", func() {
		require.Equal(t, s1, s2)
		require.Equal(t, string(b1), string(b2))
	})
}
