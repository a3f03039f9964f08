package api

import (
	"testing"

	"github.com/ccastromar/qa-forge-fintech/internal/suite"
)

func caseNamed(t *testing.T, name string) suite.Case {
	t.Helper()
	for _, c := range suite.Cases {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("case %s not registered", name)
	return suite.Case{}
}

// --- Consulta e cadastro ---

func Test01_BalanceOfRegisteredUser(t *testing.T) {
	runCase(t, caseNamed(t, "test_01_balance_of_registered_user"))
}

func Test02_RegistrationWithDuplicateCPFFails(t *testing.T) {
	runCase(t, caseNamed(t, "test_02_registration_with_duplicate_cpf_fails"))
}

// --- Transferência ---

func Test03_TransferSucceeds(t *testing.T) {
	runCase(t, caseNamed(t, "test_03_transfer_succeeds"))
}

func Test04_TransferWithInsufficientBalanceFails(t *testing.T) {
	runCase(t, caseNamed(t, "test_04_transfer_with_insufficient_balance_fails"))
}

func Test05_BalanceOfUnknownAccount(t *testing.T) {
	runCase(t, caseNamed(t, "test_05_balance_of_unknown_account"))
}

func Test06_TransferToUnknownDestinationFails(t *testing.T) {
	runCase(t, caseNamed(t, "test_06_transfer_to_unknown_destination_fails"))
}

func Test07_SameScenarioIsIdempotent(t *testing.T) {
	runCase(t, caseNamed(t, "test_07_same_scenario_is_idempotent"))
}

func TestEveryCaseHasAGoTest(t *testing.T) {
	if len(suite.Cases) != 7 {
		t.Fatalf("expected 7 cases, got %d", len(suite.Cases))
	}
}
