package fintech

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Response bodies as returned by the mock. Fields absent from a given
// scenario decode to their zero value; use ReadJSON when presence matters.
type (
	RegistrationResponse struct {
		AccountID string `json:"accountId"`
	}

	FailureResponse struct {
		Status    string `json:"status"`
		Message   string `json:"message,omitempty"`
		ErrorCode string `json:"errorCode,omitempty"`
	}
)

const (
	StatusSuccess         = "SUCCESS"
	StatusBusinessFailure = "BUSINESS_FAILURE"
	StatusError           = "ERROR"
)

// ReadJSON drains and closes resp.Body, returning both the decoded object and
// the raw bytes.
func ReadJSON(resp *http.Response) (map[string]any, []byte, error) {
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, raw, fmt.Errorf("parsing JSON (status %d): %w", resp.StatusCode, err)
	}
	return out, raw, nil
}
