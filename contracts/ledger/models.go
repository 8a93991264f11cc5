package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ContractVersion identifies the schema for ledger events shared across services.
const ContractVersion = "v0.1.0"

// EventType names a ledger state change. The set is closed: consumers may
// switch exhaustively over these values.
type EventType string

const (
	EventCredentialStored    EventType = "credential-stored"
	EventCredentialVerified  EventType = "credential-verified"
	EventCredentialRenewed   EventType = "credential-renewed"
	EventVerifierAdded       EventType = "verifier-added"
	EventVerifierRemoved     EventType = "verifier-removed"
	EventContractPaused      EventType = "contract-paused"
	EventContractUnpaused    EventType = "contract-unpaused"
	EventFeeUpdated          EventType = "fee-updated"
	EventMaxDocumentsUpdated EventType = "max-documents-updated"
)

// StatusUpdatedPayload is the fixed payload carried by pause and unpause events.
const StatusUpdatedPayload = "status-updated"

// Envelope is the wire form of one ledger event. ID is assigned by the ledger
// and increases by exactly one per event, so consumers can detect gaps. Tick
// is the ledger clock value at which the event was emitted.
type Envelope struct {
	ID      uint64    `json:"id"`
	Type    EventType `json:"type"`
	Payload string    `json:"payload"`
	Tick    uint64    `json:"tick"`
}

// CredentialPayload renders the "<identity>:<hash>" payload carried by the
// credential-stored, credential-verified and credential-renewed events.
// Identity is always the credential owner, never the caller.
func CredentialPayload(identity, hash string) string {
	return identity + ":" + hash
}

// SplitCredentialPayload is the inverse of CredentialPayload. The hash part
// never contains ':' so the first separator is unambiguous.
func SplitCredentialPayload(payload string) (identity, hash string, err error) {
	i := strings.LastIndex(payload, ":")
	if i < 0 {
		return "", "", fmt.Errorf("credential payload %q: %w", payload, errMissingSeparator)
	}
	return payload[:i], payload[i+1:], nil
}

// NumericPayload renders the decimal payload carried by fee-updated and
// max-documents-updated events.
func NumericPayload(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// ParseNumericPayload is the inverse of NumericPayload.
func ParseNumericPayload(payload string) (uint64, error) {
	v, err := strconv.ParseUint(payload, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("numeric payload %q: %w", payload, err)
	}
	return v, nil
}

var errMissingSeparator = errors.New("missing ':' separator")
