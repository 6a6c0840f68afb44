package events

import (
	"encoding/json"
	"time"

	contractsv1 "greenloop/contracts/gen/events/v1"
)

// SourceService tags every envelope produced by this process.
const SourceService = "greenloop-token-core"

// New builds a canonical envelope around an already-marshalable payload.
// Align fields with the repository canonical event contract.
func New(eventID string, eventType string, occurredAt time.Time, partitionKey string, payload any) (contractsv1.Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return contractsv1.Envelope{}, err
	}
	return contractsv1.Envelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    occurredAt.UTC(),
		SourceService: SourceService,
		SchemaVersion: 1,
		PartitionKey:  partitionKey,
		Data:          data,
	}, nil
}
