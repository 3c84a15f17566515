package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/shopfront/internal/catalog"
	"github.com/abgdnv/shopfront/pkg/messaging"
	"github.com/google/uuid"
)

// FiltersChangedEvent is emitted after a session commits new filter criteria.
type FiltersChangedEvent struct {
	SessionID uuid.UUID        `json:"session_id"`
	Criteria  catalog.Criteria `json:"criteria"`
	Location  string           `json:"location"`
	Matches   int              `json:"matches"`
	ChangedAt time.Time        `json:"changed_at"`
}

func (e FiltersChangedEvent) Subject() string {
	return messaging.FiltersChangedSubject
}

func (e FiltersChangedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
