package pipeline

import (
	"agentic_report/pkg/core/payload"

	"github.com/google/uuid"
)

// cardNamespace seeds the name-based ids of cards that have no natural key.
var cardNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("agentic-report/visualization-card"))

// Card id prefixes for content-derived ids.
const (
	tableIDPrefix   = "table-"
	chartIDPrefix   = "chart-"
	kpiIDPrefix     = "kpi-"
	mdTableIDPrefix = "md-table-"
	dupontIDPrefix  = "dupont-"
)

// contentID derives a stable id from v's canonical JSON, so the same table or
// chart reaching the handler twice maps to the same card.
func contentID(prefix string, v any) string {
	return prefix + uuid.NewSHA1(cardNamespace, []byte(payload.Stringify(payload.Normalize(v)))).String()
}
