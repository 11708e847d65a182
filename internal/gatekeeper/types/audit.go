package types

type AuditRecordPayload struct {
	ID        string            `json:"id"`
	Event     string            `json:"event"`
	CardID    string            `json:"card_id"`
	Location  string            `json:"location,omitempty"`
	ActorID   string            `json:"actor_id,omitempty"`
	Outcome   bool              `json:"outcome"`
	Timestamp string            `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
}

type HistoryResponse struct {
	OK      bool                 `json:"ok"`
	Records []AuditRecordPayload `json:"records"`
}
