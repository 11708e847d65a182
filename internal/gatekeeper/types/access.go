package types

type AccessRequest struct {
	FacadeID    string `json:"facade_id"`
	Floor       string `json:"floor"`
	Room        string `json:"room,omitempty"`
	Token       string `json:"token"`
	RequestedAt string `json:"requested_at,omitempty"` // optional client timestamp
}

type AccessResponse struct {
	OK         bool   `json:"ok"`
	Granted    bool   `json:"granted"`
	Reason     string `json:"reason,omitempty"`
	Floor      string `json:"floor"`
	ServerTime string `json:"server_time"`
}
