package domain

// OnlineEntry is one connection's contribution to the presence roster.
// Anonymous connections contribute empty ids, matching the handshake
// leniency policy.
type OnlineEntry struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// PresenceFrame is the full-roster replacement broadcast to every live
// connection on each membership change. Duplicates are preserved when a
// user holds several connections.
type PresenceFrame struct {
	Online []OnlineEntry `json:"online"`
}
