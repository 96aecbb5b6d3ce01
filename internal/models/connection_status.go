package models

// ConnectionStatus is the lifecycle state of a connection.
type ConnectionStatus string

const (
	StatusIdle       ConnectionStatus = "IDLE"
	StatusConnecting ConnectionStatus = "CONNECTING"
	StatusConnected  ConnectionStatus = "CONNECTED"
	StatusFailed     ConnectionStatus = "FAILED"
)

// StatusChange is delivered to status subscribers.
type StatusChange struct {
	ConnectionID string           `json:"connection_id"`
	From         ConnectionStatus `json:"from"`
	To           ConnectionStatus `json:"to"`
	Err          error            `json:"-"`
}
