package core

import "time"

// Config watcher config
type Config struct {
	RPC      RPC      `json:"rpc"`
	Program  Program  `json:"program"`
	Listener Listener `json:"listener"`
	Alert    Webhook  `json:"alert"`
}

// RPC solana node endpoints
type RPC struct {
	Endpoint   string `json:"endpoint"`
	WsEndpoint string `json:"ws_endpoint"`
	// processed, confirmed or finalized
	Commitment string `json:"commitment"`
}

// Program marginfi program
type Program struct {
	ID string `json:"id"`
}

// Listener health pulse listener config
type Listener struct {
	// signatures remembered for de-duplication
	CacheSize int `json:"cache_size"`
	// delay before resubscribing after the stream breaks, in seconds
	Reconnect int64 `json:"reconnect"`
}

// ReconnectDelay reconnect delay as duration
func (l Listener) ReconnectDelay() time.Duration {
	return time.Duration(l.Reconnect) * time.Second
}

// Webhook liquidation alert webhook
type Webhook struct {
	URL string `json:"webhook"`
	// request timeout in seconds
	Timeout int64 `json:"timeout"`
}

// RequestTimeout webhook timeout as duration
func (a Webhook) RequestTimeout() time.Duration {
	return time.Duration(a.Timeout) * time.Second
}
