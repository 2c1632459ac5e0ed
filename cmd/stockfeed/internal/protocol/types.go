package protocol

const (
	ActionSubscribe      = "subscribe"
	ActionUnsubscribe    = "unsubscribe"
	ActionUnsubscribeAll = "unsubscribe_all"
	ActionGetStockData   = "get stock data"
)

const (
	EventAck         = "ack"
	EventError       = "error"
	EventPriceUpdate = "stock price update"
	EventStockData   = "stock data"
)

const MsgStockNotFound = "Stock not found"

type WSRequest struct {
	Action  string         `json:"action"`
	Payload RequestPayload `json:"payload"`
	ID      string         `json:"id,omitempty"`
}

// RequestPayload carries Symbols for (un)subscribe and TickerSymbol for
// "get stock data". A subscribe without symbols covers every ticker.
type RequestPayload struct {
	Symbols      []string `json:"symbols,omitempty"`
	TickerSymbol string   `json:"tickerSymbol,omitempty"`
}

type WSResponse struct {
	Type    string      `json:"type"`             // "ack", "error", "stock price update", "stock data"
	ID      string      `json:"id,omitempty"`     // Matches request ID
	Status  string      `json:"status,omitempty"` // "success", "error"
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
