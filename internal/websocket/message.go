package websocket

type OutgoingMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// IncomingMessage 客户端发来的 {event, data}；From 由服务端填入
type IncomingMessage struct {
	From  string `json:"from"`
	Event string `json:"event"`
	Data  any    `json:"data"`
}
