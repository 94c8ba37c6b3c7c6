package appointments

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins — adjust for production if needed
		return true
	},
}

var (
	subscribers = make(map[string][]*websocket.Conn)
	mu          sync.Mutex
)

type wsMessage struct {
	Type     string `json:"type"`
	MentorID string `json:"mentorId"`
}

// HandleWS subscribes a client to booking updates for one mentor. Clients
// use it to refresh slot availability without polling.
func HandleWS(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	mentorID := ps.ByName("mentorid")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "WebSocket upgrade failed", http.StatusBadRequest)
		return
	}

	mu.Lock()
	subscribers[mentorID] = append(subscribers[mentorID], conn)
	mu.Unlock()

	for {
		// Keeps the connection alive until the client disconnects
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	// Clean up on disconnect
	mu.Lock()
	conns := subscribers[mentorID]
	newList := make([]*websocket.Conn, 0, len(conns))
	for _, c := range conns {
		if c != conn {
			newList = append(newList, c)
		}
	}
	subscribers[mentorID] = newList
	mu.Unlock()

	conn.Close()
}

func broadcastUpdate(mentorID string) {
	data, _ := json.Marshal(wsMessage{Type: "update", MentorID: mentorID})

	mu.Lock()
	defer mu.Unlock()

	conns := subscribers[mentorID]
	newList := conns[:0]
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err == nil {
			newList = append(newList, conn)
		} else {
			conn.Close()
		}
	}
	subscribers[mentorID] = newList
}
