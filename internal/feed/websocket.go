package feed

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Identity and origin are handled by the session collaborator upstream.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// ServeWS upgrades the request to a websocket and streams feed events for the
// given match until the client disconnects.
func ServeWS(notifier Notifier, matchID string, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade feed connection", "error", err, "matchID", matchID)
		return
	}
	defer conn.Close()

	events, cancel := notifier.Subscribe(matchID)
	defer cancel()

	log.Info("Feed subscriber connected", "matchID", matchID, "remote", conn.RemoteAddr())

	// Reader goroutine: we never expect client frames, but reading is what
	// surfaces the close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				log.Debug("Feed write failed, dropping subscriber", "matchID", matchID, "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			log.Info("Feed subscriber disconnected", "matchID", matchID)
			return
		}
	}
}
