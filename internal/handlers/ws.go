package handlers

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/taskforge-dev/taskforge/db"
	"github.com/taskforge-dev/taskforge/internal/access"
	"github.com/taskforge-dev/taskforge/internal/utils"
)

var (
	projectClients   = make(map[string]map[*websocket.Conn]bool)
	projectClientsMu sync.RWMutex
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// BroadcastProjectEvent notifies every socket subscribed to the project that
// something changed. eventType is one of project_updated, project_deleted,
// task_created, task_updated, task_deleted.
func BroadcastProjectEvent(projectID string, eventType string) {
	projectClientsMu.RLock()
	clients, exists := projectClients[projectID]
	if !exists || len(clients) == 0 {
		projectClientsMu.RUnlock()
		return
	}

	clientsCopy := make([]*websocket.Conn, 0, len(clients))
	for conn := range clients {
		clientsCopy = append(clientsCopy, conn)
	}
	projectClientsMu.RUnlock()

	for _, conn := range clientsCopy {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			log.Printf("Failed to set write deadline for broadcast: %v", err)
			continue
		}

		err := conn.WriteJSON(map[string]string{
			"type":       eventType,
			"project_id": projectID,
		})

		if err != nil {
			log.Printf("Failed to broadcast %s to client: %v", eventType, err)
			unregisterClient(projectID, conn)
			conn.Close()
		}
	}
}

func unregisterClient(projectID string, conn *websocket.Conn) {
	projectClientsMu.Lock()
	defer projectClientsMu.Unlock()

	if clients, exists := projectClients[projectID]; exists {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(projectClients, projectID)
		}
	}
}

// WebSocketHandler upgrades the connection after verifying the caller owns the
// project; a foreign project gets the same 404 as the REST surface.
func WebSocketHandler(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := utils.GetCurrentUserID(c)

		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		projectID, err := utils.GetProjectID(c)

		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}

		if _, err := access.FindOwnedProject(db.DB, userID, projectID); err != nil {
			abortNotFound(c, err)
			return
		}

		upgrader := websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		conn.SetReadLimit(maxMessageSize)
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Failed to set initial read deadline: %v", err)
			return
		}
		conn.SetPongHandler(func(string) error {
			if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
				log.Printf("Failed to set read deadline in pong handler: %v", err)
			}
			return nil
		})

		projectClientsMu.Lock()
		if projectClients[projectID] == nil {
			projectClients[projectID] = make(map[*websocket.Conn]bool)
		}
		projectClients[projectID][conn] = true
		projectClientsMu.Unlock()

		done := make(chan struct{})

		defer func() {
			close(done)
			unregisterClient(projectID, conn)
			conn.Close()
			log.Printf("WebSocket connection closed for project %s", projectID)
		}()

		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			log.Printf("Failed to set write deadline for welcome message: %v", err)
			return
		}

		err = conn.WriteJSON(map[string]string{
			"type":       "connected",
			"project_id": projectID,
		})

		if err != nil {
			log.Printf("Failed to send welcome message: %v", err)
			return
		}

		// The ping loop must not outlive the handler: a stopped ticker never
		// closes its channel, so the done channel ends the goroutine instead.
		go func() {
			ticker := time.NewTicker(pingPeriod)
			defer ticker.Stop()

			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
						log.Printf("Failed to set write deadline for project %s: %v", projectID, err)
						return
					}
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						return
					}
				}
			}
		}()

		for {
			if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
				log.Printf("Failed to set read deadline for project %s: %v", projectID, err)
				break
			}

			_, _, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("WebSocket error for project %s: %v", projectID, err)
				}
				break
			}
		}
	}
}
