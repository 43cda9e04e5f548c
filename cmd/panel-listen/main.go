package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// panel-listen connects to the adbvolume web panel and prints every press
// outcome it broadcasts. With -press it sends one click first.

// outcomeEvent mirrors the panel's outbound envelope.
type outcomeEvent struct {
	Type string    `json:"type"`
	Ts   time.Time `json:"ts"`
	Data struct {
		Direction string `json:"direction"`
		Source    string `json:"source"`
	} `json:"data"`
}

func main() {
	var (
		wsURL = flag.String("ws", "ws://127.0.0.1:8765/ws", "adbvolume panel websocket URL")
		press = flag.String("press", "", "Send one press (up|down) after connecting")
	)
	flag.Parse()

	u, err := url.Parse(*wsURL)
	if err != nil {
		log.Fatalf("invalid websocket URL: %v", err)
	}
	if *press != "" && *press != "up" && *press != "down" {
		log.Fatalf("-press must be up or down")
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	d := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	log.Printf("connecting to %s...", u.String())
	conn, _, err := d.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("connected! (press Ctrl+C to exit)")

	// Serializes writes: pings and the optional press share the connection.
	var writeMu sync.Mutex

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second))
	})

	if *press != "" {
		sendPress(conn, &writeMu, *press)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("websocket error: %v", err)
				}
				return
			}
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			if messageType == websocket.TextMessage {
				handleTextMessage(message)
			}
		}
	}()

	select {
	case <-sigc:
		log.Printf("shutting down...")
		writeMu.Lock()
		err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		writeMu.Unlock()
		if err != nil {
			log.Printf("error closing connection: %v", err)
		}
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	case <-done:
		log.Printf("connection closed")
	}
}

func handleTextMessage(message []byte) {
	var ev outcomeEvent
	if err := json.Unmarshal(message, &ev); err != nil || ev.Type == "" {
		fmt.Printf("[TEXT] %s\n", string(message))
		return
	}

	switch ev.Type {
	case "press_accepted":
		fmt.Printf("%s [ACCEPTED] %-4s from %s\n", ev.Ts.Local().Format("15:04:05.000"), ev.Data.Direction, ev.Data.Source)
	case "press_dropped":
		fmt.Printf("%s [DROPPED]  %-4s from %s\n", ev.Ts.Local().Format("15:04:05.000"), ev.Data.Direction, ev.Data.Source)
	default:
		fmt.Printf("[%s] %s\n", ev.Type, string(message))
	}
}

func sendPress(conn *websocket.Conn, writeMu *sync.Mutex, direction string) {
	payload, err := json.Marshal(map[string]any{
		"type": "press",
		"data": map[string]string{"direction": direction},
	})
	if err != nil {
		log.Printf("error marshaling press: %v", err)
		return
	}

	writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, payload)
	writeMu.Unlock()

	if err != nil {
		log.Printf("error sending press: %v", err)
	}
}
