package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Event is one server-sent message; Data is marshalled to JSON.
type Event struct {
	Name string
	Data interface{}
}

type subscriber chan Event

// Hub fans events out to the streams subscribed to a topic. Topics are
// job ids; a stream with a slow reader drops events rather than blocking
// the publisher.
type Hub struct {
	mu           sync.RWMutex
	topics       map[string]map[subscriber]struct{}
	pingInterval time.Duration
	retryMs      int
}

func NewHub(pingInterval time.Duration) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Hub{
		topics:       make(map[string]map[subscriber]struct{}),
		pingInterval: pingInterval,
		retryMs:      5000,
	}
}

// Publish delivers the event to every stream on the topic.
func (h *Hub) Publish(topic string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.topics[topic] {
		select {
		case sub <- ev:
		default:
		}
	}
}

func (h *Hub) subscribe(topic string) subscriber {
	sub := make(subscriber, 16)
	h.mu.Lock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[subscriber]struct{})
	}
	h.topics[topic][sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) unsubscribe(topic string, sub subscriber) {
	h.mu.Lock()
	if subs := h.topics[topic]; subs != nil {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	h.mu.Unlock()
}

// Serve streams the topic's events until the client disconnects or closeOn
// reports a terminal event. closeOn may be nil for an endless stream.
func (h *Hub) Serve(c *gin.Context, topic string, closeOn func(Event) bool) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}

	fmt.Fprintf(c.Writer, "retry: %d\n\n", h.retryMs)
	flusher.Flush()

	sub := h.subscribe(topic)
	defer h.unsubscribe(topic, sub)

	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			fmt.Fprintf(c.Writer, "event: ping\ndata: {}\n\n")
			flusher.Flush()
		case ev := <-sub:
			data, err := json.Marshal(ev.Data)
			if err != nil {
				continue
			}
			if ev.Name != "" {
				fmt.Fprintf(c.Writer, "event: %s\n", ev.Name)
			}
			fmt.Fprintf(c.Writer, "data: %s\n\n", data)
			flusher.Flush()
			if closeOn != nil && closeOn(ev) {
				return
			}
		}
	}
}
