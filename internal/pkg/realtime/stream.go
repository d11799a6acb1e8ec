package realtime

import (
	"bufio"
	"encoding/json"
	"time"
)

// HeartbeatInterval keeps idle proxies from closing the stream.
const HeartbeatInterval = 25 * time.Second

// WriteEvent writes one SSE "change" frame and flushes it.
func WriteEvent(w *bufio.Writer, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if _, err := w.WriteString("event: change\ndata: "); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := w.WriteString("\n\n"); err != nil {
		return err
	}
	return w.Flush()
}

func writeComment(w *bufio.Writer, text string) error {
	if _, err := w.WriteString(":" + text + "\n\n"); err != nil {
		return err
	}
	return w.Flush()
}

// Pump streams sub to w until the subscription closes or a write fails,
// which is how a disconnected client shows up. It always unsubscribes.
func (h *Hub) Pump(sub *Subscription, w *bufio.Writer, heartbeat time.Duration) {
	defer h.Unsubscribe(sub)

	if err := writeComment(w, "ok"); err != nil {
		return
	}

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case evt, ok := <-sub.C:
			if !ok {
				return
			}
			if err := WriteEvent(w, evt); err != nil {
				return
			}
		case <-ticker.C:
			if err := writeComment(w, "ping"); err != nil {
				return
			}
		}
	}
}
