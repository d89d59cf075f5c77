// Parallax Watch - prints the tracking state or pose stream from a running parallax
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teslashibe/go-parallax/internal/config"
	"github.com/teslashibe/go-parallax/internal/log"
)

func main() {
	_ = config.LoadDotEnv()

	host := flag.String("host", "localhost:"+config.Port(), "parallax API host:port")
	stream := flag.String("stream", "status", "Stream to watch: status, pose")
	logLevel := flag.String("log-level", config.LogLevel(), "Log level")
	flag.Parse()

	log.Init(*logLevel)

	if *stream != "status" && *stream != "pose" {
		fmt.Fprintf(os.Stderr, "unknown stream %q\n", *stream)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	u := url.URL{Scheme: "ws", Host: *host, Path: "/ws/" + *stream}
	if err := watch(ctx, u.String(), *stream, os.Stdout); err != nil && ctx.Err() == nil {
		log.Error("watch failed", "url", u.String(), "error", err)
		os.Exit(1)
	}
}

// watch prints one line per message until ctx is cancelled or the server
// closes the stream.
func watch(ctx context.Context, wsURL, stream string, out io.Writer) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()
	log.Info("watching", "url", wsURL)

	go func() {
		<-ctx.Done()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		line, err := format(stream, data)
		if err != nil {
			log.Warn("bad message", "error", err)
			continue
		}
		fmt.Fprintln(out, line)
	}
}

type statusMessage struct {
	IsTracking     bool   `json:"is_tracking"`
	IsFaceDetected bool   `json:"is_face_detected"`
	Phase          string `json:"phase"`
	Frame          uint64 `json:"frame"`
	ErrorMessage   string `json:"error_message"`
	FacePosition   struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"face_position"`
}

type poseMessage struct {
	Tick   uint64 `json:"tick"`
	Camera struct {
		Position [3]float64 `json:"position"`
	} `json:"camera"`
	FaceDetected bool `json:"face_detected"`
}

func format(stream string, data []byte) (string, error) {
	switch stream {
	case "pose":
		var m poseMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return "", err
		}
		p := m.Camera.Position
		return fmt.Sprintf("tick=%d camera=(%+.3f, %+.3f, %.3f) face=%v",
			m.Tick, p[0], p[1], p[2], m.FaceDetected), nil
	default:
		var m statusMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return "", err
		}
		line := fmt.Sprintf("%-8s frame=%d face=%v offset=(%+.3f, %+.3f)",
			m.Phase, m.Frame, m.IsFaceDetected, m.FacePosition.X, m.FacePosition.Y)
		if m.ErrorMessage != "" {
			line += " error=" + m.ErrorMessage
		}
		return line, nil
	}
}
