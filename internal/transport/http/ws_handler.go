package http

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"kodein-progress-service/internal/app"
)

// WSHandler drives one lesson attempt per websocket connection: the quiz
// transitions (select, reveal, advance) and the completion flow.
type WSHandler struct {
	service  *app.ProgressService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.ProgressService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Option int `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// questionPayload shows the current question without its correct answer.
type questionPayload struct {
	Index    int      `json:"index"`
	Total    int      `json:"total"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Score    int      `json:"score"`
}

type finishedPayload struct {
	Score      int `json:"score"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

type completionPayload struct {
	app.CompletionResult
	Message string `json:"message"`
}

// ServeWS upgrades the request and walks the client through the lesson:
// questions one at a time, then the completion result. Lessons without a quiz
// accept an explicit "complete" message instead.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	lessonID := r.URL.Query().Get("lessonId")
	userID := r.URL.Query().Get("userId")
	if lessonID == "" || userID == "" {
		http.Error(w, "missing lessonId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, err := h.service.StartQuiz(r.Context(), lessonID)
	if err != nil {
		// No quiz content: the lesson completes via an explicit action.
		_ = conn.WriteJSON(outboundMessage[any]{Type: "noQuiz", Payload: struct{}{}})
		session = nil
	} else {
		h.sendQuestion(conn, session)
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		switch inbound.Type {
		case "select":
			if session == nil {
				h.sendError(conn, "lesson has no quiz")
				continue
			}
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, "invalid select payload")
				continue
			}
			if err := session.Select(payload.Option); err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			_ = conn.WriteJSON(outboundMessage[any]{Type: "selected", Payload: selectPayload{Option: payload.Option}})

		case "reveal":
			if session == nil {
				h.sendError(conn, "lesson has no quiz")
				continue
			}
			outcome, err := session.Reveal()
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			_ = conn.WriteJSON(outboundMessage[app.RevealOutcome]{Type: "revealed", Payload: outcome})

		case "advance":
			if session == nil {
				h.sendError(conn, "lesson has no quiz")
				continue
			}
			finished, score, err := session.Advance()
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			if !finished {
				h.sendQuestion(conn, session)
				continue
			}
			_ = conn.WriteJSON(outboundMessage[finishedPayload]{Type: "finished", Payload: finishedPayload{
				Score:      score,
				Total:      session.Total(),
				Percentage: app.Percentage(score, session.Total()),
			}})
			result := h.service.FinishQuiz(r.Context(), userID, lessonID, score, session.Total())
			h.sendCompletion(conn, result)

		case "complete":
			if session != nil {
				h.sendError(conn, "lesson has a quiz; finish it to complete")
				continue
			}
			result := h.service.CompleteLesson(r.Context(), userID, lessonID, nil)
			h.sendCompletion(conn, result)

		default:
			h.sendError(conn, "unsupported message type")
		}
	}
}

func (h *WSHandler) sendQuestion(conn *websocket.Conn, session *app.QuizSession) {
	q := session.Current()
	_ = conn.WriteJSON(outboundMessage[questionPayload]{Type: "question", Payload: questionPayload{
		Index:    session.Index(),
		Total:    session.Total(),
		Question: q.Question,
		Options:  q.Options,
		Score:    session.Score(),
	}})
}

func (h *WSHandler) sendCompletion(conn *websocket.Conn, result app.CompletionResult) {
	_ = conn.WriteJSON(outboundMessage[completionPayload]{Type: "completion", Payload: completionPayload{
		CompletionResult: result,
		Message:          completionMessage(result),
	}})
}

func (h *WSHandler) sendError(conn *websocket.Conn, message string) {
	_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: message}})
}

// completionMessage renders the toast text for each outcome, keeping the
// "saved but partial", "failed entirely" and "already done" states distinct.
func completionMessage(result app.CompletionResult) string {
	switch result.Status {
	case app.StatusCompleted:
		msg := fmt.Sprintf("Lesson selesai! Kamu mendapatkan %d XP.", result.XPReward)
		if result.LeveledUp {
			msg += fmt.Sprintf(" Level up! Sekarang level %d!", result.Award.NewLevel)
		}
		return msg
	case app.StatusRepaired:
		return fmt.Sprintf("Progress sudah tersimpan, XP yang hilang sudah ditambahkan (%d XP).", result.XPReward)
	case app.StatusAlreadyCompleted:
		return "Kamu sudah menyelesaikan lesson ini sebelumnya. XP sudah diberikan."
	case app.StatusQuizFailed:
		return fmt.Sprintf("Kamu menjawab %d dari %d pertanyaan dengan benar (%d%%). Minimal %d benar untuk menyelesaikan lesson.",
			result.Score, result.Total, result.Percentage, result.MinScore)
	case app.StatusXPFailed:
		return "Progress berhasil disimpan, tapi gagal menambahkan XP. XP akan diperbaiki pada kunjungan berikutnya."
	case app.StatusProgressFailed:
		return "Gagal menyimpan progress. Silakan coba lagi."
	default:
		return "Permintaan tidak valid."
	}
}
