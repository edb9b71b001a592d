// Package slackapi is a recording stand-in for the Slack Web API and for
// interaction response URLs.
package slackapi

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/aasmall/dice10k-relay/lib/handler"
	"github.com/gorilla/mux"
	"github.com/slack-go/slack"
)

// Call is one request the mock received.
type Call struct {
	// Method is the Web API method, or "response" for a response URL post.
	Method     string
	ResponseID string

	Channel  string
	User     string
	TS       string
	ThreadTS string
	Text     string
	Blocks   string

	ReplaceOriginal bool
	DeleteOriginal  bool
	ResponseType    string
}

// BlockSet decodes the blocks sent with the call.
func (c Call) BlockSet() ([]slack.Block, error) {
	if c.Blocks == "" {
		return nil, nil
	}
	var blocks slack.Blocks
	if err := json.Unmarshal([]byte(c.Blocks), &blocks); err != nil {
		return nil, err
	}
	return blocks.BlockSet, nil
}

// Server records calls and answers like Slack would.
type Server struct {
	Verbose bool

	mu     sync.Mutex
	calls  []Call
	nextTS int
	router *mux.Router
}

func New() *Server {
	s := &Server{}
	r := mux.NewRouter()
	r.Handle("/api/{method}", handler.Handler{Env: s, H: apiHandler}).Methods(http.MethodPost)
	r.Handle("/response/{id}", handler.Handler{Env: s, H: responseHandler}).Methods(http.MethodPost)
	r.Handle("/", handler.Handler{Env: s, H: loggerHandler})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Calls returns a copy of everything recorded so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Methods lists the recorded call methods in order.
func (s *Server) Methods() []string {
	var methods []string
	for _, c := range s.Calls() {
		methods = append(methods, c.Method)
	}
	return methods
}

func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *Server) record(c Call) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTS++
	if c.Method != "chat.update" {
		c.TS = fmt.Sprintf("1700000000.%06d", s.nextTS)
	}
	s.calls = append(s.calls, c)
	if s.Verbose {
		log.Printf("SLACK-SERVER-REQUEST: %+v", c)
	}
	return c.TS
}

func loggerHandler(e interface{}, w http.ResponseWriter, r *http.Request) error {
	w.WriteHeader(http.StatusOK)
	log.Printf("SLACK-SERVER-REQUEST: %+v", r)
	return nil
}

// params reads a Web API request, which slack-go sends either form encoded
// or as JSON.
func params(r *http.Request) (map[string]string, error) {
	out := map[string]string{}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, err
		}
		for k, v := range raw {
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				out[k] = s
				continue
			}
			out[k] = string(v)
		}
		return out, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	for k := range r.PostForm {
		out[k] = r.PostForm.Get(k)
	}
	return out, nil
}

func apiHandler(e interface{}, w http.ResponseWriter, r *http.Request) error {
	s := e.(*Server)
	method := mux.Vars(r)["method"]
	p, err := params(r)
	if err != nil {
		return handler.StatusError{Code: http.StatusBadRequest, Err: err}
	}
	c := Call{
		Method:   method,
		Channel:  p["channel"],
		User:     p["user"],
		TS:       p["ts"],
		ThreadTS: p["thread_ts"],
		Text:     p["text"],
		Blocks:   p["blocks"],
	}

	var resp map[string]interface{}
	switch method {
	case "chat.postMessage":
		ts := s.record(c)
		resp = map[string]interface{}{"ok": true, "channel": c.Channel, "ts": ts}
	case "chat.postEphemeral":
		ts := s.record(c)
		resp = map[string]interface{}{"ok": true, "message_ts": ts}
	case "chat.update":
		s.record(c)
		resp = map[string]interface{}{"ok": true, "channel": c.Channel, "ts": c.TS, "text": c.Text}
	default:
		resp = map[string]interface{}{"ok": false, "error": "unknown_method"}
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(resp)
}

func responseHandler(e interface{}, w http.ResponseWriter, r *http.Request) error {
	s := e.(*Server)
	body, err := ioutil.ReadAll(r.Body)
	if err != nil {
		return handler.StatusError{Code: http.StatusBadRequest, Err: err}
	}
	var msg struct {
		Text            string          `json:"text"`
		Blocks          json.RawMessage `json:"blocks"`
		ReplaceOriginal bool            `json:"replace_original"`
		DeleteOriginal  bool            `json:"delete_original"`
		ResponseType    string          `json:"response_type"`
	}
	if err := json.Unmarshal(body, &msg); err != nil {
		return handler.StatusError{Code: http.StatusBadRequest, Err: err}
	}
	c := Call{
		Method:          "response",
		ResponseID:      mux.Vars(r)["id"],
		Text:            msg.Text,
		ReplaceOriginal: msg.ReplaceOriginal,
		DeleteOriginal:  msg.DeleteOriginal,
		ResponseType:    msg.ResponseType,
	}
	if len(msg.Blocks) > 0 && string(msg.Blocks) != "null" {
		c.Blocks = string(msg.Blocks)
	}
	s.record(c)
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
	return nil
}
