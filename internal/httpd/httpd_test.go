package httpd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})    {}
func (nopLogger) Success(string, ...interface{}) {}
func (nopLogger) Warning(string, ...interface{}) {}
func (nopLogger) Error(string, ...interface{})   {}
func (nopLogger) Debug(string, ...interface{})   {}
func (nopLogger) ChannelMessage(_, _, _ string)  {}

func TestStatusEndpoint(t *testing.T) {
	server := New("127.0.0.1", 0, nopLogger{}, func() Status {
		return Status{
			Nick:          "botologist",
			Version:       "test",
			UptimeSeconds: 42,
			Channels: []ChannelStatus{
				{Name: "#chan", Users: 2, Nicks: []string{"alice", "bob"}},
			},
		}
	})

	rec := httptest.NewRecorder()
	server.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got Status
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Nick != "botologist" || got.UptimeSeconds != 42 {
		t.Errorf("got %+v", got)
	}
	if len(got.Channels) != 1 || got.Channels[0].Users != 2 {
		t.Errorf("channels = %+v", got.Channels)
	}
}

func TestStatusRejectsNonGet(t *testing.T) {
	server := New("127.0.0.1", 0, nopLogger{}, func() Status { return Status{} })

	rec := httptest.NewRecorder()
	server.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/status", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
