package emailsvc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/services/apiclient"
	logsvc "github.com/trezcool/mahudhurio/services/logger"
)

var (
	from = mail.Address{Name: "Mahudhurio", Address: "noreply@school.test"}
	to   = mail.Address{Name: "Head Office", Address: "office@school.test"}
)

func report() apiclient.Report {
	return apiclient.Report{
		Format:   apiclient.FormatCSV,
		Filename: "attendance_2024-06-01.csv",
		Content:  []byte("id,studentId,date,status\n1,1,2024-06-01,PRESENT\n"),
	}
}

func TestNewReportMessage(t *testing.T) {
	msg, err := NewReportMessage(to, "June report", "See attached.", report())
	require.NoError(t, err)

	assert.True(t, msg.HasRecipients())
	assert.True(t, msg.HasContent())
	if assert.Len(t, msg.Attachments, 1) {
		at := msg.Attachments[0]
		assert.Equal(t, "text/csv", at.ContentType)
		assert.Equal(t, "attendance_2024-06-01.csv", at.Filename)
		decoded, err := base64.StdEncoding.DecodeString(at.Content.String())
		require.NoError(t, err)
		assert.Equal(t, report().Content, decoded)
	}
}

func TestConsoleService_SendMessages(t *testing.T) {
	out := new(bytes.Buffer)
	svc := NewConsoleService("Mahudhurio", from, out)
	msg, err := NewReportMessage(to, "June report", "See attached.", report())
	require.NoError(t, err)

	tests := []struct {
		name     string
		messages []*core.EmailMessage
		wantSent int
	}{
		{name: "no recipients", messages: []*core.EmailMessage{{Subject: "x", TextContent: "y"}}},
		{name: "no content", messages: []*core.EmailMessage{{To: []mail.Address{to}}}},
		{name: "nil message", messages: []*core.EmailMessage{nil}},
		{name: "report", messages: []*core.EmailMessage{msg}, wantSent: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			before := len(svc.Sent())
			require.NoError(t, svc.SendMessages(context.Background(), tt.messages...))
			assert.Equal(t, tt.wantSent, len(svc.Sent())-before)
			if tt.wantSent == 0 {
				assert.Empty(t, out.String())
			}
		})
	}

	body := func() string {
		out.Reset()
		require.NoError(t, svc.SendMessages(context.Background(), msg))
		return out.String()
	}()
	assert.Contains(t, body, "Subject: [Mahudhurio] June report\r\n")
	assert.Contains(t, body, "To: \"Head Office\" <office@school.test>\r\n")
	assert.Contains(t, body, "Content-Type: multipart/mixed; boundary=")
	assert.Contains(t, body, "attachment; filename=attendance_2024-06-01.csv")
}

func TestConsoleService_CanceledContext(t *testing.T) {
	svc := NewConsoleService("Mahudhurio", from, ioutil.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.SendMessages(ctx, &core.EmailMessage{To: []mail.Address{to}, TextContent: "hi"})
	assert.Equal(t, context.Canceled, err)
	assert.Empty(t, svc.Sent())
}

func TestSendgridService_SendMessages(t *testing.T) {
	var (
		gotAuth string
		gotBody map[string]interface{}
		status  = http.StatusAccepted
	)
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(status)
	}))
	defer hs.Close()

	conf := &core.Config{
		AppName:          "Mahudhurio",
		SendgridApiKey:   "SG.test",
		DefaultFromEmail: from,
		API:              core.APIConfig{Timeout: time.Second},
	}
	svc, err := NewSendgridService(conf, hs.URL, logsvc.NewNop())
	require.NoError(t, err)

	msg, err := NewReportMessage(to, "June report", "See attached.", report())
	require.NoError(t, err)
	require.NoError(t, svc.SendMessages(context.Background(), msg))

	assert.Equal(t, "Bearer SG.test", gotAuth)
	personalizations, _ := gotBody["personalizations"].([]interface{})
	if assert.Len(t, personalizations, 1) {
		p := personalizations[0].(map[string]interface{})
		assert.Equal(t, "[Mahudhurio] June report", p["subject"])
	}
	attachments, _ := gotBody["attachments"].([]interface{})
	assert.Len(t, attachments, 1)

	status = http.StatusBadRequest
	assert.Error(t, svc.SendMessages(context.Background(), msg))
}

func TestSendgridService_ContextCancelsRequest(t *testing.T) {
	hang := make(chan struct{})
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-hang:
		case <-r.Context().Done():
		}
	}))
	defer hs.Close()
	defer close(hang)

	conf := &core.Config{
		AppName:          "Mahudhurio",
		SendgridApiKey:   "SG.test",
		DefaultFromEmail: from,
		API:              core.APIConfig{Timeout: 10 * time.Second},
	}
	svc, err := NewSendgridService(conf, hs.URL, logsvc.NewNop())
	require.NoError(t, err)
	msg, err := NewReportMessage(to, "June report", "See attached.", report())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	assert.Error(t, svc.SendMessages(ctx, msg))
	assert.Less(t, int64(time.Since(start)), int64(5*time.Second), "the request outlived its context")
}

func TestNewSendgridService_RequiresKey(t *testing.T) {
	_, err := NewSendgridService(&core.Config{}, "", logsvc.NewNop())
	assert.Error(t, err)
}

func TestNew_PicksConsoleWithoutKey(t *testing.T) {
	svc, err := New(&core.Config{AppName: "Mahudhurio", DefaultFromEmail: from}, logsvc.NewNop())
	require.NoError(t, err)
	_, ok := svc.(*ConsoleService)
	assert.True(t, ok)
}
