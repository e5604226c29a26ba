package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	events []MailEvent
	err    error
}

func (m *recordingMailer) Send(_ context.Context, event MailEvent) error {
	m.events = append(m.events, event)
	return m.err
}

func TestConsumer_Handle(t *testing.T) {
	mailer := &recordingMailer{}
	c := NewConsumer("amqp://unused", "", mailer)

	body := []byte(`{"type":"contact_message","to":["info@tolk.nl"],"subject":"Vraag","data":{"sender_name":"Anna"}}`)
	require.NoError(t, c.Handle(context.Background(), body))

	require.Len(t, mailer.events, 1)
	assert.Equal(t, EventContactMessage, mailer.events[0].Type)
	assert.Equal(t, "Anna", mailer.events[0].Data["sender_name"])
	assert.Equal(t, DefaultQueue, c.queue)
}

func TestConsumer_Handle_Invalid(t *testing.T) {
	mailer := &recordingMailer{}
	c := NewConsumer("amqp://unused", "mail.test", mailer)

	assert.Error(t, c.Handle(context.Background(), []byte("not json")))
	assert.Error(t, c.Handle(context.Background(), []byte(`{"type":"verify_email"}`)))
	assert.Empty(t, mailer.events)
}

func TestConsumer_Handle_MailerError(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("smtp down")}
	c := NewConsumer("amqp://unused", "", mailer)

	err := c.Handle(context.Background(), []byte(`{"type":"verify_email","to":["a@b.nl"]}`))
	assert.EqualError(t, err, "smtp down")
}

func TestRender(t *testing.T) {
	body, err := Render(MailEvent{
		Type: EventTicketStatus,
		Data: map[string]interface{}{"ticket_number": "TKT-20260101-0001", "old_status": "new", "new_status": "closed"},
	})
	require.NoError(t, err)
	assert.Contains(t, body, "TKT-20260101-0001")
	assert.Contains(t, body, "van new naar closed")

	_, err = Render(MailEvent{Type: "unknown"})
	assert.Error(t, err)
}

func TestLogMailer_Send(t *testing.T) {
	m := NewLogMailer()
	err := m.Send(context.Background(), MailEvent{
		Type: EventPasswordReset,
		To:   []string{"a@b.nl"},
		Data: map[string]interface{}{"reset_url": "https://lingora.nl/reset?token=x"},
	})
	assert.NoError(t, err)
}

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, 2*time.Second, nextBackoff(time.Second))
	assert.Equal(t, maxBackoff, nextBackoff(20*time.Second))
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleep(ctx, time.Minute))
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), MailEvent{Type: EventVerifyEmail}))
}
