package email

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	sent []*Message
	err  error
}

func (r *recordingMailer) Send(msg *Message) error {
	r.sent = append(r.sent, msg)
	return r.err
}

func TestSendCommentNotification(t *testing.T) {
	m := &recordingMailer{}

	err := SendCommentNotification(m, "alice@example.com", CommentNotificationData{
		Recipient: "alice",
		Commenter: "bob",
		PostTitle: "Hello World",
		Content:   "<b>Nice post!</b>",
		PostURL:   "http://localhost/posts/hello-world",
	})
	require.NoError(t, err)
	require.Len(t, m.sent, 1)

	msg := m.sent[0]
	assert.Equal(t, []string{"alice@example.com"}, msg.To)
	assert.Equal(t, "bob 评论了你的文章", msg.Subject)
	assert.Equal(t, "text/html", msg.ContentType)
	assert.Contains(t, msg.Body, "Hello World")
	// html/template 会转义评论内容
	assert.Contains(t, msg.Body, "&lt;b&gt;Nice post!&lt;/b&gt;")
}

func TestSendResetPassword_PropagatesTransportError(t *testing.T) {
	m := &recordingMailer{err: errors.New("smtp down")}

	err := SendResetPassword(m, "bob@example.com", ResetPasswordData{
		Username:      "bob",
		ResetURL:      "http://localhost/reset?token=abc",
		ExpireMinutes: 60,
	})
	assert.EqualError(t, err, "smtp down")
	require.Len(t, m.sent, 1)
	assert.Contains(t, m.sent[0].Body, "60 分钟")
}

func TestClientSend_Validation(t *testing.T) {
	c := NewClient(&Config{Host: "localhost"})

	tests := []struct {
		name string
		msg  *Message
		want string
	}{
		{"missing from", &Message{To: []string{"a@example.com"}, Subject: "hi"}, "发件人不能为空"},
		{"missing to", &Message{From: "x@example.com", Subject: "hi"}, "收件人不能为空"},
		{"missing subject", &Message{From: "x@example.com", To: []string{"a@example.com"}}, "邮件主题不能为空"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, c.Send(tt.msg), tt.want)
		})
	}
}
