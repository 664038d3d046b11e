package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// Template 邮件模板
type Template struct {
	tmpl *template.Template
}

// NewTemplate 从 HTML 字符串创建模板
func NewTemplate(htmlContent string) (*Template, error) {
	tmpl, err := template.New("email").Parse(htmlContent)
	if err != nil {
		return nil, fmt.Errorf("解析邮件模板失败: %w", err)
	}
	return &Template{tmpl: tmpl}, nil
}

// Render 渲染模板
func (t *Template) Render(data any) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("渲染邮件模板失败: %w", err)
	}
	return buf.String(), nil
}

// SendWithTemplate 使用模板发送邮件
func SendWithTemplate(m Mailer, to string, subject string, tmpl *Template, data any) error {
	body, err := tmpl.Render(data)
	if err != nil {
		return err
	}
	return m.Send(&Message{
		To:          []string{to},
		Subject:     subject,
		Body:        body,
		ContentType: "text/html",
	})
}

// CommentNotificationData 评论提醒模板数据
type CommentNotificationData struct {
	Recipient string
	Commenter string
	PostTitle string
	Content   string
	PostURL   string
}

// ResetPasswordData 重置密码模板数据
type ResetPasswordData struct {
	Username      string
	ResetURL      string
	ExpireMinutes int
}

var (
	commentNotificationTmpl = template.Must(template.New("comment").Parse(CommentNotificationTemplate))
	resetPasswordTmpl       = template.Must(template.New("reset").Parse(ResetPasswordTemplate))
)

// SendCommentNotification 新评论提醒
func SendCommentNotification(m Mailer, to string, data CommentNotificationData) error {
	return SendWithTemplate(m, to, fmt.Sprintf("%s 评论了你的文章", data.Commenter),
		&Template{tmpl: commentNotificationTmpl}, data)
}

// SendResetPassword 重置密码链接
func SendResetPassword(m Mailer, to string, data ResetPasswordData) error {
	return SendWithTemplate(m, to, "重置密码", &Template{tmpl: resetPasswordTmpl}, data)
}

const CommentNotificationTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .quote { border-left: 4px solid #4CAF50; padding-left: 12px; color: #555; }
        .footer { margin-top: 30px; font-size: 12px; color: #999; }
    </style>
</head>
<body>
    <div class="container">
        <p>{{.Recipient}}，你好：</p>
        <p><strong>{{.Commenter}}</strong> 评论了你的文章《{{.PostTitle}}》：</p>
        <p class="quote">{{.Content}}</p>
        <p><a href="{{.PostURL}}">查看评论</a></p>
        <div class="footer">
            <p>可以在个人设置中关闭评论邮件提醒。</p>
        </div>
    </div>
</body>
</html>
`

const ResetPasswordTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .button { display: inline-block; padding: 10px 20px; background: #2196F3; color: #fff; text-decoration: none; }
        .footer { margin-top: 30px; font-size: 12px; color: #999; }
    </style>
</head>
<body>
    <div class="container">
        <p>{{.Username}}，你好：</p>
        <p>我们收到了重置密码的请求，点击下面的按钮设置新密码：</p>
        <p><a class="button" href="{{.ResetURL}}">重置密码</a></p>
        <p>链接将在 {{.ExpireMinutes}} 分钟后失效。</p>
        <div class="footer">
            <p>如果不是你本人操作，请忽略此邮件。</p>
        </div>
    </div>
</body>
</html>
`
