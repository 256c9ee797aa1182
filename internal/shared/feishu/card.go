package feishu

import "time"

// 通知级别对应的卡片标题颜色与标题
var kindStyles = map[string]struct {
	template string
	title    string
}{
	"success": {"green", "Designatore · Done"},
	"warning": {"orange", "Designatore · Attention"},
	"danger":  {"red", "Designatore · Alert"},
	"info":    {"blue", "Designatore · Info"},
}

// NewNotificationCard 创建业务通知卡片，未知级别按 info 处理
func NewNotificationCard(kind, message string, at time.Time) InteractiveCard {
	style, ok := kindStyles[kind]
	if !ok {
		style = kindStyles["info"]
	}
	return InteractiveCard{
		Config: &CardConfig{WideScreenMode: true},
		Header: &CardHeader{
			Title:    CardText{Tag: "plain_text", Content: style.title},
			Template: style.template,
		},
		Elements: []CardElement{
			{Tag: "div", Text: &CardText{Tag: "lark_md", Content: message}},
			{Tag: "hr"},
			{
				Tag: "note",
				Elements: []CardElement{
					{Tag: "plain_text", Content: at.Format("2006-01-02 15:04:05")},
				},
			},
		},
	}
}
