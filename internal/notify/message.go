package notify

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Message 渲染后的邮件
type Message struct {
	To       []string
	Subject  string
	Body     string
	Calendar string // 非空时作为 text/calendar 附件
}

const timeLayout = "2006-01-02 15:04"

type templateData struct {
	Notification
	HostName     string
	VisitorName  string
	When         string
	PreviousWhen string
}

var subjects = map[Kind]string{
	KindInvitation:  "Visit Invitation from {{.HostName}}",
	KindApproved:    "Visit Approved - {{.VisitorName}}",
	KindRejected:    "Visit Request Update - {{.VisitorName}}",
	KindRescheduled: "Visit Rescheduled - {{.VisitorName}}",
	KindCanceled:    "Visit Canceled - {{.VisitorName}}",
	KindNoShow:      "Visit Marked as No Show - {{.Visit.Purpose}}",
}

var bodies = map[Kind]string{
	KindInvitation: `Hello,

A visit has been scheduled with {{.HostName}}.

Visit Details:
- Purpose: {{.Visit.Purpose}}
- Scheduled Time: {{.When}}
- Status: Pending Approval

Share the link below with your visitor so they can complete their registration:
{{.InviteLink}}

The form must be completed before the scheduled visit time. The visit is reviewed for approval after submission.
`,
	KindApproved: `Dear {{.VisitorName}},

Your visit request has been approved!

Visit Details:
- Host: {{.HostName}}
- Purpose: {{.Visit.Purpose}}
- Scheduled Time: {{.When}}
- Status: Approved

Please check in at the reception desk when you arrive.

Best regards,
{{.HostName}}
`,
	KindRejected: `Dear {{.VisitorName}},

We regret to inform you that your visit request has been declined.

Visit Details:
- Host: {{.HostName}}
- Purpose: {{.Visit.Purpose}}
- Scheduled Time: {{.When}}
- Status: Rejected

Please contact {{.HostName}} for more information.

Best regards,
{{.HostName}}
`,
	KindRescheduled: `Dear {{.VisitorName}},

Your visit request has been rescheduled.

Previous Details:
- Purpose: {{.Previous.Purpose}}
- Scheduled Time: {{.PreviousWhen}}

New Details:
- Host: {{.HostName}}
- Purpose: {{.Visit.Purpose}}
- Scheduled Time: {{.When}}

If you have any questions, please contact {{.HostName}}.

Best regards,
{{.HostName}}
`,
	KindCanceled: `Dear {{.VisitorName}},

Your visit scheduled for {{.When}} has been canceled by {{.HostName}}.

If you have questions, please contact your host.
`,
	KindNoShow: `Dear {{.HostName}},

The visit scheduled for {{.When}} with visitor {{.VisitorName}} was marked as 'No Show' by the lobby attendant.

If this is a mistake, please contact the lobby desk.
`,
}

var (
	subjectTemplates = mustParse(subjects)
	bodyTemplates    = mustParse(bodies)
)

func mustParse(src map[Kind]string) map[Kind]*template.Template {
	out := make(map[Kind]*template.Template, len(src))
	for kind, text := range src {
		out[kind] = template.Must(template.New(string(kind)).Parse(text))
	}
	return out
}

// Compose 渲染通知；时间按前台时区展示
// 审批通过与改期附带日历邀请
func Compose(n Notification, loc *time.Location, now time.Time) (Message, error) {
	subjectTpl, ok := subjectTemplates[n.Kind]
	if !ok {
		return Message{}, fmt.Errorf("未知的通知类型: %s", n.Kind)
	}
	if n.Kind == KindRescheduled && n.Previous == nil {
		return Message{}, fmt.Errorf("改期通知缺少原始信息")
	}

	data := templateData{
		Notification: n,
		HostName:     HostName(n),
		VisitorName:  "Unknown",
		When:         n.Visit.ScheduledTime.In(loc).Format(timeLayout),
	}
	if n.Visitor != nil {
		data.VisitorName = n.Visitor.FullName
	}
	if n.Previous != nil {
		data.PreviousWhen = n.Previous.ScheduledTime.In(loc).Format(timeLayout)
	}

	var subject, body bytes.Buffer
	if err := subjectTpl.Execute(&subject, data); err != nil {
		return Message{}, fmt.Errorf("渲染邮件标题失败: %w", err)
	}
	if err := bodyTemplates[n.Kind].Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("渲染邮件正文失败: %w", err)
	}

	msg := Message{
		To:      Recipients(n),
		Subject: strings.TrimSpace(subject.String()),
		Body:    body.String(),
	}
	if n.Kind == KindApproved || n.Kind == KindRescheduled {
		msg.Calendar = BuildInvite(n, now)
	}
	return msg, nil
}
