package notify

import (
	"time"

	ics "github.com/arran4/golang-ical"
)

// defaultVisitLength 日历事件默认时长
const defaultVisitLength = time.Hour

// BuildInvite 生成访问的 VEVENT；UID 取访问 token，改期时客户端按 UID 覆盖原事件
func BuildInvite(n Notification, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodRequest)
	cal.SetProductId("-//GatePass//Visit Management//EN")

	event := cal.AddEvent(n.Visit.Token + "@gatepass")
	event.SetDtStampTime(now.UTC())
	event.SetModifiedAt(n.Visit.UpdatedAt.UTC())
	event.SetStartAt(n.Visit.ScheduledTime.UTC())
	event.SetEndAt(n.Visit.ScheduledTime.UTC().Add(defaultVisitLength))
	event.SetSummary("Visit: " + n.Visit.Purpose)
	event.SetDescription("Please check in at the reception desk when you arrive.")

	if n.Host != nil && n.Host.Email != "" {
		event.SetOrganizer("mailto:"+n.Host.Email, ics.WithCN(n.Host.Name))
	}
	if n.Visitor != nil && n.Visitor.Email != "" {
		event.AddAttendee("mailto:"+n.Visitor.Email, ics.WithCN(n.Visitor.FullName), ics.WithRSVP(false))
	}

	return cal.Serialize()
}
