package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gatepass/backend/pkg/clock"
)

// LogGateway 开发模式网关：只把通知写入日志
type LogGateway struct {
	loc    *time.Location
	clock  clock.Clock
	logger *zap.Logger
}

// NewLogGateway 创建日志通知网关
func NewLogGateway(loc *time.Location, clk clock.Clock, logger *zap.Logger) *LogGateway {
	return &LogGateway{loc: loc, clock: clk, logger: logger}
}

func (g *LogGateway) Send(_ context.Context, n Notification) error {
	msg, err := Compose(n, g.loc, g.clock.Now())
	if err != nil {
		return err
	}
	if len(msg.To) == 0 {
		return nil
	}
	fields := []zap.Field{
		zap.String("kind", string(n.Kind)),
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("visit_id", n.Visit.VisitRequestID),
		zap.Bool("calendar", msg.Calendar != ""),
	}
	if n.InviteLink != "" {
		fields = append(fields, zap.String("invite_link", n.InviteLink))
	}
	g.logger.Info("[DEV] 通知未实际发送", fields...)
	return nil
}
