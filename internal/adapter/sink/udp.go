package sink

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/berfenger/solarpoll/internal/config"
	"github.com/berfenger/solarpoll/internal/core/domain"
	"github.com/berfenger/solarpoll/internal/core/port"

	"go.uber.org/zap"
)

const SINK_UDP = "udp"

// UDPLineProtocolSink sends one line protocol datagram per measurement.
type UDPLineProtocolSink struct {
	deviceId string
	addr     string
	settle   time.Duration
	conn     net.Conn
	logger   *zap.Logger
}

var _ port.TelemetrySink = (*UDPLineProtocolSink)(nil)

func NewUDPLineProtocolSink(deviceId string, cfg config.UDPConfig, logger *zap.Logger) *UDPLineProtocolSink {
	return &UDPLineProtocolSink{
		deviceId: deviceId,
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(int(cfg.Port))),
		settle:   time.Duration(cfg.SettleMillis) * time.Millisecond,
		logger:   logger,
	}
}

func (s *UDPLineProtocolSink) Name() string {
	return SINK_UDP
}

func (s *UDPLineProtocolSink) Publish(m domain.Measurement) error {
	if s.conn == nil {
		conn, err := net.Dial("udp", s.addr)
		if err != nil {
			return fmt.Errorf("udp dial %s: %w", s.addr, err)
		}
		s.logger.Debug("udp socket open", zap.String("addr", s.addr))
		s.conn = conn
	}

	line := FormatLine(s.deviceId, m)
	if _, err := s.conn.Write([]byte(line)); err != nil {
		_ = s.conn.Close()
		s.conn = nil
		return fmt.Errorf("udp send %s: %w", s.addr, err)
	}
	if s.settle > 0 {
		time.Sleep(s.settle)
	}
	return nil
}

func (s *UDPLineProtocolSink) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
