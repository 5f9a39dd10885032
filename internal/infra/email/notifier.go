package email

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

// SMTPNotifier mails batch summaries to an operator when a run finishes
// with failures.
type SMTPNotifier struct {
	host   string
	port   int
	from   string
	logger *zap.Logger
}

func NewSMTPNotifier(host string, port int, from string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, from: from, logger: logger}
}

func (n *SMTPNotifier) NotifyBatchFinished(_ context.Context, to, batchID, summary string) error {
	addr := fmt.Sprintf("%s:%d", n.host, n.port)

	subject := fmt.Sprintf("Slide extraction batch finished [%s]", batchID)
	body := fmt.Sprintf(
		"Hello,\r\n\r\n"+
			"A slide extraction batch has finished.\r\n\r\n"+
			"%s\r\n\r\n"+
			"-- ai-youtube-kb slide extractor",
		summary,
	)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		n.from, to, subject, body,
	)

	if err := smtp.SendMail(addr, nil, n.from, []string{to}, []byte(msg)); err != nil {
		n.logger.Error("failed to send batch summary email",
			zap.String("to", to),
			zap.String("batch_id", batchID),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("batch summary email sent",
		zap.String("to", to),
		zap.String("batch_id", batchID),
	)
	return nil
}
