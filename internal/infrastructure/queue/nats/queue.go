package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/decision-noise/internal/core/domain"
	"github.com/kirillkom/decision-noise/internal/infrastructure/resilience"
	"github.com/nats-io/nats.go"
)

const responderQueueGroup = "noise-data-processors"

// Queue carries process-noise-data requests over NATS request/reply.
// The API side calls Process; the worker side runs ServeProcessRequests.
type Queue struct {
	conn     *nats.Conn
	subject  string
	timeout  time.Duration
	executor *resilience.Executor
	logger   *slog.Logger
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	RequestTimeout       time.Duration
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	requestTimeout := options.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name("decision-noise"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		timeout:  requestTimeout,
		executor: options.ResilienceExecutor,
		logger:   logger,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// Process sends one request and waits for the responder's reply. It is never retried.
func (q *Queue) Process(ctx context.Context, req domain.ProcessRequest) (domain.ProcessedResult, error) {
	payload, err := encodeRequest(req)
	if err != nil {
		return nil, err
	}

	var result domain.ProcessedResult
	call := func(ctx context.Context) error {
		reqCtx, cancel := context.WithTimeout(ctx, q.timeout)
		defer cancel()

		msg, err := q.conn.RequestWithContext(reqCtx, q.subject, payload)
		if err != nil {
			return fmt.Errorf("nats request %s: %w", q.subject, err)
		}
		result, err = decodeReply(msg.Data)
		return err
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.request", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapTemporaryIfNeeded(err)
	}
	return result, nil
}

// ServeProcessRequests answers requests on the subject until ctx is cancelled,
// then drains the subscription.
func (q *Queue) ServeProcessRequests(ctx context.Context, handler ProcessHandler) error {
	sub, err := q.conn.QueueSubscribe(q.subject, responderQueueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		reply := handleRequest(handlerCtx, msg.Data, handler, q.logger)
		if msg.Reply == "" {
			return
		}
		if err := msg.Respond(reply); err != nil {
			q.logger.Error("nats_respond_failed", "subject", msg.Subject, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func classifyNATSError(err error) resilience.ErrorClassification {
	var replyErr *ReplyError
	if errors.As(err, &replyErr) {
		return resilience.ErrorClassification{RecordFailure: false}
	}
	if errors.Is(err, nats.ErrNoResponders) ||
		errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrDisconnected) {
		return resilience.ErrorClassification{RecordFailure: true}
	}
	return resilience.ClassifyTransportError(err)
}

func wrapTemporaryIfNeeded(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if resilience.IsCircuitOpen(err) || errors.Is(err, nats.ErrNoResponders) {
		return domain.WrapError(domain.ErrTemporary, "nats request", err)
	}
	return err
}
