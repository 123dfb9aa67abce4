package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/wekeepgrowing/wallet-ledger/internal/config"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/wallet-ledger/internal/domain/repository"
	"github.com/wekeepgrowing/wallet-ledger/internal/infrastructure/crypto"
	"github.com/wekeepgrowing/wallet-ledger/internal/infrastructure/metrics"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	maxResponseBody = 1000
	recoveryBatch   = 100

	completeAttempts = 3
	completeBackoff  = 200 * time.Millisecond
)

// Envelope is the JSON body POSTed to merchant endpoints
type Envelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
	Data      json.RawMessage `json:"data"`
}

// deliveryResult is the outcome of sending one event to one endpoint
type deliveryResult struct {
	status       model.WebhookStatus
	responseCode *int
	responseBody *string
	attempts     int
	lastError    *string
}

// WebhookDispatcher persists merchant events and delivers them on a bounded
// worker pool. Events that cannot be queued stay pending and are picked up
// by the recovery loop.
type WebhookDispatcher struct {
	repo    domainRepo.WebhookRepository
	cipher  crypto.SecretCipher
	client  *http.Client
	cfg     config.WebhookConfig
	metrics *metrics.Metrics
	logger  *zap.Logger

	queue   chan string
	mu      sync.RWMutex
	stopped bool
	started bool
	quit    chan struct{}
	wg      sync.WaitGroup
}

// NewWebhookDispatcher creates a dispatcher. Call Start to begin delivering.
func NewWebhookDispatcher(
	repo domainRepo.WebhookRepository,
	cipher crypto.SecretCipher,
	cfg config.WebhookConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *WebhookDispatcher {
	return &WebhookDispatcher{
		repo:    repo,
		cipher:  cipher,
		client:  &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		queue:   make(chan string, cfg.QueueSize),
		quit:    make(chan struct{}),
	}
}

// Dispatch records one event for the merchant and schedules delivery to every
// active endpoint subscribed to eventType. It returns the event id.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, merchantID uuid.UUID, eventType string, payload interface{}) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	event := &model.WebhookEvent{
		EventID:    newID(prefixEvent),
		MerchantID: merchantID,
		EventType:  eventType,
		Payload:    datatypes.JSON(data),
		Status:     model.WebhookStatusPending,
	}
	if err := d.repo.CreateEvent(ctx, event); err != nil {
		return "", err
	}

	endpoints, err := d.repo.ListActiveEndpoints(ctx, merchantID, eventType)
	if err != nil {
		// Left pending; the recovery loop retries the lookup
		d.logger.Warn("Failed to list webhook endpoints",
			zap.String("event_id", event.EventID),
			zap.Error(err))
		return event.EventID, nil
	}
	if len(endpoints) == 0 {
		if err := d.repo.CompleteEvent(ctx, event.EventID, domainRepo.EventOutcome{Status: model.WebhookStatusSuccess}); err != nil {
			return event.EventID, err
		}
		d.logger.Debug("No webhook endpoints subscribed",
			zap.String("event_id", event.EventID),
			zap.String("merchant_id", merchantID.String()),
			zap.String("event_type", eventType))
		return event.EventID, nil
	}

	d.enqueue(event.EventID)
	return event.EventID, nil
}

func (d *WebhookDispatcher) enqueue(eventID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return false
	}

	select {
	case d.queue <- eventID:
		return true
	default:
		d.logger.Warn("Webhook queue full, leaving event for recovery", zap.String("event_id", eventID))
		return false
	}
}

// Start launches the delivery workers and the recovery loop
func (d *WebhookDispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.mu.Unlock()

	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}

	d.wg.Add(1)
	go d.recoveryLoop(ctx)

	d.logger.Info("Webhook dispatcher started",
		zap.Int("workers", d.cfg.Workers),
		zap.Int("queue_size", d.cfg.QueueSize))
}

// Stop stops accepting work, lets the workers drain the queue and waits for
// them until ctx is done
func (d *WebhookDispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.quit)
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("Webhook dispatcher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *WebhookDispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for eventID := range d.queue {
		if err := d.Deliver(ctx, eventID); err != nil {
			d.logger.Error("Webhook delivery failed", zap.String("event_id", eventID), zap.Error(err))
		}
	}
}

func (d *WebhookDispatcher) recoveryLoop(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(d.cfg.RecoveryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.quit:
			return
		case <-ticker.C:
			d.Recover(ctx)
		}
	}
}

// Recover re-queues events that were never delivered or whose delivery was
// interrupted. It returns how many were queued.
func (d *WebhookDispatcher) Recover(ctx context.Context) int {
	ids, err := d.repo.ListStale(ctx, time.Now().UTC().Add(-d.cfg.StaleAfter), recoveryBatch)
	if err != nil {
		d.logger.Error("Failed to list stale webhook events", zap.Error(err))
		return 0
	}

	queued := 0
	for _, id := range ids {
		if !d.enqueue(id) {
			break
		}
		queued++
	}
	if queued > 0 {
		d.logger.Info("Re-queued stale webhook events", zap.Int("count", queued))
	}
	return queued
}

// Deliver claims the event and sends it to every subscribed endpoint. An
// event already claimed by another worker is skipped.
func (d *WebhookDispatcher) Deliver(ctx context.Context, eventID string) error {
	claimed, err := d.repo.ClaimEvent(ctx, eventID, time.Now().UTC().Add(-d.cfg.StaleAfter))
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	event, err := d.repo.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event == nil {
		return fmt.Errorf("webhook event not found: %s", eventID)
	}

	endpoints, err := d.repo.ListActiveEndpoints(ctx, event.MerchantID, event.EventType)
	if err != nil {
		return err
	}

	body, err := json.Marshal(Envelope{
		ID:        event.EventID,
		Type:      event.EventType,
		CreatedAt: event.CreatedAt,
		Data:      json.RawMessage(event.Payload),
	})
	if err != nil {
		return fmt.Errorf("failed to encode webhook envelope: %w", err)
	}

	outcome := domainRepo.EventOutcome{Status: model.WebhookStatusSuccess}
	for _, endpoint := range endpoints {
		result := d.deliverToEndpoint(ctx, event, endpoint, body)

		outcome.Attempts += result.attempts
		if result.responseCode != nil {
			outcome.ResponseCode = result.responseCode
			outcome.ResponseBody = result.responseBody
		}
		if result.status != model.WebhookStatusSuccess {
			outcome.Status = model.WebhookStatusFailed
			outcome.LastError = result.lastError
		}
	}
	if outcome.Status == model.WebhookStatusSuccess && len(endpoints) > 0 {
		now := time.Now().UTC()
		outcome.DeliveredAt = &now
	}

	d.logger.Info("Webhook event delivered",
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType),
		zap.String("merchant_id", event.MerchantID.String()),
		zap.String("status", string(outcome.Status)),
		zap.Int("endpoints", len(endpoints)),
		zap.Int("attempts", outcome.Attempts))

	return d.complete(ctx, event.EventID, outcome)
}

// complete records the outcome, retrying the write. If the full outcome keeps
// failing, the status alone is written so the event is not redelivered.
func (d *WebhookDispatcher) complete(ctx context.Context, eventID string, outcome domainRepo.EventOutcome) error {
	backoff := retry.WithMaxRetries(completeAttempts-1, retry.NewConstant(completeBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := d.repo.CompleteEvent(ctx, eventID, outcome); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err == nil {
		return nil
	}

	d.logger.Warn("Failed to record webhook outcome, recording status only",
		zap.String("event_id", eventID),
		zap.String("status", string(outcome.Status)),
		zap.Error(err))

	return d.repo.CompleteEvent(ctx, eventID, domainRepo.EventOutcome{
		Status:      outcome.Status,
		Attempts:    outcome.Attempts,
		DeliveredAt: outcome.DeliveredAt,
	})
}

// refreshClaim keeps an in-flight event out of the recovery loop
func (d *WebhookDispatcher) refreshClaim(ctx context.Context, eventID string) {
	if err := d.repo.RefreshClaim(ctx, eventID); err != nil {
		d.logger.Warn("Failed to refresh webhook claim", zap.String("event_id", eventID), zap.Error(err))
	}
}

func (d *WebhookDispatcher) deliverToEndpoint(ctx context.Context, event *model.WebhookEvent, endpoint *model.WebhookEndpoint, body []byte) deliveryResult {
	var result deliveryResult

	secret, err := d.cipher.Open(endpoint.SecretCiphertext, endpoint.SecretIV, endpoint.MerchantID.String())
	if err != nil {
		// Never send unsigned
		msg := "signing secret unavailable: " + err.Error()
		result.status = model.WebhookStatusFailed
		result.lastError = &msg
	} else {
		result = d.send(ctx, endpoint.URL, secret, event.EventID, body)
	}

	d.metrics.ObserveWebhookDelivery(string(result.status))

	delivery := &model.WebhookDelivery{
		EventID:      event.EventID,
		EndpointID:   endpoint.ID,
		URL:          endpoint.URL,
		Status:       result.status,
		ResponseCode: result.responseCode,
		ResponseBody: result.responseBody,
		Attempts:     result.attempts,
		LastError:    result.lastError,
	}
	if result.status == model.WebhookStatusSuccess {
		now := time.Now().UTC()
		delivery.DeliveredAt = &now
	}
	if err := d.repo.SaveDelivery(ctx, delivery); err != nil {
		d.logger.Warn("Failed to record webhook delivery",
			zap.String("event_id", event.EventID),
			zap.String("endpoint_id", endpoint.ID.String()),
			zap.Error(err))
	}

	return result
}

// send POSTs the signed body, retrying network errors, 429 and 5xx with
// exponential backoff up to MaxAttempts
func (d *WebhookDispatcher) send(ctx context.Context, url, secret, eventID string, body []byte) deliveryResult {
	result := deliveryResult{status: model.WebhookStatusFailed}
	signature := crypto.Sign(secret, body)

	backoff := retry.NewExponential(d.cfg.InitialBackoff)
	backoff = retry.WithCappedDuration(d.cfg.MaxBackoff, backoff)
	backoff = retry.WithMaxRetries(uint64(max(d.cfg.MaxAttempts-1, 0)), backoff)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		d.refreshClaim(ctx, eventID)
		result.attempts++

		code, respBody, err := d.post(ctx, url, signature, eventID, body)
		if err != nil {
			return retry.RetryableError(err)
		}
		result.responseCode = &code
		result.responseBody = &respBody

		switch {
		case code >= 200 && code < 300:
			return nil
		case code == http.StatusTooManyRequests || code >= 500:
			return retry.RetryableError(fmt.Errorf("endpoint returned %d", code))
		default:
			return fmt.Errorf("endpoint returned %d", code)
		}
	})
	if err != nil {
		msg := err.Error()
		result.lastError = &msg
		return result
	}

	result.status = model.WebhookStatusSuccess
	result.lastError = nil
	return result
}

func (d *WebhookDispatcher) post(ctx context.Context, url, signature, eventID string, body []byte) (int, string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(d.cfg.SignatureHeader, signature)
	req.Header.Set(d.cfg.EventIDHeader, eventID)

	resp, err := d.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, "", fmt.Errorf("timed out after %s", d.cfg.Timeout)
		}
		return 0, "", err
	}
	defer resp.Body.Close()

	limited, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody*utf8.UTFMax))
	if err != nil {
		d.logger.Debug("Failed to read webhook response body", zap.Error(err))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, sanitizeBody(limited, maxResponseBody), nil
}

// sanitizeBody turns a response body into storable text of at most n runes.
// Invalid UTF-8 becomes U+FFFD and NUL bytes are dropped.
func sanitizeBody(b []byte, n int) string {
	s := strings.ToValidUTF8(string(b), "\uFFFD")
	s = strings.ReplaceAll(s, "\x00", "")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
