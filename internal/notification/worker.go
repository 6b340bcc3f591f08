package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"gym-occupancy-backend/internal/model"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real implementation using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool pushes "a unit just freed up" notifications to subscribers
// watching a zone. Checkouts dispatch the freed zone; workers drain the
// queue in the background.
type WorkerPool struct {
	size    int
	jobs    chan string
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan string, size*4),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// SetSender replaces the push transport. Tests only.
func (wp *WorkerPool) SetSender(s Sender) { wp.sender = s }

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	for {
		select {
		case zone := <-wp.jobs:
			wp.notifyZone(ctx, zone)
		case <-ctx.Done():
			log.Printf("notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a freed zone for notification. Non-blocking: if the
// queue is full the event is dropped, since a missed push only costs a
// subscriber one heads-up.
func (wp *WorkerPool) Dispatch(zone string) {
	select {
	case wp.jobs <- zone:
	default:
		log.Printf("notification queue full, dropping event for zone %q", zone)
	}
}

// NotifyZoneOnce processes one zone synchronously. Tests only.
func (wp *WorkerPool) NotifyZoneOnce(ctx context.Context, zone string) {
	wp.notifyZone(ctx, zone)
}

func (wp *WorkerPool) notifyZone(ctx context.Context, zone string) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN zone_watches zw ON zw.subscription_endpoint = push_subscriptions.endpoint").
		Where("zw.zone = ?", zone).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("error fetching subscriptions for zone %q: %v", zone, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload := []byte(fmt.Sprintf("Equipment in %s is now free!", zone))
	for _, sub := range subscriptions {
		wp.send(ctx, sub, payload)
	}
}

func (wp *WorkerPool) send(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// 410 means the browser dropped the subscription; prune it.
	if resp.StatusCode == http.StatusGone {
		log.Printf("subscription %s expired, deleting", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
		wp.db.WithContext(ctx).Where("subscription_endpoint = ?", sub.Endpoint).
			Delete(&model.ZoneWatch{})
	}
}
