package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go-defect-analyzer/pkg/models"
)

// DecisionEvent represents one step of an analysis request's lifecycle.
type DecisionEvent struct {
	EventType    EventType     `json:"event_type"`
	Timestamp    time.Time     `json:"timestamp"`
	RequestID    string        `json:"request_id"`
	Mode         string        `json:"mode"`
	Source       models.Source `json:"source,omitempty"`
	Success      bool          `json:"success"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// EventType represents the type of decision event
type EventType string

const (
	// AnalysisStarted when an analysis request begins
	AnalysisStarted EventType = "analysis_started"
	// AdapterSucceeded when one backend produced a usable result
	AdapterSucceeded EventType = "adapter_succeeded"
	// AdapterFailed when one backend failed or was unavailable
	AdapterFailed EventType = "adapter_failed"
	// DecisionMade when selection produced a final source
	DecisionMade EventType = "decision_made"
	// DecisionUnavailable when no backend produced a usable result
	DecisionUnavailable EventType = "decision_unavailable"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event DecisionEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event DecisionEvent)
}

// LoggingObserver logs decision events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles decision events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event DecisionEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"request_id": event.RequestID,
		"mode":       event.Mode,
	}
	if event.Source != "" {
		fields["source"] = event.Source
	}
	if event.Duration > 0 {
		fields["duration_ms"] = event.Duration.Milliseconds()
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}

	switch event.EventType {
	case AnalysisStarted:
		o.logger.WithFields(fields).Debug("Analysis request started")
	case AdapterSucceeded:
		o.logger.WithFields(fields).Debug("Adapter produced a result")
	case AdapterFailed:
		o.logger.WithFields(fields).Warn("Adapter failed")
	case DecisionMade:
		o.logger.WithFields(fields).Info("Final decision selected")
	case DecisionUnavailable:
		o.logger.WithFields(fields).Warn("No analysis result available")
	default:
		o.logger.WithFields(fields).Info("Decision event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects counters from decision events
type MetricsObserver struct {
	mu                   sync.RWMutex
	totalRequests        int64
	decisionsMade        int64
	decisionsUnavailable int64
	adapterSuccesses     map[models.Source]int64
	adapterFailures      map[models.Source]int64
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		adapterSuccesses: make(map[models.Source]int64),
		adapterFailures:  make(map[models.Source]int64),
	}
}

// OnEvent handles decision events by collecting counters
func (o *MetricsObserver) OnEvent(ctx context.Context, event DecisionEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case AnalysisStarted:
		o.totalRequests++
	case AdapterSucceeded:
		o.adapterSuccesses[event.Source]++
	case AdapterFailed:
		o.adapterFailures[event.Source]++
	case DecisionMade:
		o.decisionsMade++
	case DecisionUnavailable:
		o.decisionsUnavailable++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current counters
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	successes := make(map[string]int64, len(o.adapterSuccesses))
	for source, n := range o.adapterSuccesses {
		successes[string(source)] = n
	}
	failures := make(map[string]int64, len(o.adapterFailures))
	for source, n := range o.adapterFailures {
		failures[string(source)] = n
	}

	return map[string]interface{}{
		"total_requests":        o.totalRequests,
		"decisions_made":        o.decisionsMade,
		"decisions_unavailable": o.decisionsUnavailable,
		"adapter_successes":     successes,
		"adapter_failures":      failures,
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() Subject {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event DecisionEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}
