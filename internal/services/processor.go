package services

import (
	"math/rand"
	"sync"
	"time"

	"payment-transactions-server/internal/models"
)

// PaymentProcessor stands in for a real payment gateway. A single instance is
// shared across requests; the mutex keeps the draw sequence uncorrelated
// under concurrent use.
type PaymentProcessor struct {
	mu          sync.Mutex
	rng         *rand.Rand
	successRate float64
}

func NewPaymentProcessor(successRate float64) *PaymentProcessor {
	return NewSeededPaymentProcessor(time.Now().UnixNano(), successRate)
}

func NewSeededPaymentProcessor(seed int64, successRate float64) *PaymentProcessor {
	return &PaymentProcessor{
		rng:         rand.New(rand.NewSource(seed)),
		successRate: successRate,
	}
}

// Process draws the outcome: COMPLETED with probability successRate,
// FAILED otherwise.
func (p *PaymentProcessor) Process() models.Status {
	p.mu.Lock()
	draw := p.rng.Float64()
	p.mu.Unlock()

	if draw <= p.successRate {
		return models.StatusCompleted
	}
	return models.StatusFailed
}
