package neo4j

import (
	"context"
	"errors"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/moraplatform/qa-engine/internal/infrastructure/resilience"
)

func classifyNeo4jError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}
	if neo4j.IsConnectivityError(err) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	// Syntax and constraint errors are permanent and should not trip the
	// breaker for healthy traffic.
	return resilience.ErrorClassification{
		Retryable:     false,
		RecordFailure: false,
	}
}
