package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the embedding provider is down: keyword search
	// still works, vector and hybrid search fall back or fail.
	Degraded Status = "degraded"
	// Unhealthy indicates the document store is unreachable: no search
	// can be served.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
}

// New creates a Service. embedding can be nil.
func New(db DBPinger, embedding EmbeddingChecker) *Service {
	return &Service{db: db, embedding: embedding}
}

// Check runs health checks against all components. The database is a hard
// dependency; the embedding provider is soft.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	status := Healthy
	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
		status = Unhealthy
	} else {
		checks["database"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks["embedding"] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}
