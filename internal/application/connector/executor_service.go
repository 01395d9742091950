package connector

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/b2bhub/backend/internal/domain/connector"
	"github.com/b2bhub/backend/internal/infrastructure/resilience"
)

// ExecutorService runs capability invocations through the full resilience
// pipeline: configuration and capability gates, circuit breaker, credential
// decryption, retries with backoff, error normalization and audit events.
// Execute never returns a Go error to the caller; every outcome is an
// ExecuteResponse.
type ExecutorService struct {
	connectors connector.ConnectorRepository
	configs    connector.ConfigurationRepository
	events     connector.EventRepository
	plugins    *PluginRegistry
	vault      *VaultService
	breakers   *resilience.BreakerRegistry
	retry      resilience.RetryPolicy
	logger     *zap.Logger
}

// NewExecutorService creates the executor service
func NewExecutorService(
	connectors connector.ConnectorRepository,
	configs connector.ConfigurationRepository,
	events connector.EventRepository,
	plugins *PluginRegistry,
	vault *VaultService,
	breakers *resilience.BreakerRegistry,
	retry resilience.RetryPolicy,
	logger *zap.Logger,
) *ExecutorService {
	return &ExecutorService{
		connectors: connectors,
		configs:    configs,
		events:     events,
		plugins:    plugins,
		vault:      vault,
		breakers:   breakers,
		retry:      retry,
		logger:     logger,
	}
}

// Execute runs one capability against the external system
func (s *ExecutorService) Execute(ctx context.Context, req ExecuteRequest) *ExecuteResponse {
	started := time.Now()

	cfg, err := s.configs.FindByIDForTenant(ctx, req.TenantID, req.ConfigID)
	if err != nil {
		return failure("configuration not found", ErrCodeNotFound, false)
	}
	if !cfg.IsActive {
		return failure("configuration is disabled", ErrCodeNotFound, false)
	}

	conn, err := s.connectors.FindByID(ctx, cfg.ConnectorID)
	if err != nil {
		return failure("connector not found", ErrCodeNotFound, false)
	}
	if !conn.IsActive {
		return failure("connector is disabled", ErrCodeConnectorDisabled, false)
	}

	if !conn.HasCapability(req.Capability) {
		return failure("capability not declared by connector", ErrCodeCapabilityNotEnabled, false)
	}
	if !cfg.IsCapabilityEnabled(req.Capability) {
		return failure("capability not enabled for this configuration", ErrCodeCapabilityNotEnabled, false)
	}

	plugin, ok := s.plugins.Resolve(conn.Code)
	if !ok {
		return failure("connector plugin unavailable", ErrCodeSystem, false)
	}

	breaker := s.breakerFor(ctx, conn, cfg)
	if !breaker.Allow() {
		return failure("circuit breaker is open; call rejected without contacting the external system", ErrCodeCircuitOpen, true)
	}

	execCtx := connector.ExecutionContext{
		TenantID:      req.TenantID,
		ConfigID:      cfg.ID,
		Config:        s.effectiveConfig(conn, cfg),
		CorrelationID: req.CorrelationID,
		UserID:        req.UserID,
	}
	if cfg.CredentialVaultID != nil {
		credentials, err := s.vault.Decrypt(ctx, *cfg.CredentialVaultID, connector.AccessRequest{
			ConnectorCode: conn.Code,
			UserID:        req.UserID,
		})
		if err != nil {
			if errors.Is(err, connector.ErrVaultAccessDenied) {
				return failure("credential access denied by vault policy", ErrCodeForbidden, false)
			}
			return failure("credential decryption failed", ErrCodeSystem, false)
		}
		execCtx.Credentials = credentials
	}

	s.appendEvent(ctx, cfg, connector.EventInvoke, map[string]any{
		"capability":    req.Capability,
		"correlationId": req.CorrelationID,
	})

	var result *connector.ExecutionResult
	attempts := 0
	execErr := s.retry.Execute(ctx, func(ctx context.Context) *resilience.ConnectorError {
		attempts++
		r, err := plugin.ExecuteCapability(ctx, req.Capability, req.Input, execCtx)
		if err != nil {
			connErr := resilience.Classify(err, 0)
			breaker.RecordFailure()
			return connErr
		}
		breaker.RecordSuccess()
		result = r
		return nil
	})

	elapsed := time.Since(started)
	if execErr != nil {
		s.appendEvent(ctx, cfg, connector.EventFailure, map[string]any{
			"capability":    req.Capability,
			"correlationId": req.CorrelationID,
			"category":      string(execErr.Category),
			"attempts":      attempts,
			"durationMs":    elapsed.Milliseconds(),
			"rawError":      execErr.Message,
		})
		s.logger.Warn("capability execution failed",
			zap.String("config", cfg.ID.String()),
			zap.String("capability", req.Capability),
			zap.String("category", string(execErr.Category)),
			zap.Int("attempts", attempts))
		return &ExecuteResponse{
			Success:   false,
			Error:     execErr.UserMessage(),
			ErrorCode: string(execErr.Category),
			Retryable: execErr.Retryable(),
			Metadata: map[string]any{
				"attempts":   attempts,
				"durationMs": elapsed.Milliseconds(),
			},
		}
	}

	s.appendEvent(ctx, cfg, connector.EventSuccess, map[string]any{
		"capability":    req.Capability,
		"correlationId": req.CorrelationID,
		"attempts":      attempts,
		"durationMs":    elapsed.Milliseconds(),
	})

	metadata := map[string]any{
		"attempts":   attempts,
		"durationMs": elapsed.Milliseconds(),
	}
	for k, v := range result.Metadata {
		metadata[k] = v
	}
	return &ExecuteResponse{
		Success:  true,
		Data:     result.Data,
		Metadata: metadata,
	}
}

// breakerFor returns the configuration's breaker, creating it with the
// connector's thresholds and a state-change audit hook on first use.
func (s *ExecutorService) breakerFor(ctx context.Context, conn *connector.Connector, cfg *connector.Configuration) *resilience.CircuitBreaker {
	tenantID := cfg.TenantID
	configID := cfg.ID
	code := conn.Code
	return s.breakers.GetWithThresholds(configID, conn.FailureThreshold, conn.SuccessThreshold,
		func(id uuid.UUID, from, to resilience.BreakerState) {
			var typ connector.EventType
			switch to {
			case resilience.StateOpen:
				typ = connector.EventCircuitOpen
			case resilience.StateClosed:
				typ = connector.EventCircuitClose
			default:
				return
			}
			event := connector.NewEvent(tenantID, code, &configID, typ, map[string]any{
				"from": from.String(),
				"to":   to.String(),
			})
			if err := s.events.Append(context.WithoutCancel(ctx), event); err != nil {
				s.logger.Warn("failed to append breaker event", zap.Error(err))
			}
			s.logger.Info("circuit breaker state change",
				zap.String("config", id.String()),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		})
}

func (s *ExecutorService) effectiveConfig(conn *connector.Connector, cfg *connector.Configuration) map[string]any {
	config := conn.ConfigSchema.ApplyDefaults(cfg.Config)
	if cfg.WebhookSecret != "" {
		config["webhookSecret"] = cfg.WebhookSecret
	}
	return config
}

func (s *ExecutorService) appendEvent(ctx context.Context, cfg *connector.Configuration, typ connector.EventType, details map[string]any) {
	event := connector.NewEvent(cfg.TenantID, cfg.ConnectorCode, &cfg.ID, typ, details)
	if err := s.events.Append(ctx, event); err != nil {
		s.logger.Warn("failed to append audit event",
			zap.String("type", string(typ)), zap.Error(err))
	}
}

func failure(message, code string, retryable bool) *ExecuteResponse {
	return &ExecuteResponse{
		Success:   false,
		Error:     message,
		ErrorCode: code,
		Retryable: retryable,
	}
}
