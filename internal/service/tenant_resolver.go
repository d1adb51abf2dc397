package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/pedeja/chat-server-go/internal/config"
	apperrors "github.com/pedeja/chat-server-go/internal/errors"
	"github.com/pedeja/chat-server-go/internal/model"
	"github.com/pedeja/chat-server-go/internal/redis"
	"github.com/pedeja/chat-server-go/internal/repository"
)

const instanceNamePrefix = "tenant_"

// ResolvedTenant is the outcome of mapping an instance identifier to a
// tenant. Tenant is nil when the id came from the legacy zero-padding
// fallback (or a stale cache entry) and no matching record exists; the
// session manager treats that as the signal to run ephemerally.
type ResolvedTenant struct {
	TenantID string
	Tenant   *model.Tenant
}

// TenantResolver maps an inbound channel-instance identifier to a tenant.
type TenantResolver struct {
	tenantRepo repository.TenantRepository
	cache      *redis.Client
}

func NewTenantResolver(tenantRepo repository.TenantRepository, cache *redis.Client) *TenantResolver {
	return &TenantResolver{
		tenantRepo: tenantRepo,
		cache:      cache,
	}
}

// Resolve runs the resolution ladder, first success wins:
//  1. strip the instance-name prefix; a well-formed UUID is accepted as the id
//  2. look up a tenant whose stored instance name equals the full identifier
//  3. treat the candidate as a truncated id and match it as a prefix
//  4. pad the candidate with trailing zeros into UUID shape and accept it
//     without existence verification (legacy compatibility)
func (r *TenantResolver) Resolve(ctx context.Context, instanceID string) (ResolvedTenant, error) {
	if strings.TrimSpace(instanceID) == "" {
		return ResolvedTenant{}, apperrors.TenantNotResolved(instanceID)
	}

	if cached := r.fromCache(ctx, instanceID); cached != nil {
		return *cached, nil
	}

	candidate := strings.TrimPrefix(instanceID, instanceNamePrefix)

	if parsed, err := uuid.Parse(candidate); err == nil {
		id := parsed.String()
		tenant, err := r.tenantRepo.FindByID(ctx, id)
		if err != nil {
			log.Warn().Err(err).Str("tenantId", id).Msg("tenant lookup failed during resolution")
		}
		return r.cacheAndReturn(ctx, instanceID, ResolvedTenant{TenantID: id, Tenant: tenant}), nil
	}

	tenant, err := r.tenantRepo.FindByInstanceName(ctx, instanceID)
	if err != nil {
		log.Warn().Err(err).Str("instance", instanceID).Msg("instance name lookup failed")
	}
	if tenant != nil {
		return r.cacheAndReturn(ctx, instanceID, ResolvedTenant{TenantID: tenant.ID, Tenant: tenant}), nil
	}

	tenant, err = r.tenantRepo.FindByIDPrefix(ctx, candidate)
	if err != nil {
		log.Warn().Err(err).Str("prefix", candidate).Msg("id prefix lookup failed")
	}
	if tenant != nil {
		return r.cacheAndReturn(ctx, instanceID, ResolvedTenant{TenantID: tenant.ID, Tenant: tenant}), nil
	}

	padded, ok := padToUUID(candidate)
	if !ok {
		return ResolvedTenant{}, apperrors.TenantNotResolved(instanceID)
	}

	log.Info().
		Str("instance", instanceID).
		Str("tenantId", padded).
		Msg("tenant resolved via legacy zero-padding fallback")

	// Deliberately unverified; the session manager handles the possibility
	// that no such tenant exists.
	return ResolvedTenant{TenantID: padded, Tenant: nil}, nil
}

func (r *TenantResolver) fromCache(ctx context.Context, instanceID string) *ResolvedTenant {
	if r.cache == nil {
		return nil
	}

	id, err := r.cache.Get(ctx, redis.TenantKey(instanceID)).Result()
	if err != nil {
		if err != goredis.Nil {
			log.Debug().Err(err).Str("instance", instanceID).Msg("tenant cache read failed")
		}
		return nil
	}

	tenant, err := r.tenantRepo.FindByID(ctx, id)
	if err != nil || tenant == nil {
		return nil
	}
	return &ResolvedTenant{TenantID: id, Tenant: tenant}
}

func (r *TenantResolver) cacheAndReturn(ctx context.Context, instanceID string, resolved ResolvedTenant) ResolvedTenant {
	if r.cache != nil && resolved.Tenant != nil {
		if err := r.cache.Set(ctx, redis.TenantKey(instanceID), resolved.TenantID, config.TenantCacheTTL).Err(); err != nil {
			log.Debug().Err(err).Str("instance", instanceID).Msg("tenant cache write failed")
		}
	}
	return resolved
}

// padToUUID pads a hex-ish candidate with trailing zeros into UUID shape.
func padToUUID(candidate string) (string, bool) {
	hex := strings.ToLower(strings.ReplaceAll(candidate, "-", ""))
	if hex == "" || len(hex) > 32 {
		return "", false
	}
	for _, r := range hex {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return "", false
		}
	}

	hex = hex + strings.Repeat("0", 32-len(hex))
	return hex[0:8] + "-" + hex[8:12] + "-" + hex[12:16] + "-" + hex[16:20] + "-" + hex[20:32], true
}
