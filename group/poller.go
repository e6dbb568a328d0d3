package group

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/c360/flowgroup/errors"
	"github.com/c360/flowgroup/flowregistry"
)

// RegistryPoller periodically walks every version-controlled group under a
// root and compares its bound version against the registry's latest,
// flagging groups whose flow has moved on. Staleness is only ever decided
// here; the mutation path never calls the registry.
type RegistryPoller struct {
	root     *ProcessGroup
	client   flowregistry.Client
	interval time.Duration
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewRegistryPoller creates a poller over the given root group. The rate
// limiter caps registry calls across all polled groups so a large flow does
// not hammer the registry every interval.
func NewRegistryPoller(root *ProcessGroup, client flowregistry.Client, interval time.Duration, logger *slog.Logger) *RegistryPoller {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistryPoller{
		root:     root,
		client:   client,
		interval: interval,
		limiter:  rate.NewLimiter(rate.Limit(10), 1),
		logger:   logger,
	}
}

// Run polls until the context is canceled. The first poll happens after one
// full interval so startup synchronization settles first.
func (p *RegistryPoller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.PollOnce(ctx); err != nil {
				p.logger.Warn("registry poll failed", "error", err)
			}
		}
	}
}

// PollOnce refreshes the staleness of every version-controlled group under
// the root. Individual group failures are recorded on the group and do not
// fail the sweep; only context cancellation aborts it.
func (p *RegistryPoller) PollOnce(ctx context.Context) error {
	groups := p.root.findAllVersionedGroups()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, group := range groups {
		group := group
		g.Go(func() error {
			if err := p.limiter.Wait(ctx); err != nil {
				return err
			}
			p.refreshGroup(ctx, group)
			return nil
		})
	}
	return g.Wait()
}

func (p *RegistryPoller) refreshGroup(ctx context.Context, group *ProcessGroup) {
	vci := group.VersionControlInformation()
	if vci == nil {
		return
	}

	registry, err := p.client.Registry(vci.RegistryID)
	if err != nil {
		group.vcFields.setSyncFailure("registry " + vci.RegistryID + " is not configured")
		return
	}

	flow, err := registry.VersionedFlow(ctx, vci.BucketID, vci.FlowID)
	if err != nil {
		if errors.IsTransient(err) {
			// Leave the last known staleness in place; a blip in registry
			// availability is not a sync failure
			p.logger.Debug("registry temporarily unavailable",
				"group_id", group.Identifier(), "registry_id", vci.RegistryID, "error", err)
			return
		}
		group.vcFields.setSyncFailure(err.Error())
		p.logger.Warn("failed to resolve versioned flow",
			"group_id", group.Identifier(), "flow_id", vci.FlowID, "error", err)
		return
	}

	group.vcFields.setSyncFailure("")
	stale := flow.VersionCount > vci.Version
	group.vcFields.setStale(stale)
	if stale {
		p.logger.Info("newer flow version available",
			"group_id", group.Identifier(), "flow_id", vci.FlowID,
			"bound_version", vci.Version, "latest_version", flow.VersionCount)
	}
}
