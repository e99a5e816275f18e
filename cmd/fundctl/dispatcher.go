package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bitfsorg/libfund-go/account"
	"github.com/bitfsorg/libfund-go/market"
	"github.com/bitfsorg/libfund-go/network"
)

// offlineDispatcher stands in for the runtime when no node is configured.
// Currency transfers are accepted and logged; market calls need a node.
type offlineDispatcher struct {
	logger *zap.Logger
}

func (d offlineDispatcher) Dispatch(_ context.Context, origin account.Account, call market.Call) error {
	if err := call.Validate(); err != nil {
		return err
	}
	transfer, ok := call.(market.AssetTransfer)
	if !ok {
		return fmt.Errorf("%w: %s.%s requires a runtime node", market.ErrCallRuntimeFailed, call.Pallet(), call.Name())
	}
	d.logger.Debug("offline transfer accepted",
		zap.String("origin", origin.String()),
		zap.String("dest", transfer.Dest.String()),
		zap.String("currency", transfer.Currency.Kind.String()),
		zap.String("amount", transfer.Amount.Dec()),
	)
	return nil
}

// runtime picks the dispatcher for this invocation. A nil RuntimeService
// means the fund runs offline.
func (a *app) runtime() (market.Dispatcher, network.RuntimeService, error) {
	offline := offlineDispatcher{logger: a.logger}
	if a.offline {
		return offline, nil, nil
	}

	rpcCfg, err := a.resolveRPC()
	if err != nil {
		return nil, nil, err
	}
	if rpcCfg == nil {
		a.logger.Debug("no runtime node configured, running offline", zap.String("network", a.cfg.Network))
		return offline, nil, nil
	}

	client := network.NewRuntimeClient(network.NewRPCClient(*rpcCfg), a.logger)
	a.logger.Debug("using runtime node", zap.String("url", rpcCfg.URL))
	return client, client, nil
}

// resolveRPC merges --rpc-* flags, FUND_RPC_* variables, the config file
// and the network preset, in that order. It returns nil when none of them
// names a node.
func (a *app) resolveRPC() (*network.RPCConfig, error) {
	c := a.cfg.RPC
	env := map[string]string{
		network.EnvRPCURL:  firstNonEmpty(a.getenv(network.EnvRPCURL), c.URL),
		network.EnvRPCUser: firstNonEmpty(a.getenv(network.EnvRPCUser), c.User),
		network.EnvRPCPass: firstNonEmpty(a.getenv(network.EnvRPCPass), c.Password),
	}

	if a.rpcFlags.URL == "" && env[network.EnvRPCURL] == "" && c.Domain != "" {
		var resolver network.SRVResolver = network.DefaultSRVResolver
		if c.DNSSEC {
			resolver = network.NewDNSSECResolver(c.Upstream)
		}
		endpoints, err := network.ResolveEndpointsWithResolver(c.Domain, resolver)
		if err != nil {
			return nil, err
		}
		env[network.EnvRPCURL] = endpoints[0]
	}

	flags := a.rpcFlags
	if flags.Timeout == 0 {
		flags.Timeout = c.Timeout
	}
	rpcCfg, err := network.ResolveConfig(&flags, env, a.cfg.Network)
	if err != nil {
		return nil, nil
	}
	return rpcCfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
