package checkout

import (
	"staylock/pkg/client"
	"staylock/pkg/config"
)

// NewAuthorityClient builds the lock client a checkout flow talks to, from
// the shared configuration: the authority base URL plus the RPC and beacon
// deadlines.
func NewAuthorityClient(cfg *config.Config) *client.LockClient {
	return client.NewLockClient(cfg.LockAuthorityURL, cfg.LockRPCTimeout, cfg.LockBeaconTimeout, cfg.Log)
}
