package main

import (
	"github.com/digiheadway/sales-crm/internal/config"
	"github.com/digiheadway/sales-crm/internal/crm"
	"github.com/digiheadway/sales-crm/internal/remote"
)

// newStore builds the data layer from config. Declared as a var so tests can
// substitute a store over a local test server.
var newStore = func() (*crm.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	client := remote.New(cfg.API.BaseURL, cfg.API.Key)
	return crm.NewStore(client, crm.WithSchema(crm.ParseSchema(cfg.API.Schema))), nil
}
