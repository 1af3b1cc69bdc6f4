package db

import (
	"database/sql"
	"fmt"
)

type StoreName string

const (
	Operational StoreName = "operational"
	Reporting   StoreName = "reporting"
)

type Entity string

const (
	EntityUser           Entity = "user"
	EntityCampaign       Entity = "campaign"
	EntityCampaignSystem Entity = "campaign_system"
	EntityFieldRep       Entity = "field_rep"
	EntityDoctor         Entity = "doctor"
	EntityCollateral     Entity = "collateral"
	EntityShareInstance  Entity = "share_instance"
	EntityEvent          Entity = "event"
	EntityReportingEvent Entity = "reporting_event"
)

// bindings is fixed at compile time: every entity lives in exactly one store
// and cross-store references are copied ids.
var bindings = map[Entity]StoreName{
	EntityUser:           Operational,
	EntityCampaign:       Operational,
	EntityCampaignSystem: Operational,
	EntityFieldRep:       Operational,
	EntityDoctor:         Operational,
	EntityCollateral:     Operational,
	EntityShareInstance:  Operational,
	EntityEvent:          Operational,
	EntityReportingEvent: Reporting,
}

// StoreOf reports which store holds an entity.
func StoreOf(e Entity) (StoreName, bool) {
	name, ok := bindings[e]
	return name, ok
}

type Router struct {
	stores map[StoreName]*sql.DB
}

func NewRouter(stores map[StoreName]*sql.DB) (*Router, error) {
	for _, name := range bindings {
		if stores[name] == nil {
			return nil, fmt.Errorf("store %q is not configured", name)
		}
	}
	return &Router{stores: stores}, nil
}

// For returns the handle of the store an entity is bound to.
func (r *Router) For(e Entity) *sql.DB {
	name, ok := bindings[e]
	if !ok {
		panic(fmt.Sprintf("db: entity %q has no store binding", e))
	}
	return r.stores[name]
}

func (r *Router) Store(name StoreName) *sql.DB {
	return r.stores[name]
}

func (r *Router) Close() error {
	var first error
	for _, conn := range r.stores {
		if err := conn.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
