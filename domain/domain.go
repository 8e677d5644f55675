// Package domain declares the sales-ops collections: their schemas,
// relationships, and business rules. Everything else in the data layer is
// generic; this package is the only place that knows what a DSR or a sales
// log actually looks like.
package domain

import (
	"fmt"
	"regexp"

	"github.com/MbazzaTZ/GOnSales/store"
)

// Store names registered by RegisterAll.
const (
	StoreSales    = "sales"
	StoreDSR      = "dsr"
	StoreDE       = "de"
	StoreSalesLog = "salesLog"
)

// Performance slabs a rep can hold.
var slabs = []string{"Bronze", "Silver", "Gold", "Platinum"}

var idPattern = regexp.MustCompile(`^[A-Z]{2,3}[0-9]{3,6}$`)

// GrowthRule rejects records whose currentField grew more than ceiling
// (a fraction, 0.5 means 50%) over baselineField. A zero baseline means a
// new rep with no history, so any current value passes.
func GrowthRule(baselineField, currentField string, ceiling float64) store.BusinessRule {
	return func(record store.Record) error {
		baseline, ok := record.Number(baselineField)
		if !ok {
			return nil
		}
		current, ok := record.Number(currentField)
		if !ok {
			return nil
		}
		if baseline == 0 {
			return nil
		}
		growth := (current - baseline) / baseline
		if growth > ceiling {
			return fmt.Errorf("%s growth %.0f%% over %s exceeds %.0f%% limit",
				currentField, growth*100, baselineField, ceiling*100)
		}
		return nil
	}
}

// repSchema is shared by the dsr and de stores; only the id field differs.
func repSchema(idField string) store.Schema {
	return store.NewSchema(
		store.Field{Name: "name", Rule: store.FieldRule{
			Type:      store.FieldString,
			Required:  true,
			MinLength: 1,
			MaxLength: 100,
		}},
		store.Field{Name: idField, Rule: store.FieldRule{
			Type:     store.FieldString,
			Required: true,
			Pattern:  idPattern,
		}},
		store.Field{Name: "cluster", Rule: store.FieldRule{
			Type:      store.FieldString,
			Required:  true,
			MinLength: 1,
			MaxLength: 50,
		}},
		store.Field{Name: "captainName", Rule: store.FieldRule{
			Type:      store.FieldString,
			MaxLength: 100,
		}},
		store.Field{Name: "lastMonthActual", Rule: store.FieldRule{
			Type: store.FieldNumber,
			Min:  store.Float(0),
		}},
		store.Field{Name: "thisMonthActual", Rule: store.FieldRule{
			Type: store.FieldNumber,
			Min:  store.Float(0),
		}},
		store.Field{Name: "slab", Rule: store.FieldRule{
			Type: store.FieldString,
			Enum: slabs,
		}},
	)
}

func salesSchema() store.Schema {
	return store.NewSchema(
		store.Field{Name: "month", Rule: store.FieldRule{
			Type:     store.FieldDate,
			Required: true,
		}},
		store.Field{Name: "target", Rule: store.FieldRule{
			Type:     store.FieldNumber,
			Required: true,
			Min:      store.Float(0),
		}},
		store.Field{Name: "actual", Rule: store.FieldRule{
			Type: store.FieldNumber,
			Min:  store.Float(0),
		}},
		store.Field{Name: "cluster", Rule: store.FieldRule{
			Type:      store.FieldString,
			MaxLength: 50,
		}},
	)
}

func salesLogSchema() store.Schema {
	return store.NewSchema(
		store.Field{Name: "date", Rule: store.FieldRule{
			Type:     store.FieldDate,
			Required: true,
		}},
		store.Field{Name: "dsrId", Rule: store.FieldRule{
			Type:     store.FieldString,
			Required: true,
			Pattern:  idPattern,
		}},
		store.Field{Name: "amount", Rule: store.FieldRule{
			Type:     store.FieldNumber,
			Required: true,
			Min:      store.Float(0),
		}},
		store.Field{Name: "note", Rule: store.FieldRule{
			Type:      store.FieldString,
			MaxLength: 500,
		}},
	)
}

// RegisterAll registers every sales-ops store on the registry. growthCeiling
// caps month-over-month growth on the rep stores.
func RegisterAll(registry *store.Registry, growthCeiling float64) error {
	growth := GrowthRule("lastMonthActual", "thisMonthActual", growthCeiling)

	if _, err := registry.Register(StoreSales, salesSchema()); err != nil {
		return err
	}
	if _, err := registry.Register(StoreDSR, repSchema("dsrId"),
		store.WithBusinessRules(growth),
	); err != nil {
		return err
	}
	if _, err := registry.Register(StoreDE, repSchema("deId"),
		store.WithBusinessRules(growth),
	); err != nil {
		return err
	}
	if _, err := registry.Register(StoreSalesLog, salesLogSchema(),
		store.WithRelationships(store.Relationship{
			Field:       "dsrId",
			TargetStore: StoreDSR,
			TargetField: "dsrId",
		}),
	); err != nil {
		return err
	}
	return nil
}
