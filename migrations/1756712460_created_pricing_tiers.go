package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		events, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("pricing_tiers")
		collection.Fields.Add(
			&core.RelationField{Name: "event_id", CollectionId: events.Id, MaxSelect: 1, Required: true},
			&core.TextField{Name: "name", Required: true},
			&core.NumberField{Name: "total_seats", OnlyInt: true, Required: true, Min: types.Pointer(1.0)},
			&core.NumberField{Name: "available_seats", OnlyInt: true, Min: types.Pointer(0.0)},
			&core.NumberField{Name: "unit_amount", Min: types.Pointer(0.0)},
			&core.NumberField{Name: "affiliate_unit_amount", Min: types.Pointer(0.0)},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		collection.AddIndex("idx_pricing_tiers_event", false, "event_id", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("pricing_tiers")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
