package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}
		events, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}
		tiers, err := app.FindCollectionByNameOrId("pricing_tiers")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("transactions")
		collection.Fields.Add(
			&core.TextField{Name: "reference", Required: true},
			&core.RelationField{Name: "buyer_id", CollectionId: users.Id, MaxSelect: 1, Required: true},
			&core.RelationField{Name: "event_id", CollectionId: events.Id, MaxSelect: 1, Required: true},
			&core.RelationField{Name: "tier_id", CollectionId: tiers.Id, MaxSelect: 1, Required: true},
			&core.RelationField{Name: "affiliate_id", CollectionId: users.Id, MaxSelect: 1},
			&core.NumberField{Name: "quantity", OnlyInt: true, Required: true, Min: types.Pointer(1.0)},
			&core.NumberField{Name: "actual_amount"},
			&core.NumberField{Name: "platform_charge"},
			&core.NumberField{Name: "gateway_charge"},
			&core.NumberField{Name: "affiliate_charge"},
			&core.SelectField{
				Name:      "status",
				MaxSelect: 1,
				Required:  true,
				Values:    []string{"pending", "success", "failed"},
			},
			&core.TextField{Name: "gateway_ref"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		// The reference is the idempotency key; it must never collide.
		collection.AddIndex("idx_transactions_reference", true, "reference", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("transactions")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
