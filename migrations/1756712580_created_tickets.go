package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
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
		transactions, err := app.FindCollectionByNameOrId("transactions")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("tickets")
		collection.Fields.Add(
			&core.RelationField{Name: "event_id", CollectionId: events.Id, MaxSelect: 1, Required: true},
			&core.RelationField{Name: "tier_id", CollectionId: tiers.Id, MaxSelect: 1, Required: true},
			&core.RelationField{Name: "transaction_id", CollectionId: transactions.Id, MaxSelect: 1, Required: true},
			&core.RelationField{Name: "buyer_id", CollectionId: users.Id, MaxSelect: 1, Required: true},
			&core.RelationField{Name: "owner_id", CollectionId: users.Id, MaxSelect: 1, Required: true},
			&core.RelationField{Name: "affiliate_id", CollectionId: users.Id, MaxSelect: 1},
			&core.SelectField{
				Name:      "status",
				MaxSelect: 1,
				Required:  true,
				Values:    []string{"active", "present", "stepped_out"},
			},
			&core.AutodateField{Name: "created", OnCreate: true},
		)
		collection.AddIndex("idx_tickets_tier_buyer", false, "tier_id, buyer_id", "")
		collection.AddIndex("idx_tickets_transaction", false, "transaction_id", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("tickets")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
