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

		collection := core.NewBaseCollection("fund_accounts")
		collection.Fields.Add(
			&core.SelectField{
				Name:      "type",
				MaxSelect: 1,
				Required:  true,
				Values:    []string{"company", "client"},
			},
			&core.RelationField{Name: "owner_id", CollectionId: users.Id, MaxSelect: 1},
			// Balance can dip negative: a sale whose gateway fee exceeds the
			// platform charge credits a negative share.
			&core.NumberField{Name: "balance"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		collection.AddIndex("idx_fund_accounts_owner", true, "type, owner_id", "")

		if err := app.Save(collection); err != nil {
			return err
		}

		// Seed the single company account so settlement credits always have
		// a row to target.
		company := core.NewRecord(collection)
		company.Set("type", "company")
		company.Set("balance", 0)
		return app.Save(company)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("fund_accounts")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
