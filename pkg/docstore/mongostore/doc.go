// Package mongostore implements docstore.Store on MongoDB using the official
// v2 driver.
//
// Documents are stored as {_id, doc, updated_at} envelopes, one MongoDB
// collection per docstore collection. RunTransaction uses a client session
// and WithTransaction, so the deployment must be a replica set (a single-node
// replica set is enough for development).
//
// # Usage
//
//	var cfg mongostore.Config
//	config.MustLoad(&cfg)
//
//	store, err := mongostore.NewFromConfig(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer store.Client().Disconnect(context.Background())
//
//	sessions := session.NewDocStore(store)
//
// # Configuration
//
// Settings are read from MONGODB_* environment variables, see Config.
package mongostore
