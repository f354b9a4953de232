// Package vibesearch is a Go client for apartment search sessions backed by
// the remote search gateway.
//
// A Session owns one user's search: the ranked result Ids, the list and map
// pagers, the map projection and the saved state that lets a session resume
// after a restart.
//
//	client, _ := vibesearch.New(ctx,
//	    vibesearch.WithGateway("https://search.example.com"),
//	    vibesearch.WithSQLite("vibesearch.db"),
//	)
//	defer client.Close(ctx)
//
//	sess, _ := client.Open(ctx, vibesearch.NewSessionID(), vibesearch.Seed{Query: "sunny loft"})
//	page := sess.Page(ctx, vibesearch.ListView)
//	page, _ = sess.Reveal(ctx, vibesearch.ListView)
//
//	sess.ResolveMap(ctx)
//	snap, _ := sess.WaitMap(ctx)
package vibesearch
