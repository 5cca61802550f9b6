// Package dobee is a data mapper for MySQL. Entities are declared in a YAML
// model (properties, primary key, relation cardinalities, inheritance and
// audit settings) and mapped onto prefixed tables:
//
//	model, _ := schema.LoadFile("model.yaml")
//	p, _ := provider.New(drv, model, provider.WithEntities(shop.Factories()...))
//	order, _ := p.FetchOne(ctx, "order", 7, nil)
//	items, _ := order.EntityBase().Many("items").Resolve(ctx)
//
// Here shop is a package generated by "dobee gen". Package schema holds the
// model, query renders statements, relation resolves joins and link tables,
// entity defines instances and their lazy relation proxies, changelog keeps
// the version history and provider ties them together.
//
// This package holds the error taxonomy shared by all of them. Configuration
// errors surface before any statement runs; execution errors wrap the
// engine diagnostics.
package dobee
