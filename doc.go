// Package formbind binds a tree-shaped value to editable nodes, runs
// validators over it and reconciles server-side validation failures back onto
// individual properties.
//
// A Binder is created from a model.Shape. Every position in the value is
// addressed by a canonical dotted path ("customer.fullName",
// "products.0.price") and has exactly one *Node, obtained with For, Lookup or
// At. Nodes carry validators; the binder keeps the value, the ordered error
// list and the visited and dirty flags for every path.
//
// Basic usage:
//
//	shape := model.Object(
//		model.Prop("name", model.String()),
//	)
//	b := formbind.New(shape, formbind.Options{})
//	name := b.At("name")
//	name.AddValidator(validators.Required())
//	if errs := b.Validate(ctx); len(errs) > 0 {
//		// errs[0].Property == "name"
//	}
//
// Validators run concurrently within a pass; results are always ordered by
// tree position (a node's own validators first, then each child subtree).
// A validator that returns an error or panics yields one ValueError with a
// diagnostic message instead of aborting the pass.
//
// SubmitTo validates, then calls the save function. An
// *EndpointValidationError returned by save is mapped onto the bound
// properties with Options.Parameters and returned as *ValidationError; other
// save errors are returned unchanged.
package formbind
