package model

// Resolver defines the contract for the bitmask resolution phase.
// It turns one raw table entry into a record or a classified Diagnostic.
type Resolver interface {
	Resolve(entry RawEntry) (*Record, error)
	// ResolveExpr resolves a textual bitmask such as "NGX_HTTP_MAIN_CONF|NGX_CONF_TAKE1".
	ResolveExpr(name, expr string, loc Location) (*Record, error)
}
