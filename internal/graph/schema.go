package graph

import (
	"context"
	_ "embed"
	"fmt"

	graphql "github.com/graph-gophers/graphql-go"
)

//go:embed schema.graphql
var schemaSDL string

// panicLogger routes resolver panics to the service logger.
type panicLogger struct {
	logger Logger
}

func (p panicLogger) LogPanic(ctx context.Context, value interface{}) {
	p.logger.Error("graphql resolver panic", "panic", fmt.Sprint(value))
}

// NewSchema parses the schema against the resolver. Introspection is turned
// off when introspection is false.
func NewSchema(r *Resolver, introspection bool) (*graphql.Schema, error) {
	opts := []graphql.SchemaOpt{
		graphql.UseFieldResolvers(),
		graphql.MaxDepth(8),
		graphql.MaxParallelism(10),
		graphql.Logger(panicLogger{logger: r.Logger}),
	}
	if !introspection {
		opts = append(opts, graphql.DisableIntrospection())
	}
	return graphql.ParseSchema(schemaSDL, r, opts...)
}
