package handlers

import (
	"net/http"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
)

const maxGraphQLBody = 1 << 20

// GraphQLHandler executes POSTed queries and, when enabled, serves GraphiQL on GET.
type GraphQLHandler struct {
	relay    *relay.Handler
	graphiQL bool
}

func NewGraphQLHandler(schema *graphql.Schema, graphiQL bool) *GraphQLHandler {
	return &GraphQLHandler{relay: &relay.Handler{Schema: schema}, graphiQL: graphiQL}
}

func (h *GraphQLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, maxGraphQLBody)
		h.relay.ServeHTTP(w, r)
	case http.MethodGet:
		if !h.graphiQL {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(graphiQLPage)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

var graphiQLPage = []byte(`<!DOCTYPE html>
<html>
<head>
  <title>NEU Course Scheduler GraphiQL</title>
  <link rel="stylesheet" href="https://unpkg.com/graphiql@3/graphiql.min.css" />
</head>
<body style="margin: 0;">
  <div id="graphiql" style="height: 100vh;"></div>
  <script crossorigin src="https://unpkg.com/react@18/umd/react.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/react-dom@18/umd/react-dom.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/graphiql@3/graphiql.min.js"></script>
  <script>
    const fetcher = GraphiQL.createFetcher({ url: '/graphql' });
    ReactDOM.createRoot(document.getElementById('graphiql')).render(React.createElement(GraphiQL, { fetcher }));
  </script>
</body>
</html>
`)
