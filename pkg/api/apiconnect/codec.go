// Package apiconnect wires the settleup services to Connect. Messages from
// package api are encoded as JSON.
package apiconnect

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const (
	// PackagePrefix prefixes every procedure path.
	PackagePrefix = "/settleup.v1."

	codecName = "json"
)

// jsonCodec encodes plain Go structs. Connect's built-in JSON codec only
// accepts protobuf messages.
type jsonCodec struct{}

func (jsonCodec) Name() string { return codecName }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
}

func servicePath(service string) string {
	return PackagePrefix + service + "/"
}

// serviceMux routes a service's procedures to their handlers.
func serviceMux(handlers ...*namedHandler) http.Handler {
	routes := make(map[string]http.Handler, len(handlers))
	for _, h := range handlers {
		routes[h.procedure] = h.handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := routes[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

type namedHandler struct {
	procedure string
	handler   http.Handler
}

func unary[Req, Res any](
	procedure string,
	fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error),
	opts []connect.HandlerOption,
) *namedHandler {
	return &namedHandler{
		procedure: procedure,
		handler:   connect.NewUnaryHandler(procedure, fn, opts...),
	}
}

func newClient[Req, Res any](httpClient connect.HTTPClient, baseURL, procedure string, opts []connect.ClientOption) *connect.Client[Req, Res] {
	return connect.NewClient[Req, Res](httpClient, strings.TrimRight(baseURL, "/")+procedure, opts...)
}
