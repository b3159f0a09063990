// Package salish is an in-process, typed message bus. Producers publish
// payloads of arbitrary types without knowing which consumers exist;
// endpoints declare interest in a payload type and are invoked when a
// matching message arrives. There is no network transport, no persistence and
// no queueing: dispatch is a synchronous call-through into the registered
// handlers.
//
// A Router keeps two registries: payload type identity to the list of
// interested endpoints, and endpoint address to its type-erased handle.
// Messages are routed per their Destination: to any one interested endpoint
// (selected round-robin or randomly, or claimed early by a source filter), to
// all interested endpoints (broadcast of duplicates, fanned out on a worker
// pool), or to one specific endpoint by address.
//
//	router := salish.NewRouter[int]()
//
//	ep := salish.NewEndpoint[Reading, int](router).
//		OnMessage(func(source any, r Reading) int {
//			return process(r)
//		})
//	defer ep.Close()
//
//	results, ok := router.HandleMessage(salish.Unicast(Reading{Celsius: 21.5}))
//
// Endpoints are owner-held registrations: closing one removes it from the
// router while dispatches already in flight complete against its shared inner
// state. StaticEndpoint registers a handler the router retains for its own
// lifetime instead.
package salish
