package pmxt

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Support says how an exchange implements a unified method.
type Support string

const (
	SupportNone     Support = ""
	SupportNative   Support = "native"
	SupportEmulated Support = "emulated" // polling, approximation and the like
)

// Capabilities maps unified method names (fetchOHLCV, watchOrderBook, ...)
// to how the exchange supports them.
type Capabilities map[string]Support

// Supports reports whether method is available natively or emulated.
func (c Capabilities) Supports(method string) bool {
	return c[method] != SupportNone
}

const capabilityTTL = time.Hour

// Has returns the exchange's capability map. Lookups are cached per server
// and exchange; a failed lookup returns an empty map and is retried on the
// next call.
func (e *Exchange) Has(ctx context.Context) Capabilities {
	key := "has:" + e.baseURL + ":" + e.name
	if v, ok := e.cache.Get(key); ok {
		if caps, ok := v.(Capabilities); ok {
			CapabilityCacheHitsTotal.Inc()
			return caps
		}
	}

	var raw map[string]any
	if err := e.roundTrip(ctx, http.MethodGet, "has", nil, &raw); err != nil {
		e.logger.Warn("capability-lookup-failed", zap.Error(err))
		return Capabilities{}
	}

	caps := make(Capabilities, len(raw))
	for method, v := range raw {
		caps[method] = parseSupport(v)
	}

	e.cache.Set(key, caps, capabilityTTL)
	e.cache.Wait()
	return caps
}

func parseSupport(v any) Support {
	switch val := v.(type) {
	case bool:
		if val {
			return SupportNative
		}
	case string:
		if val == "emulated" {
			return SupportEmulated
		}
		if val == "true" || val == "native" {
			return SupportNative
		}
	}
	return SupportNone
}
