// Package geolocation resolves a request's origin (country, long/lat,
// ip) from the headers a reverse proxy attaches, without calling out
// to a third-party IP database itself.
package geolocation

import (
	"net/http"
	"strconv"
	"strings"
)

// Geolocation is a request's resolved origin.
type Geolocation struct {
	CountryCode string
	Long        float64
	Lat         float64
	IP          string
}

// FromHeaders derives a Geolocation from the headers a reverse proxy
// (Cloudflare or nginx with a GeoIP2 module) is expected to attach.
// The IP is taken from CF-Connecting-IP first, then the first hop of
// X-Forwarded-For, then X-Real-IP. Country and long/lat come from
// whatever geo headers the proxy populated; all are best-effort and
// default to the zero value when absent.
func FromHeaders(h http.Header) Geolocation {
	ip := h.Get("CF-Connecting-IP")
	if ip == "" {
		if forwarded := h.Get("X-Forwarded-For"); forwarded != "" {
			hops := strings.Split(forwarded, ",")
			ip = strings.TrimSpace(hops[0])
		}
	}
	if ip == "" {
		ip = h.Get("X-Real-IP")
	}

	return Geolocation{
		CountryCode: strings.ToLower(h.Get("CF-IPCountry")),
		Long:        parseFloat(h.Get("X-Geo-Longitude")),
		Lat:         parseFloat(h.Get("X-Geo-Latitude")),
		IP:          ip,
	}
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
