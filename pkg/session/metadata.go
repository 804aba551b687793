package session

import (
	"net/http"

	"github.com/dmitrymomot/sessionkit/pkg/clientip"
)

// maxUserAgentLen caps the stored user agent.
const maxUserAgentLen = 512

// MetadataFromRequest captures the provenance of r.
func MetadataFromRequest(r *http.Request) Metadata {
	ua := r.UserAgent()
	if len(ua) > maxUserAgentLen {
		ua = ua[:maxUserAgentLen]
	}
	return Metadata{
		UserAgent: ua,
		IPAddress: clientip.GetIP(r),
	}
}
