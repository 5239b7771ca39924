package speak

import (
	"net"
	"net/http"
	"time"
)

// newDefaultHTTPClient sets transport-level timeouts and leaves the overall
// request lifetime to context deadlines. Audio scoring can take well over a
// minute, so http.Client.Timeout stays unset.
func newDefaultHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ForceAttemptHTTP2:     true,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: transport}
}
