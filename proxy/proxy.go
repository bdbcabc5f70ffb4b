package proxy

import (
	"errors"
	"net/http"
	"net/url"
	"sync/atomic"
)

// Func plugs into http.Transport.Proxy.
type Func func(*http.Request) (*url.URL, error)

type roundRobinSwitcher struct {
	proxyURLs []*url.URL
	index     uint32
}

func (r *roundRobinSwitcher) GetProxy(pr *http.Request) (*url.URL, error) {
	index := atomic.AddUint32(&r.index, 1) - 1
	u := r.proxyURLs[index%uint32(len(r.proxyURLs))]

	return u, nil
}

// RoundRobinSwitcher creates a proxy switcher function which rotates
// the given URLs on every outgoing request. "http", "https" and "socks5"
// schemes are supported; an empty scheme means "http".
func RoundRobinSwitcher(proxyURLs ...string) (Func, error) {
	if len(proxyURLs) < 1 {
		return nil, errors.New("proxy URL list is empty")
	}
	urls := make([]*url.URL, len(proxyURLs))
	for i, u := range proxyURLs {
		parsedU, err := url.Parse(u)
		if err != nil {
			return nil, err
		}
		urls[i] = parsedU
	}

	return (&roundRobinSwitcher{urls, 0}).GetProxy, nil
}
