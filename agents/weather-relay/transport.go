package weatherrelay

import (
	"errors"
	"fmt"
	"net/url"
)

// transportError wraps a failed request in sentinel. The request URL is
// reduced to its host because the query carries credentials.
func transportError(sentinel, err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return fmt.Errorf("%w: %v", sentinel, err)
	}
	host := "unknown host"
	if u, perr := url.Parse(ue.URL); perr == nil && u.Host != "" {
		host = u.Host
	}
	return fmt.Errorf("%w: %s %s: %v", sentinel, ue.Op, host, ue.Err)
}
