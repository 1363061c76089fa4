package capture

import (
	"context"
	"encoding/base64"

	"github.com/chromedp/cdproto/network"
)

// setBasicAuth sends an Authorization header with every request of the tab.
func setBasicAuth(ctx context.Context, username, password string) error {
	if err := network.Enable().Do(ctx); err != nil {
		return err
	}
	token := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return network.SetExtraHTTPHeaders(network.Headers{"Authorization": "Basic " + token}).Do(ctx)
}
