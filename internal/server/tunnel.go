package server

import (
	"context"
	"fmt"
	"net"

	"golang.ngrok.com/ngrok"
	ngrokcfg "golang.ngrok.com/ngrok/config"
)

// listenTunnel opens a public ngrok TCP endpoint that forwards to this
// process. The tunnel is a net.Listener, so the accept loop is unchanged.
func listenTunnel(ctx context.Context, authtoken string) (net.Listener, error) {
	tunnel, err := ngrok.StartTunnel(
		ctx,
		ngrokcfg.TCPEndpoint(),
		ngrok.WithAuthtoken(authtoken),
	)
	if err != nil {
		return nil, fmt.Errorf("start ngrok tunnel: %w", err)
	}
	return tunnel, nil
}
